package console

// ModeKind 界面模式
type ModeKind int

const (
	ModeView ModeKind = iota
	ModePatrol
	ModeAttendance
	ModePhone
)

func (k ModeKind) String() string {
	switch k {
	case ModePatrol:
		return "patrol"
	case ModeAttendance:
		return "attendance"
	case ModePhone:
		return "phone"
	default:
		return "view"
	}
}

// AttendanceSubmode 出勤记录的子模式，三者互斥
type AttendanceSubmode int

const (
	SubmodeDefault AttendanceSubmode = iota
	SubmodeLateBatch
	SubmodeLateToStudying
)

func (s AttendanceSubmode) String() string {
	switch s {
	case SubmodeLateBatch:
		return "late_batch"
	case SubmodeLateToStudying:
		return "late_to_studying"
	default:
		return "default"
	}
}

// Mode 控制器持有的唯一模式值
// 每个记录器的覆盖层只存在于自己的模式值里，两个记录器无法同时激活
type Mode interface {
	Kind() ModeKind
}

// ViewMode 只读查看
type ViewMode struct{}

// PatrolMode 巡查中
type PatrolMode struct {
	SessionID int64
}

// AttendanceMode 出勤记录中
type AttendanceMode struct {
	Period  int
	Overlay *Overlay[Status]
	Submode AttendanceSubmode
}

// PhoneMode 手机上交记录中
type PhoneMode struct {
	Period  int
	Overlay *Overlay[bool]
}

func (ViewMode) Kind() ModeKind        { return ModeView }
func (PatrolMode) Kind() ModeKind      { return ModePatrol }
func (*AttendanceMode) Kind() ModeKind { return ModeAttendance }
func (*PhoneMode) Kind() ModeKind      { return ModePhone }
