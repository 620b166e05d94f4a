package console

// Status 座位显示用的出勤状态
type Status string

const (
	StatusStudying   Status = "studying"
	StatusAbsent     Status = "absent"
	StatusLate       Status = "late"
	StatusOnSchedule Status = "on_schedule"
	StatusSchool     Status = "school"
)

// 服务端存储的出勤名称
const (
	NameStudying   = "자습중"
	NameAbsent     = "결석"
	NameLate       = "지각"
	NameOnSchedule = "일정중"
	NameSchool     = "학교"
)

var statusByName = map[string]Status{
	NameStudying:   StatusStudying,
	NameAbsent:     StatusAbsent,
	NameLate:       StatusLate,
	NameOnSchedule: StatusOnSchedule,
	NameSchool:     StatusSchool,
}

var nameByStatus = map[Status]string{
	StatusStudying:   NameStudying,
	StatusAbsent:     NameAbsent,
	StatusLate:       NameLate,
	StatusOnSchedule: NameOnSchedule,
	StatusSchool:     NameSchool,
}

// StatusFromName 将存储名称映射为状态，未知名称视为自习中
func StatusFromName(name string) Status {
	if s, ok := statusByName[name]; ok {
		return s
	}
	return StatusStudying
}

// StoredName 状态对应的存储名称
func (s Status) StoredName() string {
	return nameByStatus[s]
}

// Label 座位上显示的文字；基线状态可能是服务端给出的任意值，原样显示
func (s Status) Label() string {
	if n, ok := nameByStatus[s]; ok {
		return n
	}
	if s == "" {
		return "미기록"
	}
	return string(s)
}

// AttendanceChoices 默认子模式下的四选一
var AttendanceChoices = []Status{StatusStudying, StatusAbsent, StatusLate, StatusOnSchedule}

func isAttendanceChoice(s Status) bool {
	for _, c := range AttendanceChoices {
		if c == s {
			return true
		}
	}
	return false
}

// Category 巡查观察类别；"正常" 以不记录表示
type Category string

const (
	CategoryDrowsy     Category = "drowsy"
	CategoryDistracted Category = "distracted"
	CategoryAway       Category = "away"
	CategoryPhone      Category = "phone"
	CategoryOther      Category = "other"
	CategoryNormal     Category = "normal"
)

// Categories 可记录的观察类别
var Categories = []Category{CategoryDrowsy, CategoryDistracted, CategoryAway, CategoryPhone, CategoryOther}

var categoryLabels = map[Category]string{
	CategoryDrowsy:     "졸음",
	CategoryDistracted: "딴짓",
	CategoryAway:       "자리이탈",
	CategoryPhone:      "휴대폰",
	CategoryOther:      "기타",
}

// Valid 是否为可记录的负面类别
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label 类别显示名
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}
