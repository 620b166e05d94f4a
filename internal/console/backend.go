package console

import (
	"context"
	"time"
)

// Student 名册中的一名在籍学生
type Student struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	SeatNumber      string `json:"seat_number"`
	StudentType     string `json:"student_type"`
	Baseline        Status `json:"current_status"`
	AttitudeWarning bool   `json:"attitude_warning"`
}

// Snapshot 一次刷新取回的只读数据
type Snapshot struct {
	Students   []Student
	Attendance map[int64]map[int]string // 学生 → 教时 → 存储名称
	Phone      map[int64]map[int]bool
	School     []int64
	FetchedAt  time.Time
}

// PatrolSession 服务端巡查会话
type PatrolSession struct {
	ID            int64      `json:"id"`
	PatrolDate    string     `json:"patrol_date"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	InspectorName string     `json:"inspector_name"`
	Notes         string     `json:"notes"`
	ForceEnded    bool       `json:"force_ended"`
	// Existing 开始巡查时服务端返回的是已在进行的会话
	Existing bool `json:"existing,omitempty"`
}

// PatrolEndResult 正常结束巡查的服务端回执
type PatrolEndResult struct {
	Session    PatrolSession `json:"patrol"`
	CheckCount int           `json:"attitude_checks_count"`
}

// Observation 一条巡查观察（态度检查）
type Observation struct {
	ID          int64     `json:"id"`
	StudentID   int64     `json:"student_id"`
	PatrolID    int64     `json:"patrol_id"`
	CheckDate   string    `json:"check_date"`
	CheckTime   time.Time `json:"check_time"`
	Category    Category  `json:"category"`
	Note        string    `json:"note"`
	CheckerName string    `json:"checker_name"`
}

// NewObservation 新建观察的请求体
type NewObservation struct {
	StudentID   int64     `json:"student_id"`
	PatrolID    int64     `json:"patrol_id"`
	CheckTime   time.Time `json:"check_time"`
	Category    Category  `json:"category"`
	Note        string    `json:"note"`
	CheckerName string    `json:"checker_name"`
}

// PatrolBackend 巡查相关的服务端操作
type PatrolBackend interface {
	StartPatrol(ctx context.Context) (*PatrolSession, error)
	// CurrentPatrol 无进行中的巡查时返回 nil, nil
	CurrentPatrol(ctx context.Context) (*PatrolSession, error)
	EndPatrol(ctx context.Context, patrolID int64, notes, inspectorName string) (*PatrolEndResult, error)
	CreateObservation(ctx context.Context, in NewObservation) (*Observation, error)
	ListObservations(ctx context.Context, patrolID int64) ([]Observation, error)
	DeleteObservation(ctx context.Context, checkID int64) error
}

// Backend 监督引擎依赖的全部服务端操作
// 批量提交在教时不一致时返回 *pkgerrors.PeriodMismatchError
type Backend interface {
	PatrolBackend

	FetchRoster(ctx context.Context) ([]Student, error)
	FetchAttendanceByPeriod(ctx context.Context) (map[int64]map[int]string, error)
	FetchPhoneByPeriod(ctx context.Context) (map[int64]map[int]bool, error)
	FetchSchoolAttendance(ctx context.Context) ([]int64, error)
	SetSchoolAttendance(ctx context.Context, studentID int64, attending bool) error

	SubmitAttendance(ctx context.Context, period int, entries []Entry[Status], force bool) error
	SubmitPhone(ctx context.Context, period int, entries []Entry[bool], checkedBy string, force bool) error
}

// ForceEndSender 尽力而为的强制结束发送：无返回值，不重试
type ForceEndSender interface {
	SendForceEnd(patrolID int64, note string)
}

// Clock 可替换的时钟
type Clock interface {
	Now() time.Time
}

// SystemClock 使用系统时间
type SystemClock struct{}

// Now 当前时间
func (SystemClock) Now() time.Time { return time.Now() }
