package dto

import "time"

// ── 巡查 ──

// PatrolResponse 巡查会话
type PatrolResponse struct {
	ID            int64      `json:"id"`
	PatrolDate    string     `json:"patrol_date"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	InspectorName string     `json:"inspector_name"`
	Notes         string     `json:"notes"`
	ForceEnded    bool       `json:"force_ended"`
}

// PatrolSummary 巡查历史中的一行
type PatrolSummary struct {
	PatrolResponse
	CheckCount int `json:"check_count"`
}

// StartPatrolResponse 开始巡查结果；Existing 表示返回的是已在进行的会话
type StartPatrolResponse struct {
	PatrolResponse
	Existing bool `json:"existing"`
}

// EndPatrolRequest 正常结束巡查
type EndPatrolRequest struct {
	Notes         string `json:"notes"`
	InspectorName string `json:"inspector_name" binding:"max=50"`
}

// EndPatrolResponse 正常结束结果
type EndPatrolResponse struct {
	Patrol          PatrolResponse `json:"patrol"`
	CheckCount      int            `json:"attitude_checks_count"`
	DurationSeconds int64          `json:"duration_seconds"`
}

// ForceEndRequest 强制结束
type ForceEndRequest struct {
	Notes string `json:"notes"`
}

// ForceEndResponse 强制结束结果
type ForceEndResponse struct {
	Patrol       PatrolResponse `json:"patrol"`
	AlreadyEnded bool           `json:"already_ended"`
}

// PatrolListRequest 巡查历史查询
type PatrolListRequest struct {
	Date  string `form:"date"`
	Limit int    `form:"limit"`
}

// ── 态度检查 ──

// CreateAttitudeCheckRequest 新建态度检查
type CreateAttitudeCheckRequest struct {
	StudentID   int64      `json:"student_id"   binding:"required"`
	PatrolID    int64      `json:"patrol_id"    binding:"required"`
	CheckTime   *time.Time `json:"check_time"`
	Category    string     `json:"category"     binding:"required"`
	Note        string     `json:"note"`
	CheckerName string     `json:"checker_name" binding:"required,max=50"`
}

// AttitudeCheckResponse 态度检查
type AttitudeCheckResponse struct {
	ID          int64     `json:"id"`
	StudentID   int64     `json:"student_id"`
	StudentName string    `json:"student_name,omitempty"`
	SeatNumber  string    `json:"seat_number,omitempty"`
	PatrolID    int64     `json:"patrol_id"`
	CheckDate   string    `json:"check_date"`
	CheckTime   time.Time `json:"check_time"`
	Category    string    `json:"category"`
	Note        string    `json:"note"`
	CheckerName string    `json:"checker_name"`
}

// StartPatrolRequest 开始巡查；InspectorName 缺省时取当前登录人员
type StartPatrolRequest struct {
	InspectorName string `json:"inspector_name" binding:"max=50"`
}
