package dto

import "time"

// ── 监督面板 ──

// StudentStatus 单个学生的基线状态
type StudentStatus struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	SeatNumber      string `json:"seat_number"`
	StudentType     string `json:"student_type"`
	CurrentStatus   string `json:"current_status"`
	AttitudeWarning bool   `json:"attitude_warning"`
}

// SupervisionDashboard 名册 + 基线状态
type SupervisionDashboard struct {
	Students        []StudentStatus `json:"students"`
	CurrentTime     time.Time       `json:"current_time"`
	CurrentPeriod   *int            `json:"current_period"`
	TotalStudents   int             `json:"total_students"`
	PresentCount    int             `json:"present_count"`
	AbsentCount     int             `json:"absent_count"`
	OnScheduleCount int             `json:"on_schedule_count"`
}

// ── 分教时记录 ──

// PeriodQuery 批量提交的查询参数
type PeriodQuery struct {
	Period int  `form:"period" binding:"required,min=1,max=7"`
	Force  bool `form:"force"`
}

// AttendanceEntry 单条出勤
type AttendanceEntry struct {
	StudentID int64  `json:"student_id" binding:"required"`
	Status    string `json:"status"     binding:"required"`
}

// BulkAttendanceRequest 批量出勤
type BulkAttendanceRequest struct {
	Records []AttendanceEntry `json:"records" binding:"required,dive"`
}

// PhoneEntry 单条手机上交
type PhoneEntry struct {
	StudentID   int64 `json:"student_id"   binding:"required"`
	IsSubmitted bool  `json:"is_submitted"`
}

// BulkPhoneRequest 批量手机上交
type BulkPhoneRequest struct {
	CheckedBy   string       `json:"checked_by"`
	Submissions []PhoneEntry `json:"submissions" binding:"required,dive"`
}

// BulkResult 批量写入结果
type BulkResult struct {
	Period int    `json:"period"`
	Date   string `json:"date"`
	Saved  int    `json:"saved"`
	Forced bool   `json:"forced"`
}

// AttendanceByPeriod 学生 → 教时 → 存储名称
type AttendanceByPeriod map[int64]map[int]string

// PhoneByPeriod 学生 → 教时 → 是否上交
type PhoneByPeriod map[int64]map[int]bool

// CompletionResponse 某教时出勤记录完成度
type CompletionResponse struct {
	Period        int     `json:"period"`
	Date          string  `json:"date"`
	TotalStudents int     `json:"total_students"`
	RecordedCount int     `json:"recorded_count"`
	MissingCount  int     `json:"missing_count"`
	MissingIDs    []int64 `json:"missing_student_ids"`
	IsComplete    bool    `json:"is_complete"`
}

// PeriodMismatchData 教时不一致拒绝的 data 字段
type PeriodMismatchData struct {
	Type            string `json:"type"`
	CurrentPeriod   *int   `json:"current_period"`
	RequestedPeriod int    `json:"requested_period"`
}

// SchoolAttendanceResponse 当日到校名单
type SchoolAttendanceResponse struct {
	Date       string  `json:"date"`
	StudentIDs []int64 `json:"student_ids"`
}
