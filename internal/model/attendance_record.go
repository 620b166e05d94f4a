package model

import "time"

// 出勤状态存储名称
const (
	AttendanceStudying   = "자습중"
	AttendanceAbsent     = "결석"
	AttendanceLate       = "지각"
	AttendanceOnSchedule = "일정중"
	AttendanceSchool     = "학교"
)

var attendanceCodes = map[string]string{
	AttendanceStudying:   "studying",
	AttendanceAbsent:     "absent",
	AttendanceLate:       "late",
	AttendanceOnSchedule: "on_schedule",
	AttendanceSchool:     "school",
}

// AttendanceStatusCode 存储名称 → 状态码，未知名称视为自习中
func AttendanceStatusCode(name string) string {
	if code, ok := attendanceCodes[name]; ok {
		return code
	}
	return "studying"
}

// ValidAttendanceStatus 是否为可写入的出勤名称
func ValidAttendanceStatus(name string) bool {
	_, ok := attendanceCodes[name]
	return ok
}

// AttendanceRecord 分教时出勤表 — 对应 attendance_records
// (student_id, record_date, period) 唯一，写入走 upsert
type AttendanceRecord struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"  json:"id"`
	StudentID  int64     `gorm:"not null"                  json:"student_id"`
	RecordDate time.Time `gorm:"type:date;not null"        json:"record_date"`
	Period     int       `gorm:"type:smallint;not null"    json:"period"`
	Status     string    `gorm:"type:varchar(20);not null" json:"status"`
	BaseModel
}

// TableName 指定表名
func (AttendanceRecord) TableName() string { return "attendance_records" }
