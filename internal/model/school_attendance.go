package model

import "time"

// SchoolAttendance 到校标记 — 对应 school_attendance
type SchoolAttendance struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"           json:"id"`
	StudentID  int64     `gorm:"not null"                           json:"student_id"`
	AttendDate time.Time `gorm:"type:date;not null"                 json:"attend_date"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (SchoolAttendance) TableName() string { return "school_attendance" }
