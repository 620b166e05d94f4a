package model

import "time"

// PhoneSubmission 分教时手机上交表 — 对应 phone_submissions
type PhoneSubmission struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"  json:"id"`
	StudentID   int64     `gorm:"not null"                  json:"student_id"`
	SubmitDate  time.Time `gorm:"type:date;not null"        json:"submit_date"`
	Period      int       `gorm:"type:smallint;not null"    json:"period"`
	IsSubmitted bool      `gorm:"not null"                  json:"is_submitted"`
	CheckedBy   string    `gorm:"type:varchar(50);not null" json:"checked_by"`
	BaseModel
}

// TableName 指定表名
func (PhoneSubmission) TableName() string { return "phone_submissions" }
