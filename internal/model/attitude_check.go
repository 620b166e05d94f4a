package model

import "time"

// 态度检查类别（只记录负面行为）
const (
	CategoryDrowsy     = "drowsy"
	CategoryDistracted = "distracted"
	CategoryAway       = "away"
	CategoryPhone      = "phone"
	CategoryOther      = "other"
)

// AttitudeCategories 允许的类别
var AttitudeCategories = []string{CategoryDrowsy, CategoryDistracted, CategoryAway, CategoryPhone, CategoryOther}

// AttitudeCheck 态度检查表 — 对应 attitude_checks
type AttitudeCheck struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"          json:"id"`
	StudentID   int64     `gorm:"not null;index"                    json:"student_id"`
	PatrolID    int64     `gorm:"not null;index"                    json:"patrol_id"`
	CheckDate   time.Time `gorm:"type:date;not null"                json:"check_date"`
	CheckTime   time.Time `gorm:"not null"                          json:"check_time"`
	Category    string    `gorm:"type:varchar(20);not null"         json:"category"`
	Note        string    `gorm:"type:text;not null"                json:"note"`
	CheckerName string    `gorm:"type:varchar(50);not null"         json:"checker_name"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Student *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

// TableName 指定表名
func (AttitudeCheck) TableName() string { return "attitude_checks" }
