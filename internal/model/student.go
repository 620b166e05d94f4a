package model

// 学生在籍状态
const (
	StudentEnrolled  = "enrolled"
	StudentWithdrawn = "withdrawn"
)

// Student 学生表 — 对应 students
type Student struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"         json:"id"`
	Name        string  `gorm:"type:varchar(50);not null"        json:"name"`
	SeatNumber  *string `gorm:"type:varchar(10)"                 json:"seat_number"`
	StudentType string  `gorm:"type:varchar(20);not null"        json:"student_type"`
	Status      string  `gorm:"type:varchar(20);not null"        json:"status"`
	BaseModel
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// Seat 座位编号，未分配时为空串
func (s *Student) Seat() string {
	if s.SeatNumber == nil {
		return ""
	}
	return *s.SeatNumber
}
