package model

// 值班人员角色
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
)

// StaffUser 值班人员表 — 对应 staff_users
type StaffUser struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"          json:"id"`
	LoginID      string `gorm:"type:varchar(50);not null;unique"  json:"login_id"`
	Name         string `gorm:"type:varchar(50);not null"         json:"name"`
	PasswordHash string `gorm:"type:varchar(100);not null"        json:"-"`
	Role         string `gorm:"type:varchar(20);not null"         json:"role"`
	BaseModel
}

// TableName 指定表名
func (StaffUser) TableName() string { return "staff_users" }
