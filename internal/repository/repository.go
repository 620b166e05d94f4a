package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Student       StudentRepository
	StaffUser     StaffUserRepository
	Patrol        PatrolRepository
	AttitudeCheck AttitudeCheckRepository
	Attendance    AttendanceRepository
	Phone         PhoneRepository
	School        SchoolRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		Student:       NewStudentRepo(db),
		StaffUser:     NewStaffUserRepo(db),
		Patrol:        NewPatrolRepo(db),
		AttitudeCheck: NewAttitudeCheckRepo(db),
		Attendance:    NewAttendanceRepo(db),
		Phone:         NewPhoneRepo(db),
		School:        NewSchoolRepo(db),
	}
}

// BeginTx 开启事务
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务的 Repository 副本
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}
