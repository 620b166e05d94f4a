package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DH0263/dittonweb-sub000/internal/model"
)

// SchoolRepository 到校标记数据访问接口
type SchoolRepository interface {
	// Mark 标记到校，重复标记不报错
	Mark(ctx context.Context, studentID int64, day time.Time) error
	Unmark(ctx context.Context, studentID int64, day time.Time) error
	ListStudentIDs(ctx context.Context, day time.Time) ([]int64, error)
}

type schoolRepo struct {
	db *gorm.DB
}

// NewSchoolRepo 创建 SchoolRepository 实例
func NewSchoolRepo(db *gorm.DB) SchoolRepository {
	return &schoolRepo{db: db}
}

func (r *schoolRepo) Mark(ctx context.Context, studentID int64, day time.Time) error {
	row := model.SchoolAttendance{StudentID: studentID, AttendDate: day}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

func (r *schoolRepo) Unmark(ctx context.Context, studentID int64, day time.Time) error {
	return r.db.WithContext(ctx).
		Where("student_id = ? AND attend_date = ?", studentID, day.Format(model.DateLayout)).
		Delete(&model.SchoolAttendance{}).Error
}

func (r *schoolRepo) ListStudentIDs(ctx context.Context, day time.Time) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.SchoolAttendance{}).
		Where("attend_date = ?", day.Format(model.DateLayout)).
		Order("student_id ASC").
		Pluck("student_id", &ids).Error
	return ids, err
}
