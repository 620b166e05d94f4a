package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DH0263/dittonweb-sub000/internal/model"
)

// PhoneRepository 分教时手机上交数据访问接口
type PhoneRepository interface {
	Upsert(ctx context.Context, submissions []model.PhoneSubmission) error
	ListByDate(ctx context.Context, day time.Time) ([]model.PhoneSubmission, error)
}

type phoneRepo struct {
	db *gorm.DB
}

// NewPhoneRepo 创建 PhoneRepository 实例
func NewPhoneRepo(db *gorm.DB) PhoneRepository {
	return &phoneRepo{db: db}
}

func (r *phoneRepo) Upsert(ctx context.Context, submissions []model.PhoneSubmission) error {
	if len(submissions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "submit_date"}, {Name: "period"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_submitted", "checked_by", "updated_at"}),
		}).
		Create(&submissions).Error
}

func (r *phoneRepo) ListByDate(ctx context.Context, day time.Time) ([]model.PhoneSubmission, error) {
	var submissions []model.PhoneSubmission
	err := r.db.WithContext(ctx).
		Where("submit_date = ?", day.Format(model.DateLayout)).
		Order("student_id ASC, period ASC").
		Find(&submissions).Error
	return submissions, err
}
