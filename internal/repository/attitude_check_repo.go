package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/DH0263/dittonweb-sub000/internal/model"
)

// AttitudeCheckRepository 态度检查数据访问接口
type AttitudeCheckRepository interface {
	Create(ctx context.Context, check *model.AttitudeCheck) error
	GetByID(ctx context.Context, id int64) (*model.AttitudeCheck, error)
	Delete(ctx context.Context, id int64) error
	ListByPatrol(ctx context.Context, patrolID int64) ([]model.AttitudeCheck, error)
	ListByDate(ctx context.Context, day time.Time) ([]model.AttitudeCheck, error)
	CountByPatrol(ctx context.Context, patrolID int64) (int, error)
	// CountByPatrols 批量统计，返回 patrol_id → 数量
	CountByPatrols(ctx context.Context, patrolIDs []int64) (map[int64]int, error)
	// StudentsCheckedOn 当日被记录过的学生集合
	StudentsCheckedOn(ctx context.Context, day time.Time) (map[int64]bool, error)
}

type attitudeCheckRepo struct {
	db *gorm.DB
}

// NewAttitudeCheckRepo 创建 AttitudeCheckRepository 实例
func NewAttitudeCheckRepo(db *gorm.DB) AttitudeCheckRepository {
	return &attitudeCheckRepo{db: db}
}

func (r *attitudeCheckRepo) Create(ctx context.Context, check *model.AttitudeCheck) error {
	return r.db.WithContext(ctx).Create(check).Error
}

func (r *attitudeCheckRepo) GetByID(ctx context.Context, id int64) (*model.AttitudeCheck, error) {
	var check model.AttitudeCheck
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&check).Error; err != nil {
		return nil, err
	}
	return &check, nil
}

func (r *attitudeCheckRepo) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.AttitudeCheck{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *attitudeCheckRepo) ListByPatrol(ctx context.Context, patrolID int64) ([]model.AttitudeCheck, error) {
	var checks []model.AttitudeCheck
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("patrol_id = ?", patrolID).
		Order("check_time ASC, id ASC").
		Find(&checks).Error
	return checks, err
}

func (r *attitudeCheckRepo) ListByDate(ctx context.Context, day time.Time) ([]model.AttitudeCheck, error) {
	var checks []model.AttitudeCheck
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("check_date = ?", day.Format(model.DateLayout)).
		Order("check_time ASC, id ASC").
		Find(&checks).Error
	return checks, err
}

func (r *attitudeCheckRepo) CountByPatrol(ctx context.Context, patrolID int64) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.AttitudeCheck{}).
		Where("patrol_id = ?", patrolID).
		Count(&n).Error
	return int(n), err
}

func (r *attitudeCheckRepo) CountByPatrols(ctx context.Context, patrolIDs []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(patrolIDs))
	if len(patrolIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		PatrolID int64
		N        int
	}
	err := r.db.WithContext(ctx).Model(&model.AttitudeCheck{}).
		Select("patrol_id, COUNT(*) AS n").
		Where("patrol_id IN ?", patrolIDs).
		Group("patrol_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PatrolID] = row.N
	}
	return out, nil
}

func (r *attitudeCheckRepo) StudentsCheckedOn(ctx context.Context, day time.Time) (map[int64]bool, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.AttitudeCheck{}).
		Where("check_date = ?", day.Format(model.DateLayout)).
		Distinct().
		Pluck("student_id", &ids).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
