package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/DH0263/dittonweb-sub000/internal/model"
	pkgerrors "github.com/DH0263/dittonweb-sub000/pkg/errors"
)

// PatrolRepository 巡查会话数据访问接口
type PatrolRepository interface {
	Create(ctx context.Context, patrol *model.Patrol) error
	GetByID(ctx context.Context, id int64) (*model.Patrol, error)
	// GetActive 当日仍在进行的会话，不存在时返回 gorm.ErrRecordNotFound
	GetActive(ctx context.Context, day time.Time) (*model.Patrol, error)
	// Finish 仅当会话仍在进行时写入结束信息；已结束返回 ErrOptimisticLock
	Finish(ctx context.Context, id int64, endTime time.Time, inspector, notes string, forced bool) error
	List(ctx context.Context, day *time.Time, limit int) ([]model.Patrol, error)
}

type patrolRepo struct {
	db *gorm.DB
}

// NewPatrolRepo 创建 PatrolRepository 实例
func NewPatrolRepo(db *gorm.DB) PatrolRepository {
	return &patrolRepo{db: db}
}

func (r *patrolRepo) Create(ctx context.Context, patrol *model.Patrol) error {
	return r.db.WithContext(ctx).Create(patrol).Error
}

func (r *patrolRepo) GetByID(ctx context.Context, id int64) (*model.Patrol, error) {
	var patrol model.Patrol
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&patrol).Error; err != nil {
		return nil, err
	}
	return &patrol, nil
}

func (r *patrolRepo) GetActive(ctx context.Context, day time.Time) (*model.Patrol, error) {
	var patrol model.Patrol
	err := r.db.WithContext(ctx).
		Where("patrol_date = ? AND end_time IS NULL AND force_ended = ?", day.Format(model.DateLayout), false).
		Order("start_time DESC").
		First(&patrol).Error
	if err != nil {
		return nil, err
	}
	return &patrol, nil
}

func (r *patrolRepo) Finish(ctx context.Context, id int64, endTime time.Time, inspector, notes string, forced bool) error {
	updates := map[string]interface{}{
		"end_time":    endTime,
		"notes":       notes,
		"force_ended": forced,
		"updated_at":  time.Now(),
	}
	if inspector != "" {
		updates["inspector_name"] = inspector
	}
	result := r.db.WithContext(ctx).Model(&model.Patrol{}).
		Where("id = ? AND end_time IS NULL AND force_ended = ?", id, false).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *patrolRepo) List(ctx context.Context, day *time.Time, limit int) ([]model.Patrol, error) {
	var patrols []model.Patrol
	db := r.db.WithContext(ctx).Model(&model.Patrol{})
	if day != nil {
		db = db.Where("patrol_date = ?", day.Format(model.DateLayout))
	}
	err := db.Order("start_time DESC").Limit(limit).Find(&patrols).Error
	return patrols, err
}
