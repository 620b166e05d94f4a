package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DH0263/dittonweb-sub000/internal/model"
)

// AttendanceRepository 分教时出勤数据访问接口
type AttendanceRepository interface {
	// Upsert 按 (student_id, record_date, period) 覆盖写入
	Upsert(ctx context.Context, records []model.AttendanceRecord) error
	ListByDate(ctx context.Context, day time.Time) ([]model.AttendanceRecord, error)
	ListByDatePeriod(ctx context.Context, day time.Time, period int) ([]model.AttendanceRecord, error)
	// ConvertStatus 把某日某教时的 from 状态改为 to，返回影响行数
	ConvertStatus(ctx context.Context, day time.Time, period int, from, to string) (int64, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Upsert(ctx context.Context, records []model.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "record_date"}, {Name: "period"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).
		Create(&records).Error
}

func (r *attendanceRepo) ListByDate(ctx context.Context, day time.Time) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("record_date = ?", day.Format(model.DateLayout)).
		Order("student_id ASC, period ASC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) ListByDatePeriod(ctx context.Context, day time.Time, period int) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("record_date = ? AND period = ?", day.Format(model.DateLayout), period).
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) ConvertStatus(ctx context.Context, day time.Time, period int, from, to string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.AttendanceRecord{}).
		Where("record_date = ? AND period = ? AND status = ?", day.Format(model.DateLayout), period, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	return result.RowsAffected, result.Error
}
