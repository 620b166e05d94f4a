package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/DH0263/dittonweb-sub000/internal/model"
)

// StudentRepository 学生数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id int64) (*model.Student, error)
	ListEnrolled(ctx context.Context) ([]model.Student, error)
	ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// ListEnrolled 在籍学生，按座位号排序
func (r *studentRepo) ListEnrolled(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Where("status = ?", model.StudentEnrolled).
		Order("seat_number ASC NULLS LAST, id ASC").
		Find(&students).Error
	return students, err
}

// ExistingIDs 返回 ids 中存在且在籍的学生集合
func (r *studentRepo) ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var found []int64
	err := r.db.WithContext(ctx).Model(&model.Student{}).
		Where("id IN ? AND status = ?", ids, model.StudentEnrolled).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}
