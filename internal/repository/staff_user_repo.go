package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/DH0263/dittonweb-sub000/internal/model"
)

// StaffUserRepository 值班人员数据访问接口
type StaffUserRepository interface {
	Create(ctx context.Context, user *model.StaffUser) error
	GetByID(ctx context.Context, id int64) (*model.StaffUser, error)
	GetByLoginID(ctx context.Context, loginID string) (*model.StaffUser, error)
}

type staffUserRepo struct {
	db *gorm.DB
}

// NewStaffUserRepo 创建 StaffUserRepository 实例
func NewStaffUserRepo(db *gorm.DB) StaffUserRepository {
	return &staffUserRepo{db: db}
}

func (r *staffUserRepo) Create(ctx context.Context, user *model.StaffUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *staffUserRepo) GetByID(ctx context.Context, id int64) (*model.StaffUser, error) {
	var user model.StaffUser
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *staffUserRepo) GetByLoginID(ctx context.Context, loginID string) (*model.StaffUser, error) {
	var user model.StaffUser
	if err := r.db.WithContext(ctx).Where("login_id = ?", loginID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
