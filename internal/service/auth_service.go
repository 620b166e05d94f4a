package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/DH0263/dittonweb-sub000/internal/dto"
	"github.com/DH0263/dittonweb-sub000/internal/model"
	"github.com/DH0263/dittonweb-sub000/internal/repository"
	"github.com/DH0263/dittonweb-sub000/pkg/jwt"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials = errors.New("账号或密码错误")
	ErrStaffExists        = errors.New("账号已存在")
	ErrInvalidRole        = errors.New("角色无效")
	ErrPasswordTooShort   = errors.New("密码长度不能少于 8 位")
)

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// Logout 将 Token 加入黑名单直至其自然过期
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	CreateStaff(ctx context.Context, req *dto.CreateStaffRequest) (*dto.StaffResponse, error)
}

type authService struct {
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询值班人员
	staff, err := s.repo.StaffUser.GetByLoginID(ctx, req.LoginID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询值班人员失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token
	accessToken, err := s.jwtMgr.GenerateAccessToken(staff.ID, staff.Name, staff.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(s.jwtMgr.AccessTokenTTL().Seconds()),
		Staff:       toStaffResponse(staff),
	}, nil
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, ttl); err != nil {
		s.logger.Error("写入 Token 黑名单失败", zap.String("jti", jti), zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) CreateStaff(ctx context.Context, req *dto.CreateStaffRequest) (*dto.StaffResponse, error) {
	role := req.Role
	if role == "" {
		role = model.RoleSupervisor
	}
	if role != model.RoleAdmin && role != model.RoleSupervisor {
		return nil, ErrInvalidRole
	}
	if len(req.Password) < 8 {
		return nil, ErrPasswordTooShort
	}
	loginID := strings.TrimSpace(req.LoginID)

	if _, err := s.repo.StaffUser.GetByLoginID(ctx, loginID); err == nil {
		return nil, ErrStaffExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询值班人员失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	staff := &model.StaffUser{
		LoginID:      loginID,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.repo.StaffUser.Create(ctx, staff); err != nil {
		s.logger.Error("创建值班人员失败", zap.Error(err))
		return nil, err
	}

	resp := toStaffResponse(staff)
	return &resp, nil
}

func toStaffResponse(staff *model.StaffUser) dto.StaffResponse {
	return dto.StaffResponse{
		ID:      staff.ID,
		LoginID: staff.LoginID,
		Name:    staff.Name,
		Role:    staff.Role,
	}
}
