package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DH0263/dittonweb-sub000/config"
	"github.com/DH0263/dittonweb-sub000/internal/period"
	"github.com/DH0263/dittonweb-sub000/internal/repository"
	"github.com/DH0263/dittonweb-sub000/pkg/jwt"
	pkgredis "github.com/DH0263/dittonweb-sub000/pkg/redis"
)

// Clock 当前时间来源，测试中替换
type Clock func() time.Time

// Locker 短期分布式锁（Redis 实现）
type Locker interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (string, error)
	ReleaseLock(ctx context.Context, name, token string) error
}

// TokenBlacklist Token 黑名单（Redis 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth          AuthService
	Supervision   SupervisionService
	Attendance    AttendanceService
	Phone         PhoneService
	School        SchoolService
	Patrol        PatrolService
	AttitudeCheck AttitudeCheckService
	Period        PeriodService
	Export        ExportService
}

// NewService 创建 Service 聚合
// rdb 为 nil 时黑名单与巡查开始锁降级为不可用（仅依赖数据库约束）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	rdb *pkgredis.Client,
	jwtMgr *jwt.Manager,
	sched *period.Schedule,
	logger *zap.Logger,
) *Service {
	var (
		locker    Locker
		blacklist TokenBlacklist
	)
	if rdb != nil {
		locker = rdb
		blacklist = rdb
	}
	clock := Clock(time.Now)

	return &Service{
		Auth:          NewAuthService(repo, jwtMgr, blacklist, logger),
		Supervision:   NewSupervisionService(repo, sched, clock, logger),
		Attendance:    NewAttendanceService(repo, sched, clock, logger),
		Phone:         NewPhoneService(repo, sched, clock, logger),
		School:        NewSchoolService(repo, sched, clock, logger),
		Patrol:        NewPatrolService(repo, locker, cfg.Supervision.PatrolStartLockTTL, sched, clock, logger),
		AttitudeCheck: NewAttitudeCheckService(repo, sched, clock, logger),
		Period:        NewPeriodService(sched, clock),
		Export:        NewExportService(repo, sched, clock, logger),
	}
}
