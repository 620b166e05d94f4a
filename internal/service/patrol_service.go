package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DH0263/dittonweb-sub000/internal/dto"
	"github.com/DH0263/dittonweb-sub000/internal/metrics"
	"github.com/DH0263/dittonweb-sub000/internal/model"
	"github.com/DH0263/dittonweb-sub000/internal/period"
	"github.com/DH0263/dittonweb-sub000/internal/repository"
	pkgerrors "github.com/DH0263/dittonweb-sub000/pkg/errors"
)

// ── 巡查模块业务错误 ──

var (
	ErrPatrolNotFound     = errors.New("巡查会话不存在")
	ErrPatrolAlreadyEnded = errors.New("巡查会话已结束")
	ErrPatrolNotActive    = errors.New("巡查会话未在进行中")
	ErrInvalidDate        = errors.New("日期格式应为 YYYY-MM-DD")
)

// ForceEndDefaultNote 强制结束未提供备注时写入的说明
const ForceEndDefaultNote = "강제종료"

const (
	defaultPatrolListLimit = 20
	maxPatrolListLimit     = 100
)

// PatrolService 巡查会话业务接口
type PatrolService interface {
	// Start 开始巡查；当日已有进行中的会话时直接返回该会话（Existing=true）
	Start(ctx context.Context, inspector string) (*dto.StartPatrolResponse, error)
	// Current 当日进行中的会话，没有时返回 nil
	Current(ctx context.Context) (*dto.PatrolResponse, error)
	End(ctx context.Context, id int64, req *dto.EndPatrolRequest) (*dto.EndPatrolResponse, error)
	// ForceEnd 幂等；已结束的会话返回 AlreadyEnded=true
	ForceEnd(ctx context.Context, id int64, notes string) (*dto.ForceEndResponse, error)
	List(ctx context.Context, req *dto.PatrolListRequest) ([]dto.PatrolSummary, error)
}

type patrolService struct {
	repo    *repository.Repository
	locker  Locker
	lockTTL time.Duration
	sched   *period.Schedule
	now     Clock
	logger  *zap.Logger
}

// NewPatrolService 创建 PatrolService 实例，locker 可为 nil
func NewPatrolService(
	repo *repository.Repository,
	locker Locker,
	lockTTL time.Duration,
	sched *period.Schedule,
	now Clock,
	logger *zap.Logger,
) PatrolService {
	if lockTTL <= 0 {
		lockTTL = 5 * time.Second
	}
	return &patrolService{
		repo:    repo,
		locker:  locker,
		lockTTL: lockTTL,
		sched:   sched,
		now:     now,
		logger:  logger,
	}
}

// ────────────────────── Start ──────────────────────

func (s *patrolService) Start(ctx context.Context, inspector string) (*dto.StartPatrolResponse, error) {
	now := s.now().In(s.sched.Location())
	today := s.sched.Today(now)

	// Redis 锁串行化同日的并发开始请求；锁不可用时由部分唯一索引兜底
	if s.locker != nil {
		name := "patrol:start:" + today.Format(model.DateLayout)
		token, err := s.locker.AcquireLock(ctx, name, s.lockTTL)
		if err != nil {
			s.logger.Warn("获取巡查开始锁失败，降级为数据库约束", zap.Error(err))
		} else {
			defer func() {
				if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), name, token); err != nil {
					s.logger.Warn("释放巡查开始锁失败", zap.Error(err))
				}
			}()
		}
	}

	if existing, err := s.repo.Patrol.GetActive(ctx, today); err == nil {
		return &dto.StartPatrolResponse{PatrolResponse: toPatrolResponse(existing), Existing: true}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询进行中的巡查失败", zap.Error(err))
		return nil, err
	}

	patrol := &model.Patrol{
		PatrolDate:    today,
		StartTime:     now,
		InspectorName: strings.TrimSpace(inspector),
	}
	if err := s.repo.Patrol.Create(ctx, patrol); err != nil {
		// 并发创建撞上唯一索引：返回胜出的那一条
		if existing, getErr := s.repo.Patrol.GetActive(ctx, today); getErr == nil {
			return &dto.StartPatrolResponse{PatrolResponse: toPatrolResponse(existing), Existing: true}, nil
		}
		s.logger.Error("创建巡查失败", zap.Error(err))
		return nil, err
	}

	metrics.PatrolsStarted.Inc()
	s.logger.Info("巡查开始", zap.Int64("patrol_id", patrol.ID), zap.String("inspector", patrol.InspectorName))
	return &dto.StartPatrolResponse{PatrolResponse: toPatrolResponse(patrol)}, nil
}

// ────────────────────── Query ──────────────────────

func (s *patrolService) Current(ctx context.Context) (*dto.PatrolResponse, error) {
	patrol, err := s.repo.Patrol.GetActive(ctx, s.sched.Today(s.now()))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询进行中的巡查失败", zap.Error(err))
		return nil, err
	}
	resp := toPatrolResponse(patrol)
	return &resp, nil
}

func (s *patrolService) List(ctx context.Context, req *dto.PatrolListRequest) ([]dto.PatrolSummary, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPatrolListLimit
	}
	if limit > maxPatrolListLimit {
		limit = maxPatrolListLimit
	}
	var day *time.Time
	if req.Date != "" {
		d, err := time.ParseInLocation(model.DateLayout, req.Date, s.sched.Location())
		if err != nil {
			return nil, ErrInvalidDate
		}
		day = &d
	}

	patrols, err := s.repo.Patrol.List(ctx, day, limit)
	if err != nil {
		s.logger.Error("查询巡查历史失败", zap.Error(err))
		return nil, err
	}
	ids := make([]int64, 0, len(patrols))
	for _, p := range patrols {
		ids = append(ids, p.ID)
	}
	counts, err := s.repo.AttitudeCheck.CountByPatrols(ctx, ids)
	if err != nil {
		s.logger.Error("统计态度检查失败", zap.Error(err))
		return nil, err
	}

	out := make([]dto.PatrolSummary, 0, len(patrols))
	for i := range patrols {
		out = append(out, dto.PatrolSummary{
			PatrolResponse: toPatrolResponse(&patrols[i]),
			CheckCount:     counts[patrols[i].ID],
		})
	}
	return out, nil
}

// ────────────────────── End ──────────────────────

func (s *patrolService) End(ctx context.Context, id int64, req *dto.EndPatrolRequest) (*dto.EndPatrolResponse, error) {
	patrol, err := s.getPatrol(ctx, id)
	if err != nil {
		return nil, err
	}
	if !patrol.Active() {
		return nil, ErrPatrolAlreadyEnded
	}

	end := s.now()
	inspector := strings.TrimSpace(req.InspectorName)
	if err := s.repo.Patrol.Finish(ctx, id, end, inspector, req.Notes, false); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrPatrolAlreadyEnded
		}
		s.logger.Error("结束巡查失败", zap.Int64("patrol_id", id), zap.Error(err))
		return nil, err
	}

	patrol.EndTime = &end
	patrol.Notes = req.Notes
	if inspector != "" {
		patrol.InspectorName = inspector
	}
	count, err := s.repo.AttitudeCheck.CountByPatrol(ctx, id)
	if err != nil {
		s.logger.Error("统计态度检查失败", zap.Int64("patrol_id", id), zap.Error(err))
		return nil, err
	}

	metrics.PatrolsEnded.WithLabelValues("submit").Inc()
	s.logger.Info("巡查结束", zap.Int64("patrol_id", id), zap.Int("checks", count))
	return &dto.EndPatrolResponse{
		Patrol:          toPatrolResponse(patrol),
		CheckCount:      count,
		DurationSeconds: int64(end.Sub(patrol.StartTime).Seconds()),
	}, nil
}

func (s *patrolService) ForceEnd(ctx context.Context, id int64, notes string) (*dto.ForceEndResponse, error) {
	patrol, err := s.getPatrol(ctx, id)
	if err != nil {
		return nil, err
	}
	if !patrol.Active() {
		return &dto.ForceEndResponse{Patrol: toPatrolResponse(patrol), AlreadyEnded: true}, nil
	}

	if strings.TrimSpace(notes) == "" {
		notes = ForceEndDefaultNote
	}
	end := s.now()
	if err := s.repo.Patrol.Finish(ctx, id, end, "", notes, true); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			latest, getErr := s.getPatrol(ctx, id)
			if getErr != nil {
				return nil, getErr
			}
			return &dto.ForceEndResponse{Patrol: toPatrolResponse(latest), AlreadyEnded: true}, nil
		}
		s.logger.Error("强制结束巡查失败", zap.Int64("patrol_id", id), zap.Error(err))
		return nil, err
	}

	patrol.EndTime = &end
	patrol.Notes = notes
	patrol.ForceEnded = true
	metrics.PatrolsEnded.WithLabelValues("force").Inc()
	s.logger.Warn("巡查被强制结束", zap.Int64("patrol_id", id), zap.String("notes", notes))
	return &dto.ForceEndResponse{Patrol: toPatrolResponse(patrol)}, nil
}

func (s *patrolService) getPatrol(ctx context.Context, id int64) (*model.Patrol, error) {
	patrol, err := s.repo.Patrol.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatrolNotFound
		}
		s.logger.Error("查询巡查失败", zap.Int64("patrol_id", id), zap.Error(err))
		return nil, err
	}
	return patrol, nil
}

func toPatrolResponse(p *model.Patrol) dto.PatrolResponse {
	return dto.PatrolResponse{
		ID:            p.ID,
		PatrolDate:    p.PatrolDate.Format(model.DateLayout),
		StartTime:     p.StartTime,
		EndTime:       p.EndTime,
		InspectorName: p.InspectorName,
		Notes:         p.Notes,
		ForceEnded:    p.ForceEnded,
	}
}
