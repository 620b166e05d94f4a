package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DH0263/dittonweb-sub000/internal/dto"
	"github.com/DH0263/dittonweb-sub000/internal/metrics"
	"github.com/DH0263/dittonweb-sub000/internal/model"
	"github.com/DH0263/dittonweb-sub000/internal/period"
	"github.com/DH0263/dittonweb-sub000/internal/repository"
)

// ── 态度检查模块业务错误 ──

var (
	ErrCheckNotFound   = errors.New("态度检查记录不存在")
	ErrCheckFinalized  = errors.New("所属巡查已结束，记录不可删除")
	ErrInvalidCategory = errors.New("态度类别无效")
)

// AttitudeCheckService 态度检查业务接口
type AttitudeCheckService interface {
	Create(ctx context.Context, req *dto.CreateAttitudeCheckRequest) (*dto.AttitudeCheckResponse, error)
	ListByPatrol(ctx context.Context, patrolID int64) ([]dto.AttitudeCheckResponse, error)
	Delete(ctx context.Context, id int64) error
	Today(ctx context.Context) ([]dto.AttitudeCheckResponse, error)
}

type attitudeCheckService struct {
	repo   *repository.Repository
	sched  *period.Schedule
	now    Clock
	logger *zap.Logger
}

// NewAttitudeCheckService 创建 AttitudeCheckService 实例
func NewAttitudeCheckService(repo *repository.Repository, sched *period.Schedule, now Clock, logger *zap.Logger) AttitudeCheckService {
	return &attitudeCheckService{repo: repo, sched: sched, now: now, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *attitudeCheckService) Create(ctx context.Context, req *dto.CreateAttitudeCheckRequest) (*dto.AttitudeCheckResponse, error) {
	if !validCategory(req.Category) {
		return nil, ErrInvalidCategory
	}

	patrol, err := s.repo.Patrol.GetByID(ctx, req.PatrolID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatrolNotFound
		}
		s.logger.Error("查询巡查失败", zap.Error(err))
		return nil, err
	}
	if !patrol.Active() {
		return nil, ErrPatrolNotActive
	}

	student, err := s.repo.Student.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.Error(err))
		return nil, err
	}

	checkTime := s.now()
	if req.CheckTime != nil && !req.CheckTime.IsZero() {
		checkTime = *req.CheckTime
	}
	check := &model.AttitudeCheck{
		StudentID:   req.StudentID,
		PatrolID:    req.PatrolID,
		CheckDate:   s.sched.Today(checkTime),
		CheckTime:   checkTime,
		Category:    req.Category,
		Note:        strings.TrimSpace(req.Note),
		CheckerName: strings.TrimSpace(req.CheckerName),
	}
	if err := s.repo.AttitudeCheck.Create(ctx, check); err != nil {
		s.logger.Error("创建态度检查失败", zap.Error(err))
		return nil, err
	}
	check.Student = student

	metrics.AttitudeChecks.WithLabelValues(check.Category).Inc()
	resp := toAttitudeCheckResponse(check)
	return &resp, nil
}

// ────────────────────── Query ──────────────────────

func (s *attitudeCheckService) ListByPatrol(ctx context.Context, patrolID int64) ([]dto.AttitudeCheckResponse, error) {
	if _, err := s.repo.Patrol.GetByID(ctx, patrolID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatrolNotFound
		}
		s.logger.Error("查询巡查失败", zap.Error(err))
		return nil, err
	}
	checks, err := s.repo.AttitudeCheck.ListByPatrol(ctx, patrolID)
	if err != nil {
		s.logger.Error("查询态度检查失败", zap.Int64("patrol_id", patrolID), zap.Error(err))
		return nil, err
	}
	return toAttitudeCheckResponses(checks), nil
}

func (s *attitudeCheckService) Today(ctx context.Context) ([]dto.AttitudeCheckResponse, error) {
	checks, err := s.repo.AttitudeCheck.ListByDate(ctx, s.sched.Today(s.now()))
	if err != nil {
		s.logger.Error("查询当日态度检查失败", zap.Error(err))
		return nil, err
	}
	return toAttitudeCheckResponses(checks), nil
}

// ────────────────────── Delete ──────────────────────

func (s *attitudeCheckService) Delete(ctx context.Context, id int64) error {
	check, err := s.repo.AttitudeCheck.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCheckNotFound
		}
		s.logger.Error("查询态度检查失败", zap.Error(err))
		return err
	}

	// 已结束会话的记录只读
	patrol, err := s.repo.Patrol.GetByID(ctx, check.PatrolID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询巡查失败", zap.Error(err))
		return err
	}
	if patrol != nil && !patrol.Active() {
		return ErrCheckFinalized
	}

	if err := s.repo.AttitudeCheck.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCheckNotFound
		}
		s.logger.Error("删除态度检查失败", zap.Int64("check_id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 辅助函数 ──

func validCategory(c string) bool {
	for _, v := range model.AttitudeCategories {
		if v == c {
			return true
		}
	}
	return false
}

func toAttitudeCheckResponse(c *model.AttitudeCheck) dto.AttitudeCheckResponse {
	resp := dto.AttitudeCheckResponse{
		ID:          c.ID,
		StudentID:   c.StudentID,
		PatrolID:    c.PatrolID,
		CheckDate:   c.CheckDate.Format(model.DateLayout),
		CheckTime:   c.CheckTime,
		Category:    c.Category,
		Note:        c.Note,
		CheckerName: c.CheckerName,
	}
	if c.Student != nil {
		resp.StudentName = c.Student.Name
		resp.SeatNumber = c.Student.Seat()
	}
	return resp
}

func toAttitudeCheckResponses(checks []model.AttitudeCheck) []dto.AttitudeCheckResponse {
	out := make([]dto.AttitudeCheckResponse, 0, len(checks))
	for i := range checks {
		out = append(out, toAttitudeCheckResponse(&checks[i]))
	}
	return out
}
