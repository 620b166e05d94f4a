package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DH0263/dittonweb-sub000/internal/dto"
	"github.com/DH0263/dittonweb-sub000/internal/model"
	"github.com/DH0263/dittonweb-sub000/internal/period"
	"github.com/DH0263/dittonweb-sub000/internal/repository"
)

// ── 到校模块业务错误 ──

var ErrStudentNotFound = errors.New("学生不存在")

// SchoolService 到校标记业务接口
type SchoolService interface {
	Today(ctx context.Context) (*dto.SchoolAttendanceResponse, error)
	Mark(ctx context.Context, studentID int64) error
	Unmark(ctx context.Context, studentID int64) error
}

type schoolService struct {
	repo   *repository.Repository
	sched  *period.Schedule
	now    Clock
	logger *zap.Logger
}

// NewSchoolService 创建 SchoolService 实例
func NewSchoolService(repo *repository.Repository, sched *period.Schedule, now Clock, logger *zap.Logger) SchoolService {
	return &schoolService{repo: repo, sched: sched, now: now, logger: logger}
}

func (s *schoolService) Today(ctx context.Context) (*dto.SchoolAttendanceResponse, error) {
	today := s.sched.Today(s.now())
	ids, err := s.repo.School.ListStudentIDs(ctx, today)
	if err != nil {
		s.logger.Error("查询到校名单失败", zap.Error(err))
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}
	return &dto.SchoolAttendanceResponse{Date: today.Format(model.DateLayout), StudentIDs: ids}, nil
}

func (s *schoolService) Mark(ctx context.Context, studentID int64) error {
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return err
	}
	if err := s.repo.School.Mark(ctx, studentID, s.sched.Today(s.now())); err != nil {
		s.logger.Error("标记到校失败", zap.Int64("student_id", studentID), zap.Error(err))
		return err
	}
	return nil
}

func (s *schoolService) Unmark(ctx context.Context, studentID int64) error {
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return err
	}
	if err := s.repo.School.Unmark(ctx, studentID, s.sched.Today(s.now())); err != nil {
		s.logger.Error("取消到校失败", zap.Int64("student_id", studentID), zap.Error(err))
		return err
	}
	return nil
}

func (s *schoolService) ensureStudent(ctx context.Context, studentID int64) error {
	if _, err := s.repo.Student.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.Error(err))
		return err
	}
	return nil
}
