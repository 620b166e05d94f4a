package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/DH0263/dittonweb-sub000/internal/dto"
	"github.com/DH0263/dittonweb-sub000/internal/metrics"
	"github.com/DH0263/dittonweb-sub000/internal/model"
	"github.com/DH0263/dittonweb-sub000/internal/period"
	"github.com/DH0263/dittonweb-sub000/internal/repository"
)

// DefaultPhoneChecker 未提供 checked_by 时的记录人
const DefaultPhoneChecker = "감독자"

// PhoneService 分教时手机上交业务接口
type PhoneService interface {
	BulkUpsert(ctx context.Context, q *dto.PeriodQuery, req *dto.BulkPhoneRequest) (*dto.BulkResult, error)
	TodayByPeriod(ctx context.Context) (dto.PhoneByPeriod, error)
}

type phoneService struct {
	repo   *repository.Repository
	sched  *period.Schedule
	now    Clock
	logger *zap.Logger
}

// NewPhoneService 创建 PhoneService 实例
func NewPhoneService(repo *repository.Repository, sched *period.Schedule, now Clock, logger *zap.Logger) PhoneService {
	return &phoneService{repo: repo, sched: sched, now: now, logger: logger}
}

func (s *phoneService) BulkUpsert(ctx context.Context, q *dto.PeriodQuery, req *dto.BulkPhoneRequest) (*dto.BulkResult, error) {
	now := s.now()
	if err := checkPeriod(s.sched, q.Period, q.Force, now, "phone"); err != nil {
		return nil, err
	}
	if len(req.Submissions) == 0 {
		return nil, ErrEmptyBatch
	}

	ids := make([]int64, 0, len(req.Submissions))
	seen := make(map[int64]bool, len(req.Submissions))
	for _, sub := range req.Submissions {
		if seen[sub.StudentID] {
			return nil, ErrDuplicateStudents
		}
		seen[sub.StudentID] = true
		ids = append(ids, sub.StudentID)
	}
	if err := ensureStudents(ctx, s.repo, ids); err != nil {
		if !errors.Is(err, ErrUnknownStudent) {
			s.logger.Error("校验学生失败", zap.Error(err))
		}
		return nil, err
	}

	checkedBy := strings.TrimSpace(req.CheckedBy)
	if checkedBy == "" {
		checkedBy = DefaultPhoneChecker
	}
	today := s.sched.Today(now)
	rows := make([]model.PhoneSubmission, 0, len(req.Submissions))
	for _, sub := range req.Submissions {
		rows = append(rows, model.PhoneSubmission{
			StudentID:   sub.StudentID,
			SubmitDate:  today,
			Period:      q.Period,
			IsSubmitted: sub.IsSubmitted,
			CheckedBy:   checkedBy,
		})
	}
	if err := s.repo.Phone.Upsert(ctx, rows); err != nil {
		s.logger.Error("批量写入手机上交失败", zap.Int("period", q.Period), zap.Error(err))
		return nil, err
	}

	metrics.BulkRecords.WithLabelValues("phone", strconv.FormatBool(q.Force)).Add(float64(len(rows)))
	s.logger.Info("批量写入手机上交",
		zap.Int("period", q.Period),
		zap.Int("count", len(rows)),
		zap.String("checked_by", checkedBy),
		zap.Bool("force", q.Force),
	)
	return &dto.BulkResult{
		Period: q.Period,
		Date:   today.Format(model.DateLayout),
		Saved:  len(rows),
		Forced: q.Force,
	}, nil
}

func (s *phoneService) TodayByPeriod(ctx context.Context) (dto.PhoneByPeriod, error) {
	subs, err := s.repo.Phone.ListByDate(ctx, s.sched.Today(s.now()))
	if err != nil {
		s.logger.Error("查询当日手机上交失败", zap.Error(err))
		return nil, err
	}
	out := make(dto.PhoneByPeriod)
	for _, sub := range subs {
		if out[sub.StudentID] == nil {
			out[sub.StudentID] = make(map[int]bool)
		}
		out[sub.StudentID][sub.Period] = sub.IsSubmitted
	}
	return out, nil
}
