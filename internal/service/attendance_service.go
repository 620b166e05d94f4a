package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/DH0263/dittonweb-sub000/internal/dto"
	"github.com/DH0263/dittonweb-sub000/internal/metrics"
	"github.com/DH0263/dittonweb-sub000/internal/model"
	"github.com/DH0263/dittonweb-sub000/internal/period"
	"github.com/DH0263/dittonweb-sub000/internal/repository"
	pkgerrors "github.com/DH0263/dittonweb-sub000/pkg/errors"
)

// ── 分教时记录模块业务错误 ──

var (
	ErrInvalidPeriod     = errors.New("教时必须在 1-7 之间")
	ErrInvalidStatus     = errors.New("出勤状态无效")
	ErrUnknownStudent    = errors.New("包含不存在或已退学的学生")
	ErrEmptyBatch        = errors.New("提交内容为空")
	ErrDuplicateStudents = errors.New("同一批次中学生重复")
)

// AttendanceService 分教时出勤业务接口
type AttendanceService interface {
	// BulkUpsert 批量写入某教时出勤；force=false 时校验教时与当前时钟一致
	BulkUpsert(ctx context.Context, q *dto.PeriodQuery, req *dto.BulkAttendanceRequest) (*dto.BulkResult, error)
	TodayByPeriod(ctx context.Context) (dto.AttendanceByPeriod, error)
	Completion(ctx context.Context, p int) (*dto.CompletionResponse, error)
	// ConvertLate 将当日 before 之前各教时的迟到记录改为自习中
	ConvertLate(ctx context.Context, before int) (int64, error)
}

type attendanceService struct {
	repo   *repository.Repository
	sched  *period.Schedule
	now    Clock
	logger *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(repo *repository.Repository, sched *period.Schedule, now Clock, logger *zap.Logger) AttendanceService {
	return &attendanceService{repo: repo, sched: sched, now: now, logger: logger}
}

// ────────────────────── BulkUpsert ──────────────────────

func (s *attendanceService) BulkUpsert(ctx context.Context, q *dto.PeriodQuery, req *dto.BulkAttendanceRequest) (*dto.BulkResult, error) {
	now := s.now()
	if err := checkPeriod(s.sched, q.Period, q.Force, now, "attendance"); err != nil {
		return nil, err
	}
	if len(req.Records) == 0 {
		return nil, ErrEmptyBatch
	}

	ids := make([]int64, 0, len(req.Records))
	seen := make(map[int64]bool, len(req.Records))
	for _, r := range req.Records {
		if !model.ValidAttendanceStatus(r.Status) {
			return nil, ErrInvalidStatus
		}
		if seen[r.StudentID] {
			return nil, ErrDuplicateStudents
		}
		seen[r.StudentID] = true
		ids = append(ids, r.StudentID)
	}
	if err := ensureStudents(ctx, s.repo, ids); err != nil {
		if !errors.Is(err, ErrUnknownStudent) {
			s.logger.Error("校验学生失败", zap.Error(err))
		}
		return nil, err
	}

	today := s.sched.Today(now)
	rows := make([]model.AttendanceRecord, 0, len(req.Records))
	for _, r := range req.Records {
		rows = append(rows, model.AttendanceRecord{
			StudentID:  r.StudentID,
			RecordDate: today,
			Period:     q.Period,
			Status:     r.Status,
		})
	}
	if err := s.repo.Attendance.Upsert(ctx, rows); err != nil {
		s.logger.Error("批量写入出勤失败", zap.Int("period", q.Period), zap.Error(err))
		return nil, err
	}

	metrics.BulkRecords.WithLabelValues("attendance", strconv.FormatBool(q.Force)).Add(float64(len(rows)))
	s.logger.Info("批量写入出勤",
		zap.Int("period", q.Period),
		zap.Int("count", len(rows)),
		zap.Bool("force", q.Force),
	)
	return &dto.BulkResult{
		Period: q.Period,
		Date:   today.Format(model.DateLayout),
		Saved:  len(rows),
		Forced: q.Force,
	}, nil
}

// ────────────────────── Query ──────────────────────

func (s *attendanceService) TodayByPeriod(ctx context.Context) (dto.AttendanceByPeriod, error) {
	records, err := s.repo.Attendance.ListByDate(ctx, s.sched.Today(s.now()))
	if err != nil {
		s.logger.Error("查询当日出勤失败", zap.Error(err))
		return nil, err
	}
	out := make(dto.AttendanceByPeriod)
	for _, r := range records {
		if out[r.StudentID] == nil {
			out[r.StudentID] = make(map[int]string)
		}
		out[r.StudentID][r.Period] = r.Status
	}
	return out, nil
}

func (s *attendanceService) Completion(ctx context.Context, p int) (*dto.CompletionResponse, error) {
	if !period.Valid(p) {
		return nil, ErrInvalidPeriod
	}
	today := s.sched.Today(s.now())

	students, err := s.repo.Student.ListEnrolled(ctx)
	if err != nil {
		s.logger.Error("查询在籍学生失败", zap.Error(err))
		return nil, err
	}
	records, err := s.repo.Attendance.ListByDatePeriod(ctx, today, p)
	if err != nil {
		s.logger.Error("查询教时出勤失败", zap.Int("period", p), zap.Error(err))
		return nil, err
	}

	recorded := make(map[int64]bool, len(records))
	for _, r := range records {
		recorded[r.StudentID] = true
	}
	resp := &dto.CompletionResponse{
		Period:        p,
		Date:          today.Format(model.DateLayout),
		TotalStudents: len(students),
		MissingIDs:    []int64{},
	}
	for _, st := range students {
		if recorded[st.ID] {
			resp.RecordedCount++
		} else {
			resp.MissingIDs = append(resp.MissingIDs, st.ID)
		}
	}
	resp.MissingCount = len(resp.MissingIDs)
	resp.IsComplete = resp.MissingCount == 0
	return resp, nil
}

// ────────────────────── ConvertLate ──────────────────────

func (s *attendanceService) ConvertLate(ctx context.Context, before int) (int64, error) {
	today := s.sched.Today(s.now())
	var total int64
	for p := period.First; p < before && p <= period.Last; p++ {
		n, err := s.repo.Attendance.ConvertStatus(ctx, today, p, model.AttendanceLate, model.AttendanceStudying)
		if err != nil {
			s.logger.Error("迟到转换失败", zap.Int("period", p), zap.Error(err))
			return total, err
		}
		total += n
	}
	if total > 0 {
		metrics.LateConversions.Add(float64(total))
	}
	return total, nil
}

// ── 辅助函数 ──

// checkPeriod 校验教时编号，并在非强制提交时校验与当前时钟教时一致
func checkPeriod(sched *period.Schedule, p int, force bool, now time.Time, kind string) error {
	if !period.Valid(p) {
		return ErrInvalidPeriod
	}
	if force {
		return nil
	}
	v := sched.Validate(p, now)
	if v.IsCurrent {
		return nil
	}
	metrics.PeriodMismatch.WithLabelValues(kind).Inc()
	return &pkgerrors.PeriodMismatchError{
		Requested: p,
		Current:   v.CurrentPeriod,
		Message:   v.Message,
	}
}

// ensureStudents 校验所有学生存在且在籍
func ensureStudents(ctx context.Context, repo *repository.Repository, ids []int64) error {
	existing, err := repo.Student.ExistingIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if !existing[id] {
			return ErrUnknownStudent
		}
	}
	return nil
}
