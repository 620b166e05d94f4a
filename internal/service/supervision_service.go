package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/DH0263/dittonweb-sub000/internal/dto"
	"github.com/DH0263/dittonweb-sub000/internal/model"
	"github.com/DH0263/dittonweb-sub000/internal/period"
	"github.com/DH0263/dittonweb-sub000/internal/repository"
)

// 基线状态码
const (
	StatusStudying   = "studying"
	StatusAbsent     = "absent"
	StatusLate       = "late"
	StatusOnSchedule = "on_schedule"
	StatusSchool     = "school"
)

// SupervisionService 监督面板业务接口
type SupervisionService interface {
	// CurrentStatus 名册 + 每名学生的基线状态 + 当日态度标记
	CurrentStatus(ctx context.Context) (*dto.SupervisionDashboard, error)
}

type supervisionService struct {
	repo   *repository.Repository
	sched  *period.Schedule
	now    Clock
	logger *zap.Logger
}

// NewSupervisionService 创建 SupervisionService 实例
func NewSupervisionService(repo *repository.Repository, sched *period.Schedule, now Clock, logger *zap.Logger) SupervisionService {
	return &supervisionService{repo: repo, sched: sched, now: now, logger: logger}
}

func (s *supervisionService) CurrentStatus(ctx context.Context) (*dto.SupervisionDashboard, error) {
	now := s.now().In(s.sched.Location())
	today := s.sched.Today(now)

	students, err := s.repo.Student.ListEnrolled(ctx)
	if err != nil {
		s.logger.Error("查询在籍学生失败", zap.Error(err))
		return nil, err
	}
	records, err := s.repo.Attendance.ListByDate(ctx, today)
	if err != nil {
		s.logger.Error("查询当日出勤失败", zap.Error(err))
		return nil, err
	}
	checked, err := s.repo.AttitudeCheck.StudentsCheckedOn(ctx, today)
	if err != nil {
		s.logger.Error("查询当日态度检查失败", zap.Error(err))
		return nil, err
	}

	// student_id → period → 存储名称
	byStudent := make(map[int64]map[int]string)
	for _, r := range records {
		if byStudent[r.StudentID] == nil {
			byStudent[r.StudentID] = make(map[int]string)
		}
		byStudent[r.StudentID][r.Period] = r.Status
	}

	cur, inClass := s.sched.Current(now)
	resp := &dto.SupervisionDashboard{
		Students:      make([]dto.StudentStatus, 0, len(students)),
		CurrentTime:   now,
		TotalStudents: len(students),
	}
	if inClass {
		c := cur
		resp.CurrentPeriod = &c
	}

	for _, st := range students {
		status := baselineStatus(byStudent[st.ID], cur, inClass)
		switch status {
		case StatusAbsent:
			resp.AbsentCount++
		case StatusOnSchedule, StatusSchool:
			resp.OnScheduleCount++
		default:
			resp.PresentCount++
		}
		resp.Students = append(resp.Students, dto.StudentStatus{
			ID:              st.ID,
			Name:            st.Name,
			SeatNumber:      st.Seat(),
			StudentType:     st.StudentType,
			CurrentStatus:   status,
			AttitudeWarning: checked[st.ID],
		})
	}
	return resp, nil
}

// baselineStatus 当前教时的记录优先，否则取当日最晚教时的记录，无记录视为缺席
func baselineStatus(byPeriod map[int]string, cur int, inClass bool) string {
	if len(byPeriod) == 0 {
		return StatusAbsent
	}
	if inClass {
		if name, ok := byPeriod[cur]; ok {
			return model.AttendanceStatusCode(name)
		}
	}
	latest := 0
	for p := range byPeriod {
		if p > latest {
			latest = p
		}
	}
	return model.AttendanceStatusCode(byPeriod[latest])
}
