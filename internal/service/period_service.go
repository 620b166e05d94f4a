package service

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/DH0263/dittonweb-sub000/internal/dto"
	"github.com/DH0263/dittonweb-sub000/internal/model"
	"github.com/DH0263/dittonweb-sub000/internal/period"
)

const (
	defaultCalendarDays = 7
	maxCalendarDays     = 31
	calendarProductID   = "-//ditton//bell schedule//KO"
)

// PeriodService 教时表查询与铃声日历
type PeriodService interface {
	Current() *dto.CurrentPeriodResponse
	Periods() []dto.PeriodWindowResponse
	// Calendar 生成从今天起 days 天的 iCalendar，每个教时一个 VEVENT
	Calendar(days int) ([]byte, string)
}

type periodService struct {
	sched *period.Schedule
	now   Clock
}

// NewPeriodService 创建 PeriodService 实例
func NewPeriodService(sched *period.Schedule, now Clock) PeriodService {
	return &periodService{sched: sched, now: now}
}

func (s *periodService) Current() *dto.CurrentPeriodResponse {
	now := s.now().In(s.sched.Location())
	resp := &dto.CurrentPeriodResponse{ServerTime: now}
	if p, ok := s.sched.Current(now); ok {
		c := p
		resp.CurrentPeriod = &c
		resp.IsClassTime = true
		if w, ok := s.sched.Window(p); ok {
			resp.Window = &dto.PeriodWindowResponse{Period: w.Period, Start: w.Start, End: w.End}
		}
	}
	return resp
}

func (s *periodService) Periods() []dto.PeriodWindowResponse {
	windows := s.sched.Windows()
	out := make([]dto.PeriodWindowResponse, 0, len(windows))
	for _, w := range windows {
		out = append(out, dto.PeriodWindowResponse{Period: w.Period, Start: w.Start, End: w.End})
	}
	return out
}

// ────────────────────── Calendar ──────────────────────

func (s *periodService) Calendar(days int) ([]byte, string) {
	if days <= 0 {
		days = defaultCalendarDays
	}
	if days > maxCalendarDays {
		days = maxCalendarDays
	}
	now := s.now().In(s.sched.Location())
	start := s.sched.Today(now)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName("자습 교시표")
	cal.SetXWRTimezone(s.sched.Location().String())

	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		for _, w := range s.sched.Windows() {
			begin, ok := s.sched.StartOn(day, w.Period)
			if !ok {
				continue
			}
			end, _ := s.sched.EndOn(day, w.Period)

			uid := fmt.Sprintf("%s-p%d@ditton", day.Format(model.DateLayout), w.Period)
			evt := cal.AddEvent(uid)
			evt.SetDtStampTime(now)
			evt.SetStartAt(begin)
			evt.SetEndAt(end)
			evt.SetSummary(fmt.Sprintf("%d교시", w.Period))
			evt.SetDescription(fmt.Sprintf("%s-%s", w.Start, w.End))
		}
	}

	filename := fmt.Sprintf("bell_%s.ics", start.Format("20060102"))
	return []byte(cal.Serialize()), filename
}

// periodOf 根据时间点推断所属教时，不在任何窗口内返回 0
func periodOf(sched *period.Schedule, t time.Time) int {
	if p, ok := sched.Current(t); ok {
		return p
	}
	return 0
}
