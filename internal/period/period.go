// Package period 描述一天七个教时的时间窗口，并据墙钟时间判断当前教时。
package period

import (
	"fmt"
	"sort"
	"time"
	_ "time/tzdata"

	"github.com/DH0263/dittonweb-sub000/config"
)

// First / Last 教时编号范围
const (
	First = 1
	Last  = 7
)

// NotClassTimeMessage 当前不在任何教时窗口内时的提示
const NotClassTimeMessage = "not class time"

// Window 单个教时的起止时间（HH:MM，含两端）
type Window struct {
	Period int    `json:"period"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// Contains 判断 HH:MM 是否落在窗口内；零填充的字符串可直接按字典序比较
func (w Window) Contains(hhmm string) bool {
	return w.Start <= hhmm && hhmm <= w.End
}

// Schedule 教时表
type Schedule struct {
	windows []Window
	loc     *time.Location
}

// NewSchedule 创建教时表，loc 为 nil 时使用 time.Local
func NewSchedule(windows []Window, loc *time.Location) *Schedule {
	ws := make([]Window, len(windows))
	copy(ws, windows)
	sort.Slice(ws, func(i, j int) bool { return ws[i].Period < ws[j].Period })
	if loc == nil {
		loc = time.Local
	}
	return &Schedule{windows: ws, loc: loc}
}

// FromConfig 由监督配置构建教时表
func FromConfig(cfg *config.SupervisionConfig) *Schedule {
	windows := make([]Window, 0, len(cfg.Periods))
	for _, p := range cfg.Periods {
		windows = append(windows, Window{Period: p.Period, Start: p.Start, End: p.End})
	}
	return NewSchedule(windows, cfg.Location())
}

// Default 默认七教时表（Asia/Seoul）
func Default() *Schedule {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		loc = time.UTC
	}
	windows := make([]Window, 0, len(config.DefaultPeriods))
	for _, p := range config.DefaultPeriods {
		windows = append(windows, Window{Period: p.Period, Start: p.Start, End: p.End})
	}
	return NewSchedule(windows, loc)
}

// Location 教时表所用时区
func (s *Schedule) Location() *time.Location {
	return s.loc
}

// Windows 返回全部窗口的副本
func (s *Schedule) Windows() []Window {
	out := make([]Window, len(s.windows))
	copy(out, s.windows)
	return out
}

// Window 查找指定教时
func (s *Schedule) Window(p int) (Window, bool) {
	for _, w := range s.windows {
		if w.Period == p {
			return w, true
		}
	}
	return Window{}, false
}

// Current 返回 t 所在的教时；不在任何窗口内时 ok=false
func (s *Schedule) Current(t time.Time) (int, bool) {
	hhmm := t.In(s.loc).Format("15:04")
	for _, w := range s.windows {
		if w.Contains(hhmm) {
			return w.Period, true
		}
	}
	return 0, false
}

// Today 返回 t 在教时表时区下的日期（零点）
func (s *Schedule) Today(t time.Time) time.Time {
	lt := t.In(s.loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, s.loc)
}

// StartOn 指定日期某教时的开始时刻
func (s *Schedule) StartOn(day time.Time, p int) (time.Time, bool) {
	w, ok := s.Window(p)
	if !ok {
		return time.Time{}, false
	}
	return s.at(day, w.Start), true
}

// EndOn 指定日期某教时的结束时刻
func (s *Schedule) EndOn(day time.Time, p int) (time.Time, bool) {
	w, ok := s.Window(p)
	if !ok {
		return time.Time{}, false
	}
	return s.at(day, w.End), true
}

func (s *Schedule) at(day time.Time, hhmm string) time.Time {
	hm, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}
	}
	d := day.In(s.loc)
	return time.Date(d.Year(), d.Month(), d.Day(), hm.Hour(), hm.Minute(), 0, 0, s.loc)
}

// Validation 教时校验结果
type Validation struct {
	IsCurrent     bool   `json:"is_current"`
	CurrentPeriod *int   `json:"current_period"`
	Message       string `json:"message,omitempty"`
}

// Validate 判断请求的教时是否就是 t 时刻的当前教时
func (s *Schedule) Validate(requested int, t time.Time) Validation {
	cur, ok := s.Current(t)
	if !ok {
		return Validation{IsCurrent: false, Message: NotClassTimeMessage}
	}
	if cur != requested {
		c := cur
		return Validation{
			IsCurrent:     false,
			CurrentPeriod: &c,
			Message:       MismatchMessage(cur, requested),
		}
	}
	c := cur
	return Validation{IsCurrent: true, CurrentPeriod: &c}
}

// MismatchMessage 教时不一致时给值班老师看的提示
func MismatchMessage(current, requested int) string {
	return fmt.Sprintf("현재는 %d교시입니다. %d교시로 기록하시겠습니까?", current, requested)
}

// Valid 教时编号是否在 1..7
func Valid(p int) bool {
	return p >= First && p <= Last
}
