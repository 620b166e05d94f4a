package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DH0263/dittonweb-sub000/internal/period"
)

// Options 控制器参数
type Options struct {
	Roster         RosterOptions
	DefaultChecker string
}

// Controller 监督控制台的状态机
// 所有状态由 mu 保护；网络调用期间不持有锁
type Controller struct {
	backend  Backend
	schedule *period.Schedule
	clock    Clock
	markers  MarkerStore
	patrol   *PatrolManager
	beacon   *Beacon
	opts     Options
	logger   *zap.Logger

	attendanceGuard *ConflictGuard[Status]
	phoneGuard      *ConflictGuard[bool]

	mu                   sync.Mutex
	mode                 Mode
	roster               *RosterIndex
	lastAttendancePeriod int
	lastPhonePeriod      int
	submitting           bool
	phoneCheckedBy       string
	banner               *ForceEndMarker
}

// NewController 创建控制器
func NewController(backend Backend, sender ForceEndSender, markers MarkerStore, schedule *period.Schedule, clock Clock, opts Options, logger *zap.Logger) *Controller {
	if clock == nil {
		clock = SystemClock{}
	}
	if opts.Roster.Location == nil {
		opts.Roster.Location = schedule.Location()
	}
	patrol := NewPatrolManager(backend, markers, clock, logger)

	c := &Controller{
		backend:              backend,
		schedule:             schedule,
		clock:                clock,
		markers:              markers,
		patrol:               patrol,
		beacon:               NewBeacon(patrol, markers, sender, clock, logger),
		opts:                 opts,
		logger:               logger,
		mode:                 ViewMode{},
		roster:               NewRosterIndex(Snapshot{}, opts.Roster),
		lastAttendancePeriod: period.First,
		lastPhonePeriod:      period.First,
	}
	c.attendanceGuard = NewConflictGuard(c.sendAttendance)
	c.phoneGuard = NewConflictGuard(c.sendPhone)
	return c
}

func (c *Controller) sendAttendance(ctx context.Context, p int, entries []Entry[Status], force bool) error {
	return c.backend.SubmitAttendance(ctx, p, entries, force)
}

func (c *Controller) sendPhone(ctx context.Context, p int, entries []Entry[bool], force bool) error {
	c.mu.Lock()
	checkedBy := c.phoneCheckedBy
	c.mu.Unlock()
	return c.backend.SubmitPhone(ctx, p, entries, checkedBy, force)
}

// ════════════════════════════════════════════════════════════
// 加载与刷新
// ════════════════════════════════════════════════════════════

// Load 启动时调用：读取强制结束标记、拉取快照、接管进行中的巡查
func (c *Controller) Load(ctx context.Context) error {
	var errs []error

	marker, err := c.markers.Load()
	if err != nil {
		errs = append(errs, err)
	}
	c.mu.Lock()
	c.banner = marker
	c.mu.Unlock()

	if err := c.Refresh(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := c.patrol.Load(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Refresh 重新拉取名册与当日记录；只替换快照，从不触碰覆盖层
func (c *Controller) Refresh(ctx context.Context) error {
	students, err := c.backend.FetchRoster(ctx)
	if err != nil {
		return fmt.Errorf("获取名册失败: %w", err)
	}
	attendance, err := c.backend.FetchAttendanceByPeriod(ctx)
	if err != nil {
		return fmt.Errorf("获取出勤记录失败: %w", err)
	}
	phone, err := c.backend.FetchPhoneByPeriod(ctx)
	if err != nil {
		return fmt.Errorf("获取手机上交记录失败: %w", err)
	}
	school, err := c.backend.FetchSchoolAttendance(ctx)
	if err != nil {
		return fmt.Errorf("获取到校名单失败: %w", err)
	}

	idx := NewRosterIndex(Snapshot{
		Students:   students,
		Attendance: attendance,
		Phone:      phone,
		School:     school,
		FetchedAt:  c.clock.Now(),
	}, c.opts.Roster)

	c.mu.Lock()
	c.roster = idx
	c.mu.Unlock()
	return nil
}

// Roster 当前快照索引（不可变）
func (c *Controller) Roster() *RosterIndex {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roster
}

// ════════════════════════════════════════════════════════════
// 模式切换
// ════════════════════════════════════════════════════════════

// EnterAttendance 进入出勤记录；仅可从查看模式进入
func (c *Controller) EnterAttendance() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode.Kind() != ModeView {
		return ErrModeLocked
	}
	p := c.autoPeriodLocked(c.lastAttendancePeriod)
	m := &AttendanceMode{Period: p, Overlay: NewOverlay[Status](TrackerAttendance, p)}
	c.seedLocked(m)
	c.mode = m
	c.lastAttendancePeriod = p
	return nil
}

// EnterPhone 进入手机上交记录；仅可从查看模式进入
func (c *Controller) EnterPhone() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode.Kind() != ModeView {
		return ErrModeLocked
	}
	p := c.autoPeriodLocked(c.lastPhonePeriod)
	c.mode = &PhoneMode{Period: p, Overlay: NewOverlay[bool](TrackerPhone, p)}
	c.lastPhonePeriod = p
	return nil
}

// autoPeriodLocked 当前时刻落在某教时内则选中它，否则沿用上次选择
func (c *Controller) autoPeriodLocked(last int) int {
	if cur, ok := c.schedule.Current(c.clock.Now()); ok {
		return cur
	}
	return last
}

// seedLocked 1 教时预填：无 1 教时记录的学生默认自习中，到校的高中生除外
func (c *Controller) seedLocked(m *AttendanceMode) {
	if m.Period != period.First {
		return
	}
	now := c.clock.Now()
	for _, st := range c.roster.Students() {
		if _, ok := c.roster.StoredStatus(st.ID, period.First); ok {
			continue
		}
		if c.roster.IsSchoolFlagged(st.ID, now) {
			continue
		}
		m.Overlay.Set(st.ID, StatusStudying)
	}
}

// SelectPeriod 切换记录器教时；丢弃覆盖层并重置子模式
func (c *Controller) SelectPeriod(p int) error {
	if !period.Valid(p) {
		return ErrInvalidPeriod
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return ErrSubmitInFlight
	}
	switch m := c.mode.(type) {
	case *AttendanceMode:
		c.attendanceGuard.Decline()
		m.Period = p
		m.Overlay.Reset(p)
		m.Submode = SubmodeDefault
		c.seedLocked(m)
		c.lastAttendancePeriod = p
	case *PhoneMode:
		c.phoneGuard.Decline()
		m.Period = p
		m.Overlay.Reset(p)
		c.lastPhonePeriod = p
	default:
		return ErrWrongMode
	}
	return nil
}

// SetAttendanceSubmode 切换出勤子模式；迟到批量仅限 1 教时
func (c *Controller) SetAttendanceSubmode(s AttendanceSubmode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.mode.(*AttendanceMode)
	if !ok {
		return ErrWrongMode
	}
	if c.submitting {
		return ErrSubmitInFlight
	}
	if s == SubmodeLateBatch && m.Period != period.First {
		return ErrLateBatchPeriod
	}
	m.Submode = s
	return nil
}

// CancelTracker 放弃当前记录器的修改并回到查看模式（纯本地）
func (c *Controller) CancelTracker() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return ErrSubmitInFlight
	}
	switch c.mode.(type) {
	case *AttendanceMode:
		c.attendanceGuard.Decline()
	case *PhoneMode:
		c.phoneGuard.Decline()
	default:
		return ErrWrongMode
	}
	c.mode = ViewMode{}
	return nil
}

// ════════════════════════════════════════════════════════════
// 座位点击
// ════════════════════════════════════════════════════════════

// TapAction 点击座位后的动作
type TapAction int

const (
	TapNone TapAction = iota
	TapEmptySeat
	TapShowStatus
	TapPromptObservation
	TapChooseAttendance
	TapUpdated
)

// TapResult 点击结果
type TapResult struct {
	Action  TapAction
	SeatID  string
	Student *Student
	Status  Status
	Phone   bool
}

// TapSeat 按当前模式处理座位点击
func (c *Controller) TapSeat(seatID string) (TapResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := TapResult{SeatID: seatID}
	st, ok := c.roster.BySeat(seatID)
	if !ok {
		res.Action = TapEmptySeat
		return res, nil
	}
	res.Student = &st
	now := c.clock.Now()

	switch m := c.mode.(type) {
	case ViewMode:
		res.Action = TapShowStatus
		res.Status = c.roster.CurrentStatus(st.ID, now)
		return res, nil

	case PatrolMode:
		res.Action = TapPromptObservation
		res.Status = c.roster.CurrentStatus(st.ID, now)
		return res, nil

	case *AttendanceMode:
		if err := c.trackerBusyLocked(c.attendanceGuard.Pending() != nil); err != nil {
			return res, err
		}
		resolved := c.resolveAttendanceLocked(m, st.ID)
		switch m.Submode {
		case SubmodeLateBatch:
			next := StatusLate
			if v, ok := m.Overlay.Get(st.ID); ok && v == StatusLate {
				next = StatusStudying
			}
			m.Overlay.Set(st.ID, next)
			res.Action = TapUpdated
			res.Status = next
		case SubmodeLateToStudying:
			res.Status = resolved
			if resolved == StatusLate {
				m.Overlay.Set(st.ID, StatusStudying)
				res.Action = TapUpdated
				res.Status = StatusStudying
			}
		default:
			res.Action = TapChooseAttendance
			res.Status = resolved
		}
		return res, nil

	case *PhoneMode:
		if err := c.trackerBusyLocked(c.phoneGuard.Pending() != nil); err != nil {
			return res, err
		}
		next := !c.resolvePhoneLocked(m, st.ID)
		m.Overlay.Set(st.ID, next)
		res.Action = TapUpdated
		res.Phone = next
		return res, nil
	}
	return res, nil
}

func (c *Controller) trackerBusyLocked(pendingConfirmation bool) error {
	if c.submitting {
		return ErrSubmitInFlight
	}
	if pendingConfirmation {
		return ErrConfirmationPending
	}
	return nil
}

// resolveAttendanceLocked 覆盖层 > 该教时已存储值；都没有时为空
func (c *Controller) resolveAttendanceLocked(m *AttendanceMode, id int64) Status {
	return m.Overlay.Resolve(id, func() Status {
		s, _ := c.roster.StoredStatus(id, m.Period)
		return s
	})
}

// resolvePhoneLocked 覆盖层 > 该教时已存储值 > 默认已上交
func (c *Controller) resolvePhoneLocked(m *PhoneMode, id int64) bool {
	return m.Overlay.Resolve(id, func() bool {
		return c.roster.ResolvedPhone(id, m.Period)
	})
}

// attendanceBaselineLocked 出勤基准：该教时已存储的状态
func (c *Controller) attendanceBaselineLocked(m *AttendanceMode) Baseline[Status] {
	roster := c.roster
	return func(id int64) (Status, bool) {
		return roster.StoredStatus(id, m.Period)
	}
}

// phoneBaselineLocked 手机基准：已存储值，无记录时为显示默认值（已上交）
func (c *Controller) phoneBaselineLocked(m *PhoneMode) Baseline[bool] {
	roster := c.roster
	return func(id int64) (bool, bool) {
		return roster.ResolvedPhone(id, m.Period), true
	}
}

// ChooseAttendance 默认子模式下为学生选定状态
func (c *Controller) ChooseAttendance(studentID int64, s Status) error {
	if !isAttendanceChoice(s) {
		return ErrInvalidChoice
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.mode.(*AttendanceMode)
	if !ok || m.Submode != SubmodeDefault {
		return ErrWrongMode
	}
	if err := c.trackerBusyLocked(c.attendanceGuard.Pending() != nil); err != nil {
		return err
	}
	if _, ok := c.roster.Student(studentID); !ok {
		return ErrUnknownStudent
	}
	m.Overlay.Set(studentID, s)
	return nil
}

// ════════════════════════════════════════════════════════════
// 批量提交
// ════════════════════════════════════════════════════════════

// SubmitAttendance 提交出勤覆盖层
func (c *Controller) SubmitAttendance(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	m, ok := c.mode.(*AttendanceMode)
	if !ok {
		c.mu.Unlock()
		return OutcomeSkipped, ErrWrongMode
	}
	if err := c.trackerBusyLocked(c.attendanceGuard.Pending() != nil); err != nil {
		c.mu.Unlock()
		return OutcomeSkipped, err
	}
	entries := m.Overlay.Diff(c.attendanceBaselineLocked(m))
	p := m.Period
	if len(entries) == 0 {
		c.mu.Unlock()
		return OutcomeSkipped, ErrNoPendingChanges
	}
	c.submitting = true
	c.mu.Unlock()

	out, err := c.attendanceGuard.Commit(ctx, p, entries)
	return c.afterCommit(ctx, TrackerAttendance, p, len(entries), out, err)
}

// SubmitPhone 提交手机上交覆盖层；检查人取巡查检查人，缺省用配置值
func (c *Controller) SubmitPhone(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	m, ok := c.mode.(*PhoneMode)
	if !ok {
		c.mu.Unlock()
		return OutcomeSkipped, ErrWrongMode
	}
	if err := c.trackerBusyLocked(c.phoneGuard.Pending() != nil); err != nil {
		c.mu.Unlock()
		return OutcomeSkipped, err
	}
	entries := m.Overlay.Diff(c.phoneBaselineLocked(m))
	p := m.Period
	if len(entries) == 0 {
		c.mu.Unlock()
		return OutcomeSkipped, ErrNoPendingChanges
	}
	c.phoneCheckedBy = c.checkedByLocked()
	c.submitting = true
	c.mu.Unlock()

	out, err := c.phoneGuard.Commit(ctx, p, entries)
	return c.afterCommit(ctx, TrackerPhone, p, len(entries), out, err)
}

func (c *Controller) checkedByLocked() string {
	if name := c.patrol.CheckerName(); name != "" {
		return name
	}
	return c.opts.DefaultChecker
}

// ConfirmOverride 操作员确认后以 force=true 重发被拒绝的批次
func (c *Controller) ConfirmOverride(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return OutcomeSkipped, ErrSubmitInFlight
	}
	var (
		tracker Tracker
		p, n    int
	)
	switch m := c.mode.(type) {
	case *AttendanceMode:
		pending := c.attendanceGuard.Pending()
		if pending == nil {
			c.mu.Unlock()
			return OutcomeSkipped, ErrNoPendingConfirmation
		}
		tracker, p, n = TrackerAttendance, m.Period, pending.EntryCount
	case *PhoneMode:
		pending := c.phoneGuard.Pending()
		if pending == nil {
			c.mu.Unlock()
			return OutcomeSkipped, ErrNoPendingConfirmation
		}
		tracker, p, n = TrackerPhone, m.Period, pending.EntryCount
	default:
		c.mu.Unlock()
		return OutcomeSkipped, ErrWrongMode
	}
	c.submitting = true
	c.mu.Unlock()

	c.logger.Info("操作员确认教时覆盖", zap.String("tracker", string(tracker)), zap.Int("period", p))

	var (
		out Outcome
		err error
	)
	if tracker == TrackerAttendance {
		out, err = c.attendanceGuard.Confirm(ctx)
	} else {
		out, err = c.phoneGuard.Confirm(ctx)
	}
	return c.afterCommit(ctx, tracker, p, n, out, err)
}

// DeclineOverride 放弃待确认批次；覆盖层保留，操作员可改选教时或重试
func (c *Controller) DeclineOverride() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode.(type) {
	case *AttendanceMode:
		if !c.attendanceGuard.Decline() {
			return ErrNoPendingConfirmation
		}
	case *PhoneMode:
		if !c.phoneGuard.Decline() {
			return ErrNoPendingConfirmation
		}
	default:
		return ErrWrongMode
	}
	return nil
}

func (c *Controller) afterCommit(ctx context.Context, tracker Tracker, p, n int, out Outcome, err error) (Outcome, error) {
	c.mu.Lock()
	c.submitting = false
	if out != OutcomeCommitted {
		c.mu.Unlock()
		if out == OutcomeFailed {
			c.logger.Warn("批量提交失败", zap.String("tracker", string(tracker)), zap.Int("period", p), zap.Error(err))
		}
		return out, err
	}
	c.mode = ViewMode{}
	c.mu.Unlock()

	c.logger.Info("批量提交成功", zap.String("tracker", string(tracker)), zap.Int("period", p), zap.Int("entries", n))

	if err := c.Refresh(ctx); err != nil {
		return out, fmt.Errorf("提交成功，但刷新失败: %w", err)
	}
	return out, nil
}

// ════════════════════════════════════════════════════════════
// 到校标记
// ════════════════════════════════════════════════════════════

// ToggleSchoolAttendance 切换高中生的到校标记，返回切换后的值
// 查看与出勤模式可用；出勤 1 教时下同步调整该生的预填值
func (c *Controller) ToggleSchoolAttendance(ctx context.Context, studentID int64) (bool, error) {
	c.mu.Lock()
	switch c.mode.(type) {
	case ViewMode:
	case *AttendanceMode:
		if err := c.trackerBusyLocked(c.attendanceGuard.Pending() != nil); err != nil {
			c.mu.Unlock()
			return false, err
		}
	default:
		c.mu.Unlock()
		return false, ErrWrongMode
	}
	if _, ok := c.roster.Student(studentID); !ok {
		c.mu.Unlock()
		return false, ErrUnknownStudent
	}
	if !c.roster.IsHighSchool(studentID) {
		c.mu.Unlock()
		return false, ErrNotHighSchool
	}
	on := !c.roster.AtSchool(studentID)
	c.mu.Unlock()

	if err := c.backend.SetSchoolAttendance(ctx, studentID, on); err != nil {
		return !on, fmt.Errorf("切换到校标记失败: %w", err)
	}

	c.mu.Lock()
	c.roster = c.roster.withSchool(studentID, on)
	if m, ok := c.mode.(*AttendanceMode); ok && !c.submitting {
		c.reseedLocked(m, studentID)
	}
	c.mu.Unlock()
	return on, nil
}

// reseedLocked 到校标记变化后按 1 教时预填规则调整单个学生
// 只动预填值（studying 且无 1 教时记录），操作员选过的其他值保留
func (c *Controller) reseedLocked(m *AttendanceMode, studentID int64) {
	if m.Period != period.First {
		return
	}
	if _, stored := c.roster.StoredStatus(studentID, period.First); stored {
		return
	}
	v, has := m.Overlay.Get(studentID)
	if c.roster.IsSchoolFlagged(studentID, c.clock.Now()) {
		if has && v == StatusStudying {
			m.Overlay.Clear(studentID)
		}
		return
	}
	if !has {
		m.Overlay.Set(studentID, StatusStudying)
	}
}

// ════════════════════════════════════════════════════════════
// 巡查
// ════════════════════════════════════════════════════════════

// Patrol 巡查会话管理器
func (c *Controller) Patrol() *PatrolManager {
	return c.patrol
}

// StartPatrol 开启巡查并进入巡查模式；记录器激活时拒绝
func (c *Controller) StartPatrol(ctx context.Context) (*PatrolSession, error) {
	c.mu.Lock()
	if c.mode.Kind() != ModeView {
		c.mu.Unlock()
		return nil, ErrModeLocked
	}
	c.mu.Unlock()

	session, err := c.patrol.Start(ctx)
	if err != nil {
		return nil, err
	}
	c.beacon.Rearm()

	c.mu.Lock()
	if c.mode.Kind() == ModeView {
		c.mode = PatrolMode{SessionID: session.ID}
	}
	c.mu.Unlock()
	return session, nil
}

// ResumePatrol 回到仍在进行的会话
func (c *Controller) ResumePatrol(ctx context.Context) error {
	c.mu.Lock()
	if c.mode.Kind() == ModePatrol {
		c.mu.Unlock()
		return nil
	}
	if c.mode.Kind() != ModeView {
		c.mu.Unlock()
		return ErrModeLocked
	}
	session := c.patrol.Session()
	if session == nil {
		c.mu.Unlock()
		return ErrNoActivePatrol
	}
	c.mode = PatrolMode{SessionID: session.ID}
	c.mu.Unlock()

	return c.patrol.Resume(ctx)
}

// LeavePatrol 回到查看模式，不结束会话
func (c *Controller) LeavePatrol() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode.Kind() != ModePatrol {
		return ErrWrongMode
	}
	c.mode = ViewMode{}
	return nil
}

// SetCheckerName 设置检查人
func (c *Controller) SetCheckerName(name string) {
	c.patrol.SetCheckerName(name)
}

// RecordObservation 巡查模式下记录观察
func (c *Controller) RecordObservation(ctx context.Context, studentID int64, category Category, note string) (*Observation, error) {
	c.mu.Lock()
	if c.mode.Kind() != ModePatrol {
		c.mu.Unlock()
		return nil, ErrWrongMode
	}
	if _, ok := c.roster.Student(studentID); !ok {
		c.mu.Unlock()
		return nil, ErrUnknownStudent
	}
	c.mu.Unlock()

	obs, err := c.patrol.RecordObservation(ctx, studentID, category, note)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.roster = c.roster.withAttitudeWarning(studentID)
	c.mu.Unlock()
	return obs, nil
}

// DeleteObservation 巡查模式下删除观察
func (c *Controller) DeleteObservation(ctx context.Context, checkID int64) error {
	c.mu.Lock()
	if c.mode.Kind() != ModePatrol {
		c.mu.Unlock()
		return ErrWrongMode
	}
	c.mu.Unlock()
	return c.patrol.DeleteObservation(ctx, checkID)
}

// SubmitPatrol 正常结束巡查并回到查看模式
func (c *Controller) SubmitPatrol(ctx context.Context, notes, inspectorName string) (*SubmitSummary, error) {
	c.mu.Lock()
	if c.mode.Kind() != ModePatrol {
		c.mu.Unlock()
		return nil, ErrWrongMode
	}
	c.mu.Unlock()

	summary, err := c.patrol.Submit(ctx, notes, inspectorName)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.mode.Kind() == ModePatrol {
		c.mode = ViewMode{}
	}
	c.mu.Unlock()

	if err := c.Refresh(ctx); err != nil {
		return summary, fmt.Errorf("巡查已结束，但刷新失败: %w", err)
	}
	return summary, nil
}

// CancelPatrol 操作员确认后本地放弃会话
func (c *Controller) CancelPatrol(confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := c.patrol.Cancel(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.mode.Kind() == ModePatrol {
		c.mode = ViewMode{}
	}
	c.mu.Unlock()
	return nil
}

// ════════════════════════════════════════════════════════════
// 离开与强制结束
// ════════════════════════════════════════════════════════════

// BeforeLeave 可取消的离开提示
func (c *Controller) BeforeLeave() (string, bool) {
	return c.beacon.BeforeLeave(c.inPatrolMode())
}

// PageGone 进程即将退出时调用
func (c *Controller) PageGone() bool {
	fired := c.beacon.PageGone(c.inPatrolMode())
	if fired {
		c.mu.Lock()
		c.mode = ViewMode{}
		c.mu.Unlock()
	}
	return fired
}

func (c *Controller) inPatrolMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode.Kind() == ModePatrol
}

// Banner 上次强制结束的提示；无则为 nil
func (c *Controller) Banner() *ForceEndMarker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.banner == nil {
		return nil
	}
	b := *c.banner
	return &b
}

// DismissForceEndBanner 操作员确认后清除标记
func (c *Controller) DismissForceEndBanner() error {
	if err := c.markers.Clear(); err != nil {
		return err
	}
	c.mu.Lock()
	c.banner = nil
	c.mu.Unlock()
	return nil
}

// ════════════════════════════════════════════════════════════
// 状态快照
// ════════════════════════════════════════════════════════════

// State 供渲染层使用的状态快照
type State struct {
	Mode          ModeKind
	Period        int
	Submode       AttendanceSubmode
	PendingCount  int
	Submitting    bool
	Confirmation  *PendingConfirmation
	PatrolState   PatrolState
	Session       *PatrolSession
	Observations  []Observation
	CheckerName   string
	Banner        *ForceEndMarker
	CurrentPeriod int
	InClass       bool
	Now           time.Time
}

// State 当前状态快照
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	s := State{
		Mode:        c.mode.Kind(),
		Submitting:  c.submitting,
		PatrolState: c.patrol.State(),
		Session:     c.patrol.Session(),
		CheckerName: c.patrol.CheckerName(),
		Now:         now,
	}
	if s.Session != nil {
		s.Observations = c.patrol.Observations()
	}
	s.CurrentPeriod, s.InClass = c.schedule.Current(now)
	if c.banner != nil {
		b := *c.banner
		s.Banner = &b
	}

	switch m := c.mode.(type) {
	case *AttendanceMode:
		s.Period = m.Period
		s.Submode = m.Submode
		s.PendingCount = len(m.Overlay.Diff(c.attendanceBaselineLocked(m)))
		s.Confirmation = c.attendanceGuard.Pending()
	case *PhoneMode:
		s.Period = m.Period
		s.PendingCount = len(m.Overlay.Diff(c.phoneBaselineLocked(m)))
		s.Confirmation = c.phoneGuard.Pending()
	}
	return s
}

// CheckerOrDefault 当前检查人，缺省用配置值
func (c *Controller) CheckerOrDefault() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.TrimSpace(c.checkedByLocked())
}
