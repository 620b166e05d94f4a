package console

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PatrolState 巡查会话生命周期
type PatrolState int

const (
	PatrolNoSession PatrolState = iota
	PatrolActive
	PatrolSubmitted
	PatrolCanceled
	PatrolForceEnded
)

func (s PatrolState) String() string {
	switch s {
	case PatrolActive:
		return "active"
	case PatrolSubmitted:
		return "submitted"
	case PatrolCanceled:
		return "canceled"
	case PatrolForceEnded:
		return "force_ended"
	default:
		return "no_session"
	}
}

// SubmitSummary 正常结束巡查后给操作员的反馈
type SubmitSummary struct {
	PatrolID   int64
	Duration   time.Duration
	CheckCount int
}

// PatrolManager 巡查会话管理
// 会话生命周期与界面模式相互独立：离开巡查模式不会结束会话
type PatrolManager struct {
	backend PatrolBackend
	markers MarkerStore
	clock   Clock
	logger  *zap.Logger

	mu           sync.Mutex
	state        PatrolState
	session      *PatrolSession
	observations []Observation
	checkerName  string
}

// NewPatrolManager 创建巡查会话管理器
func NewPatrolManager(backend PatrolBackend, markers MarkerStore, clock Clock, logger *zap.Logger) *PatrolManager {
	return &PatrolManager{
		backend: backend,
		markers: markers,
		clock:   clock,
		logger:  logger,
	}
}

// ── 查询 ──

// State 当前状态
func (m *PatrolManager) State() PatrolState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Active 是否存在进行中的会话
func (m *PatrolManager) Active() bool {
	return m.State() == PatrolActive
}

// Session 进行中会话的副本
func (m *PatrolManager) Session() *PatrolSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	s := *m.session
	return &s
}

// Observations 本次会话已记录观察的副本
func (m *PatrolManager) Observations() []Observation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Observation, len(m.observations))
	copy(out, m.observations)
	return out
}

// CheckerName 当前检查人
func (m *PatrolManager) CheckerName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkerName
}

// SetCheckerName 设置检查人
func (m *PatrolManager) SetCheckerName(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkerName = strings.TrimSpace(name)
}

// ── 生命周期 ──

// Load 启动时接管服务端已存在的进行中会话（不进入巡查模式）
func (m *PatrolManager) Load(ctx context.Context) error {
	session, err := m.backend.CurrentPatrol(ctx)
	if err != nil {
		return fmt.Errorf("查询进行中巡查失败: %w", err)
	}
	if session == nil {
		return nil
	}

	observations, err := m.backend.ListObservations(ctx, session.ID)
	if err != nil {
		m.logger.Warn("加载巡查观察失败", zap.Int64("patrol_id", session.ID), zap.Error(err))
		observations = nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == PatrolActive {
		return nil
	}
	m.state = PatrolActive
	m.session = session
	m.observations = observations
	return nil
}

// Start 开启新的巡查会话；存在未确认的强制结束标记时拒绝
func (m *PatrolManager) Start(ctx context.Context) (*PatrolSession, error) {
	marker, err := m.markers.Load()
	if err != nil {
		return nil, err
	}
	if marker != nil {
		return nil, ErrForceEndUnacknowledged
	}

	if m.Active() {
		return nil, ErrPatrolAlreadyActive
	}

	session, err := m.backend.StartPatrol(ctx)
	if err != nil {
		return nil, fmt.Errorf("开始巡查失败: %w", err)
	}

	// 服务端已有进行中的会话（如本地取消过的）：接续其观察列表
	var observations []Observation
	if session.Existing {
		observations, err = m.backend.ListObservations(ctx, session.ID)
		if err != nil {
			m.logger.Warn("加载巡查观察失败", zap.Int64("patrol_id", session.ID), zap.Error(err))
			observations = nil
		}
	}

	m.mu.Lock()
	m.state = PatrolActive
	m.session = session
	m.observations = observations
	m.mu.Unlock()

	m.logger.Info("巡查开始", zap.Int64("patrol_id", session.ID), zap.Bool("existing", session.Existing))
	s := *session
	return &s, nil
}

// Resume 回到已在进行的会话并重新加载观察列表
// 加载失败时保留内存中的列表并返回错误，会话仍可继续
func (m *PatrolManager) Resume(ctx context.Context) error {
	session := m.Session()
	if session == nil || !m.Active() {
		return ErrNoActivePatrol
	}

	observations, err := m.backend.ListObservations(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("加载巡查观察失败: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil && m.session.ID == session.ID {
		m.observations = observations
	}
	return nil
}

// RecordObservation 记录一条负面观察，不改变会话状态
func (m *PatrolManager) RecordObservation(ctx context.Context, studentID int64, category Category, note string) (*Observation, error) {
	m.mu.Lock()
	checker := m.checkerName
	var session *PatrolSession
	if m.state == PatrolActive && m.session != nil {
		s := *m.session
		session = &s
	}
	m.mu.Unlock()

	if checker == "" {
		return nil, ErrCheckerNameRequired
	}
	if session == nil {
		return nil, ErrNoActivePatrol
	}
	if !category.Valid() {
		return nil, ErrInvalidCategory
	}

	obs, err := m.backend.CreateObservation(ctx, NewObservation{
		StudentID:   studentID,
		PatrolID:    session.ID,
		CheckTime:   m.clock.Now(),
		Category:    category,
		Note:        strings.TrimSpace(note),
		CheckerName: checker,
	})
	if err != nil {
		return nil, fmt.Errorf("记录观察失败: %w", err)
	}

	m.mu.Lock()
	if m.session != nil && m.session.ID == session.ID {
		m.observations = append(m.observations, *obs)
	}
	m.mu.Unlock()

	out := *obs
	return &out, nil
}

// DeleteObservation 删除本次会话中尚未定稿的观察
func (m *PatrolManager) DeleteObservation(ctx context.Context, checkID int64) error {
	m.mu.Lock()
	active := m.state == PatrolActive
	found := false
	for _, o := range m.observations {
		if o.ID == checkID {
			found = true
			break
		}
	}
	m.mu.Unlock()

	if !active {
		return ErrNoActivePatrol
	}
	if !found {
		return ErrObservationNotFound
	}

	if err := m.backend.DeleteObservation(ctx, checkID); err != nil {
		return fmt.Errorf("删除观察失败: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, o := range m.observations {
		if o.ID == checkID {
			m.observations = append(m.observations[:i], m.observations[i+1:]...)
			break
		}
	}
	return nil
}

// Submit 正常结束会话
func (m *PatrolManager) Submit(ctx context.Context, notes, inspectorName string) (*SubmitSummary, error) {
	session := m.Session()
	if session == nil || !m.Active() {
		return nil, ErrNoActivePatrol
	}

	inspector := strings.TrimSpace(inspectorName)
	if inspector == "" {
		inspector = m.CheckerName()
	}

	result, err := m.backend.EndPatrol(ctx, session.ID, strings.TrimSpace(notes), inspector)
	if err != nil {
		return nil, fmt.Errorf("结束巡查失败: %w", err)
	}

	now := m.clock.Now()
	summary := &SubmitSummary{
		PatrolID:   session.ID,
		Duration:   now.Sub(session.StartTime),
		CheckCount: result.CheckCount,
	}
	if summary.Duration < 0 {
		summary.Duration = 0
	}

	m.mu.Lock()
	if m.session != nil && m.session.ID == session.ID {
		m.state = PatrolSubmitted
		m.session = nil
		m.observations = nil
	}
	m.mu.Unlock()

	m.logger.Info("巡查结束",
		zap.Int64("patrol_id", session.ID),
		zap.Duration("duration", summary.Duration),
		zap.Int("checks", summary.CheckCount),
	)
	return summary, nil
}

// Cancel 仅本地放弃会话，不调用正常结束接口；已记录的观察保留在服务端
func (m *PatrolManager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != PatrolActive {
		return ErrNoActivePatrol
	}
	m.logger.Info("巡查已取消", zap.Int64("patrol_id", m.session.ID))
	m.state = PatrolCanceled
	m.session = nil
	m.observations = nil
	return nil
}

// ForceEnd 页面离开时由信标调用
func (m *PatrolManager) ForceEnd() (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != PatrolActive || m.session == nil {
		return 0, false
	}
	id := m.session.ID
	m.state = PatrolForceEnded
	m.session = nil
	m.observations = nil
	return id, true
}
