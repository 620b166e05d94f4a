// Package tui 值班控制台的终端界面：座位表渲染与按键路由
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/DH0263/dittonweb-sub000/internal/console"
	pkgerrors "github.com/DH0263/dittonweb-sub000/pkg/errors"
)

// promptKind 当前弹出的对话
type promptKind int

const (
	promptNone         promptKind = iota
	promptChoice                  // 出勤四选一
	promptCategory                // 观察类别
	promptOverride                // 教时不一致确认
	promptQuit                    // 巡查中退出确认
	promptCancelPatrol            // 取消巡查确认
	promptChecker                 // 输入检查人
	promptEndNotes                // 结束巡查备注
)

type (
	clockMsg   time.Time
	refreshMsg time.Time

	// opMsg 一次后台操作的结果
	opMsg struct {
		notice  string
		err     error
		outcome console.Outcome
	}

	loadedMsg struct{ err error }
)

// Model bubbletea 模型
type Model struct {
	ctrl    *console.Controller
	refresh time.Duration
	timeout time.Duration
	logger  *zap.Logger

	room, row, col int

	prompt  promptKind
	target  *console.Student
	input   string
	notice  string
	isError bool
	busy    bool

	quitting bool
	width    int
	height   int
}

// New 创建界面模型
func New(ctrl *console.Controller, refresh, timeout time.Duration, logger *zap.Logger) Model {
	return Model{
		ctrl:    ctrl,
		refresh: refresh,
		timeout: timeout,
		logger:  logger,
	}
}

// Quitting 是否由操作员主动退出
func (m Model) Quitting() bool { return m.quitting }

// Init 启动时加载快照并开始计时
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), clockTick(), m.refreshTick())
}

func clockTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func (m Model) refreshTick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

// run 在后台 goroutine 中带超时执行一次引擎调用
func (m Model) run(fn func(ctx context.Context) opMsg) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return fn(ctx)
	}
}

func (m Model) loadCmd() tea.Cmd {
	ctrl := m.ctrl
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return loadedMsg{err: ctrl.Load(ctx)}
	}
}

// ════════════════════════════════════════════════════════════
// Update
// ════════════════════════════════════════════════════════════

// Update 处理消息
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case clockMsg:
		return m, clockTick()

	case refreshMsg:
		// 刷新只替换快照，不影响覆盖层
		ctrl := m.ctrl
		return m, tea.Batch(m.refreshTick(), m.run(func(ctx context.Context) opMsg {
			if err := ctrl.Refresh(ctx); err != nil {
				return opMsg{err: err}
			}
			return opMsg{}
		}))

	case loadedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else if b := m.ctrl.Banner(); b != nil {
			m.setNotice(fmt.Sprintf("이전 순찰(#%d)이 %s 페이지 이탈로 강제 종료되었습니다. [D]로 확인", b.PatrolID, b.Timestamp.Format("15:04")))
		}
		return m, nil

	case opMsg:
		m.busy = false
		return m.handleOp(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleOp(msg opMsg) (tea.Model, tea.Cmd) {
	if msg.outcome == console.OutcomeNeedsConfirmation {
		m.prompt = promptOverride
		if pm, ok := pkgerrors.AsPeriodMismatch(msg.err); ok {
			m.setNotice(pm.Error())
		}
		return m, nil
	}
	if msg.err != nil {
		m.setError(msg.err)
		return m, nil
	}
	if msg.notice != "" {
		m.setNotice(msg.notice)
	}
	return m, nil
}

func (m *Model) setNotice(s string) { m.notice, m.isError = s, false }

func (m *Model) setError(err error) {
	m.notice, m.isError = describe(err), true
	m.logger.Warn("操作失败", zap.Error(err))
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.requestQuit()
	}
	if m.prompt != promptNone {
		return m.handlePromptKey(msg)
	}

	st := m.ctrl.State()
	switch msg.String() {
	case "q":
		return m.requestQuit()
	case "up", "k":
		m.move(-1, 0)
	case "down", "j":
		m.move(1, 0)
	case "left", "h":
		m.move(0, -1)
	case "right", "l":
		m.move(0, 1)
	case "tab":
		m.room = (m.room + 1) % len(console.Rooms)
		m.row, m.col = 0, 0
	case "enter", " ":
		return m.tap()
	case "r":
		ctrl := m.ctrl
		return m, m.run(func(ctx context.Context) opMsg {
			if err := ctrl.Refresh(ctx); err != nil {
				return opMsg{err: err}
			}
			return opMsg{notice: "새로고침 완료"}
		})
	case "a":
		return m.local(m.ctrl.EnterAttendance(), "출석 체크 모드")
	case "p":
		return m.local(m.ctrl.EnterPhone(), "휴대폰 제출 체크 모드")
	case "1", "2", "3", "4", "5", "6", "7":
		if st.Mode == console.ModeAttendance || st.Mode == console.ModePhone {
			p := int(msg.Runes[0] - '0')
			return m.local(m.ctrl.SelectPeriod(p), fmt.Sprintf("%d교시 선택", p))
		}
	case "L":
		return m.toggleSubmode(st, console.SubmodeLateBatch)
	case "T":
		return m.toggleSubmode(st, console.SubmodeLateToStudying)
	case "s":
		return m.submit(st)
	case "esc":
		switch st.Mode {
		case console.ModeAttendance, console.ModePhone:
			return m.local(m.ctrl.CancelTracker(), "변경 사항을 취소했습니다")
		case console.ModePatrol:
			return m.local(m.ctrl.LeavePatrol(), "순찰은 계속 진행 중입니다")
		}
	case "P":
		return m.startOrResumePatrol(st)
	case "X":
		if st.PatrolState == console.PatrolActive {
			m.prompt = promptCancelPatrol
		}
	case "c":
		m.prompt, m.input = promptChecker, st.CheckerName
	case "u":
		return m.undoObservation(st)
	case "g":
		return m.toggleSchool()
	case "D":
		return m.local(m.ctrl.DismissForceEndBanner(), "")
	}
	return m, nil
}

// local 同步引擎调用的结果写入提示栏
func (m Model) local(err error, ok string) (tea.Model, tea.Cmd) {
	if err != nil {
		m.setError(err)
		return m, nil
	}
	m.setNotice(ok)
	return m, nil
}

func (m *Model) move(dr, dc int) {
	rows := console.Rooms[m.room].Rows
	m.row = clamp(m.row+dr, 0, len(rows)-1)
	m.col = clamp(m.col+dc, 0, len(rows[m.row])-1)
}

func (m Model) cursorSeat() (string, bool) {
	room := console.Rooms[m.room]
	if m.row >= len(room.Rows) || m.col >= len(room.Rows[m.row]) {
		return "", false
	}
	seat := room.Rows[m.row][m.col]
	if seat.Kind != console.SeatNumbered {
		return "", false
	}
	return console.SeatID(room.Name, seat.Number), true
}

func (m Model) tap() (tea.Model, tea.Cmd) {
	seatID, ok := m.cursorSeat()
	if !ok {
		return m, nil
	}
	res, err := m.ctrl.TapSeat(seatID)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	switch res.Action {
	case console.TapEmptySeat:
		m.setNotice(seatID + " 빈좌석")
	case console.TapShowStatus:
		m.setNotice(fmt.Sprintf("%s %s: %s", seatID, res.Student.Name, res.Status.Label()))
	case console.TapPromptObservation:
		m.prompt, m.target = promptCategory, res.Student
	case console.TapChooseAttendance:
		m.prompt, m.target = promptChoice, res.Student
	case console.TapUpdated:
		m.setNotice(fmt.Sprintf("%s %s 변경됨", seatID, res.Student.Name))
	}
	return m, nil
}

func (m Model) toggleSubmode(st console.State, s console.AttendanceSubmode) (tea.Model, tea.Cmd) {
	if st.Mode != console.ModeAttendance {
		return m, nil
	}
	next := s
	if st.Submode == s {
		next = console.SubmodeDefault
	}
	return m.local(m.ctrl.SetAttendanceSubmode(next), "하위 모드: "+next.String())
}

func (m Model) submit(st console.State) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	ctrl := m.ctrl
	switch st.Mode {
	case console.ModeAttendance:
		m.busy = true
		return m, m.run(func(ctx context.Context) opMsg {
			out, err := ctrl.SubmitAttendance(ctx)
			return opMsg{outcome: out, err: err, notice: fmt.Sprintf("%d교시 출석 저장 완료", st.Period)}
		})
	case console.ModePhone:
		m.busy = true
		return m, m.run(func(ctx context.Context) opMsg {
			out, err := ctrl.SubmitPhone(ctx)
			return opMsg{outcome: out, err: err, notice: fmt.Sprintf("%d교시 휴대폰 제출 저장 완료", st.Period)}
		})
	case console.ModePatrol:
		m.prompt, m.input = promptEndNotes, ""
	}
	return m, nil
}

func (m Model) startOrResumePatrol(st console.State) (tea.Model, tea.Cmd) {
	ctrl := m.ctrl
	if st.PatrolState == console.PatrolActive {
		return m, m.run(func(ctx context.Context) opMsg {
			return opMsg{err: ctrl.ResumePatrol(ctx), notice: "순찰 화면으로 돌아왔습니다"}
		})
	}
	return m, m.run(func(ctx context.Context) opMsg {
		s, err := ctrl.StartPatrol(ctx)
		if err != nil {
			return opMsg{err: err}
		}
		if s.Existing {
			return opMsg{notice: fmt.Sprintf("이미 진행 중인 순찰 #%d 을 이어갑니다", s.ID)}
		}
		return opMsg{notice: fmt.Sprintf("순찰 #%d 시작", s.ID)}
	})
}

func (m Model) undoObservation(st console.State) (tea.Model, tea.Cmd) {
	if st.Mode != console.ModePatrol || len(st.Observations) == 0 {
		return m, nil
	}
	last := st.Observations[len(st.Observations)-1]
	ctrl := m.ctrl
	return m, m.run(func(ctx context.Context) opMsg {
		return opMsg{err: ctrl.DeleteObservation(ctx, last.ID), notice: "마지막 기록을 삭제했습니다"}
	})
}

func (m Model) toggleSchool() (tea.Model, tea.Cmd) {
	seatID, ok := m.cursorSeat()
	if !ok {
		return m, nil
	}
	st, ok := m.ctrl.Roster().BySeat(seatID)
	if !ok {
		return m, nil
	}
	ctrl := m.ctrl
	return m, m.run(func(ctx context.Context) opMsg {
		on, err := ctrl.ToggleSchoolAttendance(ctx, st.ID)
		if err != nil {
			return opMsg{err: err}
		}
		if on {
			return opMsg{notice: st.Name + " 학교 출석 표시"}
		}
		return opMsg{notice: st.Name + " 학교 출석 해제"}
	})
}

// ════════════════════════════════════════════════════════════
// 对话
// ════════════════════════════════════════════════════════════

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.prompt {
	case promptChecker, promptEndNotes:
		return m.handleTextKey(msg)
	}

	key := msg.String()
	if key == "esc" {
		if m.prompt == promptOverride {
			err := m.ctrl.DeclineOverride()
			m.prompt = promptNone
			return m.local(err, "교시를 다시 선택하거나 다시 제출하세요")
		}
		m.prompt, m.target = promptNone, nil
		return m, nil
	}

	ctrl := m.ctrl
	switch m.prompt {
	case promptChoice:
		i, ok := digit(key, len(console.AttendanceChoices))
		if !ok || m.target == nil {
			return m, nil
		}
		err := ctrl.ChooseAttendance(m.target.ID, console.AttendanceChoices[i])
		m.prompt, m.target = promptNone, nil
		return m.local(err, "")

	case promptCategory:
		i, ok := digit(key, len(console.Categories))
		if !ok || m.target == nil {
			return m, nil
		}
		student, cat := *m.target, console.Categories[i]
		m.prompt, m.target = promptNone, nil
		return m, m.run(func(ctx context.Context) opMsg {
			if _, err := ctrl.RecordObservation(ctx, student.ID, cat, ""); err != nil {
				return opMsg{err: err}
			}
			return opMsg{notice: fmt.Sprintf("%s: %s 기록", student.Name, cat.Label())}
		})

	case promptOverride:
		switch key {
		case "y":
			m.prompt, m.busy = promptNone, true
			return m, m.run(func(ctx context.Context) opMsg {
				out, err := ctrl.ConfirmOverride(ctx)
				return opMsg{outcome: out, err: err, notice: "저장 완료"}
			})
		case "n":
			err := ctrl.DeclineOverride()
			m.prompt = promptNone
			return m.local(err, "교시를 다시 선택하거나 다시 제출하세요")
		}

	case promptQuit:
		switch key {
		case "y":
			m.quitting = true
			return m, tea.Quit
		case "n":
			m.prompt = promptNone
		}

	case promptCancelPatrol:
		switch key {
		case "y":
			m.prompt = promptNone
			return m.local(ctrl.CancelPatrol(true), "순찰을 취소했습니다")
		case "n":
			m.prompt = promptNone
		}
	}
	return m, nil
}

func (m Model) handleTextKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt, m.input = promptNone, ""
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.input += string(msg.Runes)
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input)
		kind := m.prompt
		m.prompt, m.input = promptNone, ""
		if kind == promptChecker {
			m.ctrl.SetCheckerName(text)
			m.setNotice("검사자: " + text)
			return m, nil
		}
		ctrl := m.ctrl
		return m, m.run(func(ctx context.Context) opMsg {
			sum, err := ctrl.SubmitPatrol(ctx, text, "")
			if sum == nil {
				return opMsg{err: err}
			}
			notice := fmt.Sprintf("순찰 #%d 종료: %s, 기록 %d건", sum.PatrolID, sum.Duration.Round(time.Second), sum.CheckCount)
			return opMsg{err: err, notice: notice}
		})
	}
	return m, nil
}

// requestQuit 巡查进行中时先询问是否留下
func (m Model) requestQuit() (tea.Model, tea.Cmd) {
	if warning, block := m.ctrl.BeforeLeave(); block {
		if m.prompt == promptQuit {
			m.quitting = true
			return m, tea.Quit
		}
		m.prompt = promptQuit
		m.setNotice(warning)
		return m, nil
	}
	m.quitting = true
	return m, tea.Quit
}

func digit(key string, n int) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	i := int(key[0] - '1')
	return i, i < n
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// describe 面向操作员的错误文字
func describe(err error) string {
	switch {
	case errors.Is(err, console.ErrNoPendingChanges):
		return "변경된 내용이 없습니다"
	case errors.Is(err, console.ErrSubmitInFlight):
		return "저장 중입니다. 잠시 기다려 주세요"
	case errors.Is(err, console.ErrModeLocked):
		return "다른 모드가 진행 중입니다"
	case errors.Is(err, console.ErrCheckerNameRequired):
		return "검사자 이름을 먼저 입력하세요 [c]"
	case errors.Is(err, console.ErrNoActivePatrol):
		return "진행 중인 순찰이 없습니다"
	case errors.Is(err, console.ErrForceEndUnacknowledged):
		return "강제 종료 알림을 먼저 확인하세요 [D]"
	case errors.Is(err, console.ErrLateBatchPeriod):
		return "지각 일괄 처리는 1교시에만 가능합니다"
	case errors.Is(err, console.ErrNotHighSchool):
		return "학교 출석은 고등학생만 표시할 수 있습니다"
	case errors.Is(err, console.ErrConfirmationPending):
		return "교시 확인 대기 중입니다 [y/n]"
	}
	return err.Error()
}
