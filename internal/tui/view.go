package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/DH0263/dittonweb-sub000/internal/console"
)

const cellWidth = 14

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	promptStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("214")).Padding(0, 1)
	bannerStyle   = lipgloss.NewStyle().Background(lipgloss.Color("130")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	cellBase      = lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Center)
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230"))
)

// statusColors 座位状态配色
var statusColors = map[console.Status]lipgloss.Color{
	console.StatusStudying:   lipgloss.Color("42"),
	console.StatusAbsent:     lipgloss.Color("203"),
	console.StatusLate:       lipgloss.Color("214"),
	console.StatusOnSchedule: lipgloss.Color("75"),
	console.StatusSchool:     lipgloss.Color("141"),
}

// View 渲染
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	st := m.ctrl.State()
	grid := m.ctrl.Grid()

	var b strings.Builder
	b.WriteString(m.header(st) + "\n")
	if st.Banner != nil {
		b.WriteString(bannerStyle.Render(fmt.Sprintf("⚠ 순찰 #%d 강제 종료됨 (%s) [D] 확인", st.Banner.PatrolID, st.Banner.Timestamp.Format("01-02 15:04"))) + "\n")
	}
	b.WriteString("\n")

	room := grid.Rooms[m.room]
	b.WriteString(headerStyle.Render(room.Title) + mutedStyle.Render("  [tab] 자습실 전환") + "\n")
	for r, cells := range room.Rows {
		line := make([]string, 0, len(cells))
		for c, cell := range cells {
			line = append(line, renderCell(cell, grid.Mode, r == m.row && c == m.col))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, line...) + "\n")
	}
	b.WriteString("\n")

	if st.Session != nil && st.Mode == console.ModePatrol {
		b.WriteString(m.observations(st) + "\n")
	}
	if p := m.promptView(st); p != "" {
		b.WriteString(promptStyle.Render(p) + "\n")
	}
	if m.notice != "" {
		if m.isError {
			b.WriteString(errorStyle.Render(m.notice) + "\n")
		} else {
			b.WriteString(m.notice + "\n")
		}
	}
	b.WriteString(mutedStyle.Render(helpLine(st.Mode)))
	return b.String()
}

func (m Model) header(st console.State) string {
	period := "수업 외 시간"
	if st.InClass {
		period = fmt.Sprintf("%d교시", st.CurrentPeriod)
	}
	parts := []string{
		titleStyle.Render("디턴 자습 감독"),
		st.Now.Format("15:04:05"),
		period,
		"모드: " + modeLabel(st.Mode),
	}
	switch st.Mode {
	case console.ModeAttendance, console.ModePhone:
		parts = append(parts, fmt.Sprintf("기록 교시: %d", st.Period), fmt.Sprintf("변경 %d건", st.PendingCount))
		if st.Mode == console.ModeAttendance && st.Submode != console.SubmodeDefault {
			parts = append(parts, submodeLabel(st.Submode))
		}
	}
	if st.Session != nil {
		parts = append(parts, fmt.Sprintf("순찰 #%d 진행 중 (%s)", st.Session.ID, st.Session.StartTime.Format("15:04")))
	}
	if st.CheckerName != "" {
		parts = append(parts, "검사자: "+st.CheckerName)
	}
	if st.Submitting || m.busy {
		parts = append(parts, "저장 중…")
	}
	return strings.Join(parts, " │ ")
}

func renderCell(cell console.Cell, mode console.ModeKind, selected bool) string {
	style := cellBase
	var text string
	switch cell.Kind {
	case console.CellGap:
		text = ""
	case console.CellEntrance:
		text = "입구"
		style = style.Foreground(lipgloss.Color("244"))
	case console.CellEmptySeat:
		text = cell.SeatID
		style = style.Foreground(lipgloss.Color("238"))
	case console.CellStudent:
		text = truncate(cell.StudentName, 3) + " " + truncate(cell.Label, 3)
		if mode == console.ModePhone {
			if cell.Phone {
				style = style.Foreground(lipgloss.Color("42"))
			} else {
				style = style.Foreground(lipgloss.Color("203"))
			}
		} else if c, ok := statusColors[cell.Status]; ok {
			style = style.Foreground(c)
		}
		if cell.Warning {
			text = "!" + text
		}
		if cell.Pending {
			style = style.Underline(true)
		}
	}
	if selected {
		style = style.Background(selectedStyle.GetBackground()).Foreground(selectedStyle.GetForeground())
	}
	return style.Render(text)
}

func (m Model) observations(st console.State) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("순찰 기록 %d건", len(st.Observations))))
	start := 0
	if len(st.Observations) > 5 {
		start = len(st.Observations) - 5
	}
	idx := m.ctrl.Roster()
	for _, o := range st.Observations[start:] {
		name := fmt.Sprintf("#%d", o.StudentID)
		if s, ok := idx.Student(o.StudentID); ok {
			name = s.Name
		}
		b.WriteString(fmt.Sprintf("\n  %s %s %s", o.CheckTime.Format("15:04"), name, o.Category.Label()))
	}
	return b.String()
}

func (m Model) promptView(st console.State) string {
	switch m.prompt {
	case promptChoice:
		opts := make([]string, 0, len(console.AttendanceChoices))
		for i, s := range console.AttendanceChoices {
			opts = append(opts, fmt.Sprintf("[%d] %s", i+1, s.Label()))
		}
		return m.target.Name + " 출석: " + strings.Join(opts, "  ") + "  [esc] 취소"
	case promptCategory:
		opts := make([]string, 0, len(console.Categories))
		for i, c := range console.Categories {
			opts = append(opts, fmt.Sprintf("[%d] %s", i+1, c.Label()))
		}
		return m.target.Name + " 태도: " + strings.Join(opts, "  ") + "  [esc] 취소"
	case promptOverride:
		reason := ""
		if st.Confirmation != nil {
			reason = st.Confirmation.Reason
		}
		return reason + "\n그래도 저장하시겠습니까? [y] 저장  [n] 취소"
	case promptQuit:
		return "순찰이 진행 중입니다. 나가면 순찰이 강제 종료됩니다.\n[y] 나가기  [n] 머무르기"
	case promptCancelPatrol:
		return "순찰을 취소하시겠습니까? 기록된 내용은 서버에 남습니다. [y/n]"
	case promptChecker:
		return "검사자 이름: " + m.input + "▏  [enter] 확인"
	case promptEndNotes:
		return "순찰 메모 (선택): " + m.input + "▏  [enter] 종료"
	}
	return ""
}

func helpLine(mode console.ModeKind) string {
	switch mode {
	case console.ModeAttendance:
		return "[enter] 선택  [1-7] 교시  [L] 지각 일괄  [T] 지각→자습  [g] 학교 출석  [s] 저장  [esc] 취소"
	case console.ModePhone:
		return "[enter] 제출 토글  [1-7] 교시  [s] 저장  [esc] 취소"
	case console.ModePatrol:
		return "[enter] 태도 기록  [u] 마지막 삭제  [c] 검사자  [s] 순찰 종료  [X] 순찰 취소  [esc] 나가기"
	}
	return "[a] 출석  [p] 휴대폰  [P] 순찰  [g] 학교 출석  [c] 검사자  [r] 새로고침  [q] 종료"
}

func modeLabel(k console.ModeKind) string {
	switch k {
	case console.ModePatrol:
		return "순찰"
	case console.ModeAttendance:
		return "출석 체크"
	case console.ModePhone:
		return "휴대폰 체크"
	}
	return "보기"
}

func submodeLabel(s console.AttendanceSubmode) string {
	switch s {
	case console.SubmodeLateBatch:
		return "지각 일괄"
	case console.SubmodeLateToStudying:
		return "지각→자습"
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
