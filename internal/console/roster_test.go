package console

import (
	"testing"
	"time"
)

var testLoc = time.FixedZone("KST", 9*3600)

func at(hh, mm int) time.Time {
	return time.Date(2026, 3, 9, hh, mm, 0, 0, testLoc)
}

func testRosterOptions() RosterOptions {
	opts := DefaultRosterOptions()
	opts.Location = testLoc
	return opts
}

func sampleSnapshot() Snapshot {
	return Snapshot{
		Students: []Student{
			{ID: 1, Name: "가", SeatNumber: "A1", StudentType: "고2", Baseline: StatusAbsent},
			{ID: 2, Name: "나", SeatNumber: "A2", StudentType: "중3", Baseline: StatusStudying, AttitudeWarning: true},
			{ID: 3, Name: "다", SeatNumber: "B5", StudentType: "재수", Baseline: ""},
			{ID: 4, Name: "라", SeatNumber: "A2", StudentType: "고1"},
		},
		Attendance: map[int64]map[int]string{
			2: {1: "자습중", 3: "지각"},
			3: {2: "조퇴"},
		},
		Phone: map[int64]map[int]bool{
			2: {1: false},
		},
		School: []int64{1, 2},
	}
}

func TestRosterIndex_BySeat(t *testing.T) {
	idx := NewRosterIndex(sampleSnapshot(), testRosterOptions())

	st, ok := idx.BySeat("B5")
	if !ok || st.ID != 3 {
		t.Errorf("B5 应为学生 3: %+v %v", st, ok)
	}
	st, _ = idx.BySeat("A2")
	if st.ID != 2 {
		t.Errorf("座位冲突时应保留 ID 较小者，实际 %d", st.ID)
	}
	if _, ok := idx.BySeat("A40"); ok {
		t.Error("空座位不应命中")
	}
}

func TestRosterIndex_SchoolPrecedence(t *testing.T) {
	idx := NewRosterIndex(sampleSnapshot(), testRosterOptions())

	if got := idx.CurrentStatus(1, at(17, 59)); got != StatusSchool {
		t.Errorf("18 点前高中生到校应显示 school，实际 %s", got)
	}
	if got := idx.CurrentStatus(1, at(18, 0)); got != StatusAbsent {
		t.Errorf("18 点后应回退到基线，实际 %s", got)
	}
	// 非高中生即使有到校标记也不显示 school
	if got := idx.CurrentStatus(2, at(10, 0)); got != StatusLate {
		t.Errorf("非高中生应取最晚教时记录，实际 %s", got)
	}
}

func TestRosterIndex_LatestPeriodWins(t *testing.T) {
	idx := NewRosterIndex(sampleSnapshot(), testRosterOptions())

	if got := idx.CurrentStatus(2, at(20, 0)); got != StatusLate {
		t.Errorf("应取 3 教时的 late，实际 %s", got)
	}
	// 未知名称映射为 studying
	if got := idx.CurrentStatus(3, at(20, 0)); got != StatusStudying {
		t.Errorf("未知名称应映射为 studying，实际 %s", got)
	}
}

func TestRosterIndex_BaselineUsedAsIs(t *testing.T) {
	snap := sampleSnapshot()
	snap.Attendance = nil
	idx := NewRosterIndex(snap, testRosterOptions())

	if got := idx.CurrentStatus(3, at(20, 0)); got != "" {
		t.Errorf("无记录时基线应原样使用，实际 %q", got)
	}
}

func TestRosterIndex_AttitudeWarningIndependentOfLabel(t *testing.T) {
	snap := sampleSnapshot()
	snap.Attendance = map[int64]map[int]string{2: {1: "자습중"}}
	idx := NewRosterIndex(snap, testRosterOptions())

	if !idx.HasAttitudeWarning(2) {
		t.Error("学生 2 应有态度角标")
	}
	if got := idx.CurrentStatus(2, at(9, 0)); got != StatusStudying || got.Label() != "자습중" {
		t.Errorf("态度角标不应改变状态文字: %s", got)
	}
}

func TestRosterIndex_Phone(t *testing.T) {
	idx := NewRosterIndex(sampleSnapshot(), testRosterOptions())

	if idx.ResolvedPhone(2, 1) {
		t.Error("已存储 false 应返回 false")
	}
	if !idx.ResolvedPhone(2, 2) || !idx.ResolvedPhone(1, 1) {
		t.Error("无记录时默认已上交")
	}
}

func TestRosterIndex_WithSchoolCopies(t *testing.T) {
	idx := NewRosterIndex(sampleSnapshot(), testRosterOptions())
	next := idx.withSchool(1, false)

	if !idx.AtSchool(1) {
		t.Error("原索引不应被修改")
	}
	if next.AtSchool(1) {
		t.Error("副本应已移除到校标记")
	}
}
