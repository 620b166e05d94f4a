package console

import "testing"

func TestOverlay_SetGetClear(t *testing.T) {
	o := NewOverlay[Status](TrackerAttendance, 3)
	if o.Len() != 0 || o.Period() != 3 || o.Tracker() != TrackerAttendance {
		t.Fatal("新覆盖层状态不符")
	}

	o.Set(2, StatusLate)
	o.Set(1, StatusAbsent)
	o.Set(2, StatusOnSchedule)

	if v, ok := o.Get(2); !ok || v != StatusOnSchedule {
		t.Errorf("后写入的值应覆盖: %v %v", v, ok)
	}
	if o.Len() != 2 {
		t.Errorf("期望 2 条，实际 %d", o.Len())
	}

	o.Clear(1)
	if o.Has(1) {
		t.Error("Clear 后不应存在")
	}
}

func TestOverlay_EntriesSorted(t *testing.T) {
	o := NewOverlay[bool](TrackerPhone, 1)
	o.Set(30, false)
	o.Set(4, true)
	o.Set(17, false)

	es := o.Entries()
	if len(es) != 3 || es[0].StudentID != 4 || es[1].StudentID != 17 || es[2].StudentID != 30 {
		t.Errorf("Entries 应按学生 ID 排序: %+v", es)
	}
}

func TestOverlay_ResolvePrefersOverlay(t *testing.T) {
	o := NewOverlay[bool](TrackerPhone, 1)
	called := 0
	fallback := func() bool { called++; return true }

	if !o.Resolve(9, fallback) || called != 1 {
		t.Error("无修改时应回退")
	}

	o.Set(9, false)
	if o.Resolve(9, fallback) || called != 1 {
		t.Error("有修改时不应调用回退")
	}
}

func TestOverlay_Reset(t *testing.T) {
	o := NewOverlay[Status](TrackerAttendance, 1)
	o.Set(1, StatusStudying)
	o.Reset(4)

	if o.Len() != 0 || o.Period() != 4 {
		t.Errorf("Reset 后应为空并切换教时: len=%d period=%d", o.Len(), o.Period())
	}
}

func TestOverlay_DiffAgainstBaseline(t *testing.T) {
	stored := map[int64]Status{1: StatusLate, 2: StatusAbsent}
	baseline := func(id int64) (Status, bool) {
		v, ok := stored[id]
		return v, ok
	}

	o := NewOverlay[Status](TrackerAttendance, 1)
	o.Set(1, StatusLate)     // 与记录相同
	o.Set(2, StatusStudying) // 改动
	o.Set(3, StatusStudying) // 无记录的预填

	es := o.Diff(baseline)
	if len(es) != 2 || es[0].StudentID != 2 || es[1].StudentID != 3 {
		t.Fatalf("应只保留改动与无记录条目: %+v", es)
	}
	if o.Changed(1, baseline) || !o.Changed(2, baseline) || !o.Changed(3, baseline) || o.Changed(9, baseline) {
		t.Error("Changed 判断不符")
	}
	if o.Len() != 3 {
		t.Errorf("Diff 不应修改覆盖层，实际 %d 条", o.Len())
	}
}
