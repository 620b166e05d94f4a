package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestPeriodMismatchError_Message(t *testing.T) {
	cur := 3
	e := &PeriodMismatchError{Requested: 2, Current: &cur}
	if e.Error() != "period mismatch: requested 2, current 3" {
		t.Errorf("unexpected message: %s", e.Error())
	}

	e = &PeriodMismatchError{Requested: 2}
	if e.Error() != "period mismatch: requested 2, not class time" {
		t.Errorf("unexpected message: %s", e.Error())
	}

	e = &PeriodMismatchError{Requested: 2, Message: "현재는 3교시입니다."}
	if e.Error() != "현재는 3교시입니다." {
		t.Errorf("explicit message should win, got %s", e.Error())
	}
}

func TestAsPeriodMismatch(t *testing.T) {
	wrapped := fmt.Errorf("提交失败: %w", &PeriodMismatchError{Requested: 5})
	pm, ok := AsPeriodMismatch(wrapped)
	if !ok || pm.Requested != 5 {
		t.Fatalf("expected to unwrap PeriodMismatchError, got %v %v", pm, ok)
	}

	if _, ok := AsPeriodMismatch(errors.New("other")); ok {
		t.Error("plain error must not match")
	}
}
