package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/DH0263/dittonweb-sub000/internal/dto"
	"github.com/DH0263/dittonweb-sub000/internal/model"
	pkgerrors "github.com/DH0263/dittonweb-sub000/pkg/errors"
)

func setupAttendance(hh, mm int) (AttendanceService, *mockRepos) {
	repo, m := newMockRepos()
	m.students.add(1, "김하나", "A1", "고2")
	m.students.add(2, "이둘", "A2", "재수")
	return NewAttendanceService(repo, testSched, clockAt(hh, mm), zap.NewNop()), m
}

func attendanceReq(entries ...dto.AttendanceEntry) *dto.BulkAttendanceRequest {
	return &dto.BulkAttendanceRequest{Records: entries}
}

// ── BulkUpsert ──

func TestAttendanceService_BulkUpsert_CurrentPeriod(t *testing.T) {
	svc, m := setupAttendance(8, 30)

	res, err := svc.BulkUpsert(context.Background(), &dto.PeriodQuery{Period: 1}, attendanceReq(
		dto.AttendanceEntry{StudentID: 1, Status: model.AttendanceLate},
		dto.AttendanceEntry{StudentID: 2, Status: model.AttendanceStudying},
	))
	if err != nil {
		t.Fatalf("BulkUpsert 应成功: %v", err)
	}
	if res.Saved != 2 || res.Forced {
		t.Errorf("结果不符: %+v", res)
	}
	if got, _ := m.attendance.get(1, testDay(), 1); got != model.AttendanceLate {
		t.Errorf("学生 1 期望 %s，实际 %s", model.AttendanceLate, got)
	}
}

func TestAttendanceService_BulkUpsert_PeriodMismatch(t *testing.T) {
	svc, m := setupAttendance(10, 30) // 2 교시

	_, err := svc.BulkUpsert(context.Background(), &dto.PeriodQuery{Period: 1}, attendanceReq(
		dto.AttendanceEntry{StudentID: 1, Status: model.AttendanceLate},
	))
	pm, ok := pkgerrors.AsPeriodMismatch(err)
	if !ok {
		t.Fatalf("期望 PeriodMismatchError，实际: %v", err)
	}
	if pm.Requested != 1 || pm.Current == nil || *pm.Current != 2 {
		t.Errorf("mismatch 内容不符: %+v", pm)
	}
	if m.attendance.upserts != 0 {
		t.Error("被拒绝的提交不应写入")
	}
}

func TestAttendanceService_BulkUpsert_NotClassTime(t *testing.T) {
	svc, _ := setupAttendance(12, 30)

	_, err := svc.BulkUpsert(context.Background(), &dto.PeriodQuery{Period: 2}, attendanceReq(
		dto.AttendanceEntry{StudentID: 1, Status: model.AttendanceStudying},
	))
	pm, ok := pkgerrors.AsPeriodMismatch(err)
	if !ok {
		t.Fatalf("期望 PeriodMismatchError，实际: %v", err)
	}
	if pm.Current != nil {
		t.Errorf("非上课时间 current 应为 nil，实际 %d", *pm.Current)
	}
}

func TestAttendanceService_BulkUpsert_ForceBypassesCheck(t *testing.T) {
	svc, m := setupAttendance(10, 30)

	res, err := svc.BulkUpsert(context.Background(), &dto.PeriodQuery{Period: 1, Force: true}, attendanceReq(
		dto.AttendanceEntry{StudentID: 1, Status: model.AttendanceAbsent},
	))
	if err != nil {
		t.Fatalf("force 提交应成功: %v", err)
	}
	if !res.Forced {
		t.Error("结果应标记 forced")
	}
	if got, _ := m.attendance.get(1, testDay(), 1); got != model.AttendanceAbsent {
		t.Errorf("期望 %s，实际 %s", model.AttendanceAbsent, got)
	}
}

func TestAttendanceService_BulkUpsert_Idempotent(t *testing.T) {
	svc, m := setupAttendance(8, 30)
	req := attendanceReq(dto.AttendanceEntry{StudentID: 1, Status: model.AttendanceLate})

	for i := 0; i < 2; i++ {
		if _, err := svc.BulkUpsert(context.Background(), &dto.PeriodQuery{Period: 1}, req); err != nil {
			t.Fatalf("第 %d 次提交失败: %v", i+1, err)
		}
	}
	recs, _ := m.attendance.ListByDate(context.Background(), testDay())
	if len(recs) != 1 {
		t.Errorf("重复提交后应只有 1 条记录，实际 %d", len(recs))
	}
}

func TestAttendanceService_BulkUpsert_Validation(t *testing.T) {
	svc, _ := setupAttendance(8, 30)
	ctx := context.Background()

	tests := []struct {
		name string
		q    *dto.PeriodQuery
		req  *dto.BulkAttendanceRequest
		want error
	}{
		{"教时越界", &dto.PeriodQuery{Period: 8, Force: true}, attendanceReq(dto.AttendanceEntry{StudentID: 1, Status: model.AttendanceLate}), ErrInvalidPeriod},
		{"空批次", &dto.PeriodQuery{Period: 1}, attendanceReq(), ErrEmptyBatch},
		{"无效状态", &dto.PeriodQuery{Period: 1}, attendanceReq(dto.AttendanceEntry{StudentID: 1, Status: "present"}), ErrInvalidStatus},
		{"未知学生", &dto.PeriodQuery{Period: 1}, attendanceReq(dto.AttendanceEntry{StudentID: 99, Status: model.AttendanceLate}), ErrUnknownStudent},
		{"重复学生", &dto.PeriodQuery{Period: 1}, attendanceReq(
			dto.AttendanceEntry{StudentID: 1, Status: model.AttendanceLate},
			dto.AttendanceEntry{StudentID: 1, Status: model.AttendanceAbsent},
		), ErrDuplicateStudents},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.BulkUpsert(ctx, tt.q, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际 %v", tt.want, err)
			}
		})
	}
}

// ── Query ──

func TestAttendanceService_TodayByPeriod(t *testing.T) {
	svc, m := setupAttendance(8, 30)
	m.attendance.set(1, testDay(), 1, model.AttendanceLate)
	m.attendance.set(1, testDay(), 2, model.AttendanceStudying)
	m.attendance.set(2, testDay().AddDate(0, 0, -1), 1, model.AttendanceAbsent)

	got, err := svc.TodayByPeriod(context.Background())
	if err != nil {
		t.Fatalf("TodayByPeriod 应成功: %v", err)
	}
	if len(got) != 1 || got[1][1] != model.AttendanceLate || got[1][2] != model.AttendanceStudying {
		t.Errorf("结果不符: %v", got)
	}
}

func TestAttendanceService_Completion(t *testing.T) {
	svc, m := setupAttendance(8, 30)
	m.attendance.set(1, testDay(), 3, model.AttendanceStudying)

	got, err := svc.Completion(context.Background(), 3)
	if err != nil {
		t.Fatalf("Completion 应成功: %v", err)
	}
	if got.TotalStudents != 2 || got.RecordedCount != 1 || got.MissingCount != 1 || got.IsComplete {
		t.Errorf("结果不符: %+v", got)
	}
	if len(got.MissingIDs) != 1 || got.MissingIDs[0] != 2 {
		t.Errorf("缺失名单不符: %v", got.MissingIDs)
	}

	if _, err := svc.Completion(context.Background(), 0); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("期望 ErrInvalidPeriod，实际 %v", err)
	}
}

// ── ConvertLate ──

func TestAttendanceService_ConvertLate(t *testing.T) {
	svc, m := setupAttendance(13, 0)
	day := testDay()
	m.attendance.set(1, day, 1, model.AttendanceLate)
	m.attendance.set(2, day, 2, model.AttendanceLate)
	m.attendance.set(2, day, 3, model.AttendanceLate)
	m.attendance.set(1, day, 2, model.AttendanceAbsent)

	n, err := svc.ConvertLate(context.Background(), 3)
	if err != nil {
		t.Fatalf("ConvertLate 应成功: %v", err)
	}
	if n != 2 {
		t.Errorf("期望转换 2 条，实际 %d", n)
	}
	if got, _ := m.attendance.get(2, day, 3); got != model.AttendanceLate {
		t.Error("当前教时的迟到不应被转换")
	}
	if got, _ := m.attendance.get(1, day, 2); got != model.AttendanceAbsent {
		t.Error("非迟到记录不应被改动")
	}
}
