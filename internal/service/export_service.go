package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/DH0263/dittonweb-sub000/internal/model"
	"github.com/DH0263/dittonweb-sub000/internal/period"
	"github.com/DH0263/dittonweb-sub000/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoStudents   = errors.New("没有在籍学生")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// 工作表名称
const (
	sheetAttendance = "출석"
	sheetPhone      = "휴대폰"
	sheetPatrols    = "순찰"
	sheetChecks     = "태도"
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportDaily 导出某日（空串为今天）的出勤、手机上交、巡查与态度检查
	ExportDaily(ctx context.Context, date string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	sched  *period.Schedule
	now    Clock
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, sched *period.Schedule, now Clock, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, sched: sched, now: now, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportDaily 生成日报
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "출석"：行 = 学生（座位序），列 = 1~7 교시，单元格 = 存储名称
//   - Sheet "휴대폰"：同上，单元格 = O / X
//   - Sheet "순찰"：当日巡查会话
//   - Sheet "태도"：当日态度检查明细

func (s *exportService) ExportDaily(ctx context.Context, date string) (*bytes.Buffer, string, error) {
	day := s.sched.Today(s.now())
	if date != "" {
		d, err := time.ParseInLocation(model.DateLayout, date, s.sched.Location())
		if err != nil {
			return nil, "", ErrInvalidDate
		}
		day = d
	}

	// 1. 查询数据
	students, err := s.repo.Student.ListEnrolled(ctx)
	if err != nil {
		s.logger.Error("查询在籍学生失败", zap.Error(err))
		return nil, "", err
	}
	if len(students) == 0 {
		return nil, "", ErrExportNoStudents
	}
	records, err := s.repo.Attendance.ListByDate(ctx, day)
	if err != nil {
		s.logger.Error("查询出勤失败", zap.Error(err))
		return nil, "", err
	}
	subs, err := s.repo.Phone.ListByDate(ctx, day)
	if err != nil {
		s.logger.Error("查询手机上交失败", zap.Error(err))
		return nil, "", err
	}
	patrols, err := s.repo.Patrol.List(ctx, &day, maxPatrolListLimit)
	if err != nil {
		s.logger.Error("查询巡查失败", zap.Error(err))
		return nil, "", err
	}
	checks, err := s.repo.AttitudeCheck.ListByDate(ctx, day)
	if err != nil {
		s.logger.Error("查询态度检查失败", zap.Error(err))
		return nil, "", err
	}

	// 2. 构建索引 "student:period" → 值
	attendance := make(map[string]string, len(records))
	for _, r := range records {
		attendance[gridKey(r.StudentID, r.Period)] = r.Status
	}
	phone := make(map[string]string, len(subs))
	for _, sub := range subs {
		mark := "X"
		if sub.IsSubmitted {
			mark = "O"
		}
		phone[gridKey(sub.StudentID, sub.Period)] = mark
	}
	checkCounts := make(map[int64]int)
	for _, c := range checks {
		checkCounts[c.PatrolID]++
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	title := day.Format(model.DateLayout)

	writeGrid(f, sheetAttendance, title+" 출석", students, attendance, headerStyle)
	writeGrid(f, sheetPhone, title+" 휴대폰 제출", students, phone, headerStyle)

	// 巡查
	f.NewSheet(sheetPatrols)
	writeHeader(f, sheetPatrols, []string{"ID", "시작", "종료", "감독자", "강제종료", "메모", "체크 수"}, headerStyle)
	for i, p := range patrols {
		row := i + 2
		end := "-"
		if p.EndTime != nil {
			end = p.EndTime.In(s.sched.Location()).Format("15:04:05")
		}
		forced := ""
		if p.ForceEnded {
			forced = "Y"
		}
		f.SetCellValue(sheetPatrols, cell("A", row), p.ID)
		f.SetCellValue(sheetPatrols, cell("B", row), p.StartTime.In(s.sched.Location()).Format("15:04:05"))
		f.SetCellValue(sheetPatrols, cell("C", row), end)
		f.SetCellValue(sheetPatrols, cell("D", row), p.InspectorName)
		f.SetCellValue(sheetPatrols, cell("E", row), forced)
		f.SetCellValue(sheetPatrols, cell("F", row), p.Notes)
		f.SetCellValue(sheetPatrols, cell("G", row), checkCounts[p.ID])
	}

	// 态度检查
	f.NewSheet(sheetChecks)
	writeHeader(f, sheetChecks, []string{"시각", "교시", "좌석", "이름", "유형", "메모", "기록자"}, headerStyle)
	for i, c := range checks {
		row := i + 2
		t := c.CheckTime.In(s.sched.Location())
		seat, name := "", ""
		if c.Student != nil {
			seat, name = c.Student.Seat(), c.Student.Name
		}
		periodText := "-"
		if p := periodOf(s.sched, t); p > 0 {
			periodText = fmt.Sprintf("%d", p)
		}
		f.SetCellValue(sheetChecks, cell("A", row), t.Format("15:04:05"))
		f.SetCellValue(sheetChecks, cell("B", row), periodText)
		f.SetCellValue(sheetChecks, cell("C", row), seat)
		f.SetCellValue(sheetChecks, cell("D", row), name)
		f.SetCellValue(sheetChecks, cell("E", row), c.Category)
		f.SetCellValue(sheetChecks, cell("F", row), c.Note)
		f.SetCellValue(sheetChecks, cell("G", row), c.CheckerName)
	}

	if i, err := f.GetSheetIndex(sheetAttendance); err == nil {
		f.SetActiveSheet(i)
	}
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	// 4. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("daily_%s.xlsx", day.Format("20060102"))
	return buf, filename, nil
}

// writeGrid 写入 学生 × 教时 网格
func writeGrid(f *excelize.File, sheet, title string, students []model.Student, values map[string]string, headerStyle int) {
	f.NewSheet(sheet)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 12)
	f.SetColWidth(sheet, "C", "C", 10)

	// 标题行
	f.SetCellValue(sheet, "A1", title)
	f.MergeCell(sheet, "A1", fmt.Sprintf("%s1", colName(2+period.Last)))
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	// 表头
	f.SetCellValue(sheet, cell("A", 2), "좌석")
	f.SetCellValue(sheet, cell("B", 2), "이름")
	f.SetCellValue(sheet, cell("C", 2), "구분")
	for p := period.First; p <= period.Last; p++ {
		f.SetCellValue(sheet, cell(colName(2+p), 2), fmt.Sprintf("%d교시", p))
	}

	// 数据行
	for i, st := range students {
		row := i + 3
		f.SetCellValue(sheet, cell("A", row), st.Seat())
		f.SetCellValue(sheet, cell("B", row), st.Name)
		f.SetCellValue(sheet, cell("C", row), st.StudentType)
		for p := period.First; p <= period.Last; p++ {
			v, ok := values[gridKey(st.ID, p)]
			if !ok {
				v = "-"
			}
			f.SetCellValue(sheet, cell(colName(2+p), row), v)
		}
	}
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		c := cell(colName(i), 1)
		f.SetCellValue(sheet, c, h)
		f.SetCellStyle(sheet, c, c, style)
	}
}

// ── 辅助函数 ──

func gridKey(studentID int64, p int) string {
	return fmt.Sprintf("%d:%d", studentID, p)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
