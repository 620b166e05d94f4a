package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/DH0263/dittonweb-sub000/internal/api/middleware"
	"github.com/DH0263/dittonweb-sub000/internal/dto"
	"github.com/DH0263/dittonweb-sub000/internal/service"
	pkgerrors "github.com/DH0263/dittonweb-sub000/pkg/errors"
	"github.com/DH0263/dittonweb-sub000/pkg/response"
)

// ── 出勤 ──

// AttendanceHandler 分教时出勤 HTTP 处理器
type AttendanceHandler struct {
	svc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(svc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{svc: svc}
}

// TodayByPeriod 当日 学生 → 教时 → 状态
// GET /api/v1/attendance-records/today/by-period
func (h *AttendanceHandler) TodayByPeriod(c *gin.Context) {
	result, err := h.svc.TodayByPeriod(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// BulkUpsert 批量写入某教时出勤
// POST /api/v1/attendance-records/period/bulk?period=&force=
func (h *AttendanceHandler) BulkUpsert(c *gin.Context) {
	var q dto.PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "period 必须在 1-7 之间")
		return
	}
	var req dto.BulkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	result, err := h.svc.BulkUpsert(c.Request.Context(), &q, &req)
	if err != nil {
		handleRecordError(c, err)
		return
	}
	response.OK(c, result)
}

// Completion 某教时出勤完成度
// GET /api/v1/attendance-records/check-completion/:period
func (h *AttendanceHandler) Completion(c *gin.Context) {
	p, err := strconv.Atoi(c.Param("period"))
	if err != nil {
		response.BadRequest(c, 10001, "period 无效")
		return
	}
	result, err := h.svc.Completion(c.Request.Context(), p)
	if err != nil {
		handleRecordError(c, err)
		return
	}
	response.OK(c, result)
}

// ── 手机上交 ──

// PhoneHandler 分教时手机上交 HTTP 处理器
type PhoneHandler struct {
	svc service.PhoneService
}

// NewPhoneHandler 创建 PhoneHandler
func NewPhoneHandler(svc service.PhoneService) *PhoneHandler {
	return &PhoneHandler{svc: svc}
}

// TodayByPeriod 当日 学生 → 教时 → 是否上交
// GET /api/v1/phone-submissions/today/by-period
func (h *PhoneHandler) TodayByPeriod(c *gin.Context) {
	result, err := h.svc.TodayByPeriod(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// BulkUpsert 批量写入某教时手机上交
// POST /api/v1/phone-submissions/period/bulk?period=&force=
func (h *PhoneHandler) BulkUpsert(c *gin.Context) {
	var q dto.PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "period 必须在 1-7 之间")
		return
	}
	var req dto.BulkPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}
	if req.CheckedBy == "" {
		req.CheckedBy = GetStaffName(c)
	}

	result, err := h.svc.BulkUpsert(c.Request.Context(), &q, &req)
	if err != nil {
		handleRecordError(c, err)
		return
	}
	response.OK(c, result)
}

// ── 错误映射 ──

func handleBindError(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	response.BadRequest(c, 10001, "参数校验失败")
}

func handleRecordError(c *gin.Context, err error) {
	if pm, ok := pkgerrors.AsPeriodMismatch(err); ok {
		response.ErrorWithData(c, http.StatusConflict, 14001, pm.Error(), dto.PeriodMismatchData{
			Type:            pkgerrors.PeriodMismatchType,
			CurrentPeriod:   pm.Current,
			RequestedPeriod: pm.Requested,
		})
		return
	}
	switch {
	case errors.Is(err, service.ErrInvalidPeriod):
		response.BadRequest(c, 14002, "教时必须在 1-7 之间")
	case errors.Is(err, service.ErrInvalidStatus):
		response.BadRequest(c, 14003, "出勤状态无效")
	case errors.Is(err, service.ErrUnknownStudent):
		response.BadRequest(c, 14004, "包含不存在或已退学的学生")
	case errors.Is(err, service.ErrEmptyBatch), errors.Is(err, service.ErrDuplicateStudents):
		response.BadRequest(c, 10001, err.Error())
	default:
		response.InternalError(c)
	}
}
