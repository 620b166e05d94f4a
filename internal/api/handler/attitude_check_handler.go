package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/DH0263/dittonweb-sub000/internal/dto"
	"github.com/DH0263/dittonweb-sub000/internal/service"
	"github.com/DH0263/dittonweb-sub000/pkg/response"
)

// AttitudeCheckHandler 态度检查 HTTP 处理器
type AttitudeCheckHandler struct {
	svc service.AttitudeCheckService
}

// NewAttitudeCheckHandler 创建 AttitudeCheckHandler
func NewAttitudeCheckHandler(svc service.AttitudeCheckService) *AttitudeCheckHandler {
	return &AttitudeCheckHandler{svc: svc}
}

// Create 记录一次态度检查
// POST /api/v1/attitude-checks
func (h *AttitudeCheckHandler) Create(c *gin.Context) {
	var req dto.CreateAttitudeCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	result, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		handleCheckError(c, err)
		return
	}
	response.Created(c, result)
}

// ListByPatrol 某次巡查的全部检查记录
// GET /api/v1/attitude-checks/patrol/:patrol_id
func (h *AttitudeCheckHandler) ListByPatrol(c *gin.Context) {
	id, ok := parseIDParam(c, "patrol_id")
	if !ok {
		return
	}
	result, err := h.svc.ListByPatrol(c.Request.Context(), id)
	if err != nil {
		handleCheckError(c, err)
		return
	}
	response.OK(c, result)
}

// Delete 删除检查记录（仅限进行中的巡查）
// DELETE /api/v1/attitude-checks/:id
func (h *AttitudeCheckHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		handleCheckError(c, err)
		return
	}
	response.OK(c, nil)
}

// Today 当日全部检查记录
// GET /api/v1/attitude-checks/today
func (h *AttitudeCheckHandler) Today(c *gin.Context) {
	result, err := h.svc.Today(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

func handleCheckError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCheckNotFound):
		response.NotFound(c, 15001, "态度检查记录不存在")
	case errors.Is(err, service.ErrCheckFinalized):
		response.Conflict(c, 15002, "所属巡查已结束，记录不可删除")
	case errors.Is(err, service.ErrInvalidCategory):
		response.BadRequest(c, 15003, "态度类别无效")
	case errors.Is(err, service.ErrPatrolNotActive):
		response.Conflict(c, 15004, "巡查会话未在进行中")
	case errors.Is(err, service.ErrPatrolNotFound):
		response.NotFound(c, 13001, "巡查会话不存在")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 12001, "学生不存在")
	default:
		response.InternalError(c)
	}
}
