package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/DH0263/dittonweb-sub000/internal/dto"
	"github.com/DH0263/dittonweb-sub000/internal/service"
	"github.com/DH0263/dittonweb-sub000/pkg/response"
)

// PatrolHandler 巡查会话 HTTP 处理器
type PatrolHandler struct {
	svc service.PatrolService
}

// NewPatrolHandler 创建 PatrolHandler
func NewPatrolHandler(svc service.PatrolService) *PatrolHandler {
	return &PatrolHandler{svc: svc}
}

// Start 开始巡查（当日已有进行中的会话时返回 200 + existing=true）
// POST /api/v1/patrols/start
func (h *PatrolHandler) Start(c *gin.Context) {
	var req dto.StartPatrolRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		handleBindError(c, err)
		return
	}
	if req.InspectorName == "" {
		req.InspectorName = GetStaffName(c)
	}

	result, err := h.svc.Start(c.Request.Context(), req.InspectorName)
	if err != nil {
		response.InternalError(c)
		return
	}
	if result.Existing {
		response.OK(c, result)
		return
	}
	response.Created(c, result)
}

// Current 当日进行中的巡查，没有时 data 为 null
// GET /api/v1/patrols/current
func (h *PatrolHandler) Current(c *gin.Context) {
	result, err := h.svc.Current(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	if result == nil {
		response.OK(c, nil)
		return
	}
	response.OK(c, result)
}

// End 正常结束巡查
// POST /api/v1/patrols/:id/end
func (h *PatrolHandler) End(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.EndPatrolRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		handleBindError(c, err)
		return
	}

	result, err := h.svc.End(c.Request.Context(), id, &req)
	if err != nil {
		handlePatrolError(c, err)
		return
	}
	response.OK(c, result)
}

// ForceEnd 强制结束巡查（幂等）
// POST /api/v1/patrols/:id/force-end
func (h *PatrolHandler) ForceEnd(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ForceEndRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		handleBindError(c, err)
		return
	}

	result, err := h.svc.ForceEnd(c.Request.Context(), id, req.Notes)
	if err != nil {
		handlePatrolError(c, err)
		return
	}
	if result.AlreadyEnded {
		response.OKWithMessage(c, "巡查会话已结束", result)
		return
	}
	response.OK(c, result)
}

// List 巡查历史
// GET /api/v1/patrols?date=&limit=
func (h *PatrolHandler) List(c *gin.Context) {
	var req dto.PatrolListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.svc.List(c.Request.Context(), &req)
	if err != nil {
		handlePatrolError(c, err)
		return
	}
	response.OK(c, result)
}

func handlePatrolError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPatrolNotFound):
		response.NotFound(c, 13001, "巡查会话不存在")
	case errors.Is(err, service.ErrPatrolAlreadyEnded):
		response.BadRequest(c, 13002, "巡查会话已结束")
	case errors.Is(err, service.ErrPatrolNotActive):
		response.Conflict(c, 13003, "巡查会话未在进行中")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 10001, "日期格式应为 YYYY-MM-DD")
	default:
		response.InternalError(c)
	}
}
