package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/DH0263/dittonweb-sub000/internal/service"
	"github.com/DH0263/dittonweb-sub000/pkg/response"
)

// SupervisionHandler 监督面板 HTTP 处理器
type SupervisionHandler struct {
	svc service.SupervisionService
}

// NewSupervisionHandler 创建 SupervisionHandler
func NewSupervisionHandler(svc service.SupervisionService) *SupervisionHandler {
	return &SupervisionHandler{svc: svc}
}

// CurrentStatus 名册 + 基线状态
// GET /api/v1/supervision/current-status
func (h *SupervisionHandler) CurrentStatus(c *gin.Context) {
	result, err := h.svc.CurrentStatus(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}
