package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/DH0263/dittonweb-sub000/internal/dto"
	"github.com/DH0263/dittonweb-sub000/internal/service"
	"github.com/DH0263/dittonweb-sub000/pkg/response"
)

const icsMime = "text/calendar; charset=utf-8"

// SystemHandler 教时与时钟 HTTP 处理器
type SystemHandler struct {
	svc service.PeriodService
}

// NewSystemHandler 创建 SystemHandler
func NewSystemHandler(svc service.PeriodService) *SystemHandler {
	return &SystemHandler{svc: svc}
}

// CurrentPeriod 服务端时钟下的当前教时
// GET /api/v1/system/current-period
func (h *SystemHandler) CurrentPeriod(c *gin.Context) {
	response.OK(c, h.svc.Current())
}

// Periods 教时表
// GET /api/v1/system/periods
func (h *SystemHandler) Periods(c *gin.Context) {
	response.OK(c, h.svc.Periods())
}

// Calendar 教时铃声日历（iCalendar）
// GET /api/v1/system/periods/calendar.ics?days=
func (h *SystemHandler) Calendar(c *gin.Context) {
	var q dto.CalendarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	body, filename := h.svc.Calendar(q.Days)
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, icsMime, body)
}
