package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/DH0263/dittonweb-sub000/internal/dto"
	"github.com/DH0263/dittonweb-sub000/internal/service"
	"github.com/DH0263/dittonweb-sub000/pkg/response"
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportDaily 导出某日监督记录
// GET /api/v1/export/daily?date=YYYY-MM-DD
func (h *ExportHandler) ExportDaily(c *gin.Context) {
	var q dto.ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportDaily(c.Request.Context(), q.Date)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxMime, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 10001, "日期格式应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrExportNoStudents):
		response.NotFound(c, 16001, "没有在籍学生")
	default:
		response.InternalError(c)
	}
}
