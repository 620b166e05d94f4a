package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/DH0263/dittonweb-sub000/internal/service"
	"github.com/DH0263/dittonweb-sub000/pkg/response"
)

// SchoolHandler 在校（学校出勤）标记 HTTP 处理器
type SchoolHandler struct {
	svc service.SchoolService
}

// NewSchoolHandler 创建 SchoolHandler
func NewSchoolHandler(svc service.SchoolService) *SchoolHandler {
	return &SchoolHandler{svc: svc}
}

// Today 当日在校学生 ID 列表
// GET /api/v1/school-attendance/today
func (h *SchoolHandler) Today(c *gin.Context) {
	result, err := h.svc.Today(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// Mark 标记学生当日在校
// POST /api/v1/school-attendance/:student_id
func (h *SchoolHandler) Mark(c *gin.Context) {
	id, ok := parseIDParam(c, "student_id")
	if !ok {
		return
	}
	if err := h.svc.Mark(c.Request.Context(), id); err != nil {
		handleSchoolError(c, err)
		return
	}
	response.OK(c, nil)
}

// Unmark 取消在校标记
// DELETE /api/v1/school-attendance/:student_id
func (h *SchoolHandler) Unmark(c *gin.Context) {
	id, ok := parseIDParam(c, "student_id")
	if !ok {
		return
	}
	if err := h.svc.Unmark(c.Request.Context(), id); err != nil {
		handleSchoolError(c, err)
		return
	}
	response.OK(c, nil)
}

func handleSchoolError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrStudentNotFound) {
		response.NotFound(c, 12001, "学生不存在")
		return
	}
	response.InternalError(c)
}
