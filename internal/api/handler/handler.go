package handler

import "github.com/DH0263/dittonweb-sub000/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth          *AuthHandler
	Supervision   *SupervisionHandler
	Attendance    *AttendanceHandler
	Phone         *PhoneHandler
	School        *SchoolHandler
	Patrol        *PatrolHandler
	AttitudeCheck *AttitudeCheckHandler
	System        *SystemHandler
	Export        *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:          NewAuthHandler(svc.Auth),
		Supervision:   NewSupervisionHandler(svc.Supervision),
		Attendance:    NewAttendanceHandler(svc.Attendance),
		Phone:         NewPhoneHandler(svc.Phone),
		School:        NewSchoolHandler(svc.School),
		Patrol:        NewPatrolHandler(svc.Patrol),
		AttitudeCheck: NewAttitudeCheckHandler(svc.AttitudeCheck),
		System:        NewSystemHandler(svc.Period),
		Export:        NewExportHandler(svc.Export),
	}
}
