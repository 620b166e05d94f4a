package dto

import "time"

// PeriodWindowResponse 教时窗口
type PeriodWindowResponse struct {
	Period int    `json:"period"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// CurrentPeriodResponse 当前教时
type CurrentPeriodResponse struct {
	CurrentPeriod *int                  `json:"current_period"`
	IsClassTime   bool                  `json:"is_class_time"`
	ServerTime    time.Time             `json:"server_time"`
	Window        *PeriodWindowResponse `json:"window,omitempty"`
}

// CalendarQuery 铃声日历查询
type CalendarQuery struct {
	Days int `form:"days"`
}

// ExportQuery 日报导出查询
type ExportQuery struct {
	Date string `form:"date"`
}
