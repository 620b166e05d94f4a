package model

import "time"

// Patrol 巡查会话表 — 对应 patrols
// 同一 patrol_date 至多一条 end_time IS NULL AND NOT force_ended（部分唯一索引）
type Patrol struct {
	ID            int64      `gorm:"primaryKey;autoIncrement"  json:"id"`
	PatrolDate    time.Time  `gorm:"type:date;not null"        json:"patrol_date"`
	StartTime     time.Time  `gorm:"not null"                  json:"start_time"`
	EndTime       *time.Time `gorm:"default:null"              json:"end_time"`
	InspectorName string     `gorm:"type:varchar(50);not null" json:"inspector_name"`
	Notes         string     `gorm:"type:text;not null"        json:"notes"`
	ForceEnded    bool       `gorm:"not null;default:false"    json:"force_ended"`
	BaseModel
}

// TableName 指定表名
func (Patrol) TableName() string { return "patrols" }

// Active 是否仍在进行
func (p *Patrol) Active() bool {
	return p.EndTime == nil && !p.ForceEnded
}
