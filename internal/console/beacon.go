package console

import (
	"sync"

	"go.uber.org/zap"
)

// ForceEndNote 强制结束时随信标发送的固定备注
const ForceEndNote = "강제종료 - 페이지 이탈"

// LeaveWarning 离开前提示
const LeaveWarning = "순찰이 진행 중입니다. 나가면 순찰이 강제 종료됩니다."

// Beacon 页面离开时的强制结束信标
// 仅当会话进行中且处于巡查模式时处于武装状态
type Beacon struct {
	patrol  *PatrolManager
	markers MarkerStore
	sender  ForceEndSender
	clock   Clock
	logger  *zap.Logger

	mu    sync.Mutex
	fired bool
}

// NewBeacon 创建信标
func NewBeacon(patrol *PatrolManager, markers MarkerStore, sender ForceEndSender, clock Clock, logger *zap.Logger) *Beacon {
	return &Beacon{
		patrol:  patrol,
		markers: markers,
		sender:  sender,
		clock:   clock,
		logger:  logger,
	}
}

// Armed 是否武装
func (b *Beacon) Armed(inPatrolMode bool) bool {
	return inPatrolMode && b.patrol.Active()
}

// BeforeLeave 可取消的离开提示；block=true 时应询问操作员是否留下
func (b *Beacon) BeforeLeave(inPatrolMode bool) (string, bool) {
	if !b.Armed(inPatrolMode) {
		return "", false
	}
	return LeaveWarning, true
}

// PageGone 无条件离开钩子：同步写入标记，发出一次尽力而为的强制结束，
// 再将会话置为 ForceEnded。返回是否触发
func (b *Beacon) PageGone(inPatrolMode bool) bool {
	if !b.Armed(inPatrolMode) {
		return false
	}

	session := b.patrol.Session()
	if session == nil {
		return false
	}

	b.mu.Lock()
	if b.fired {
		b.mu.Unlock()
		return false
	}
	b.fired = true
	b.mu.Unlock()

	marker := ForceEndMarker{PatrolID: session.ID, Timestamp: b.clock.Now()}
	if err := b.markers.Save(marker); err != nil {
		b.logger.Error("写入强制结束标记失败", zap.Int64("patrol_id", session.ID), zap.Error(err))
	}

	b.sender.SendForceEnd(session.ID, ForceEndNote)
	b.patrol.ForceEnd()

	b.logger.Warn("巡查因离开被强制结束", zap.Int64("patrol_id", session.ID))
	return true
}

// Rearm 新会话开始后允许再次触发
func (b *Beacon) Rearm() {
	b.mu.Lock()
	b.fired = false
	b.mu.Unlock()
}
