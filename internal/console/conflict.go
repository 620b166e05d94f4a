package console

import (
	"context"
	"errors"
	"sync"

	pkgerrors "github.com/DH0263/dittonweb-sub000/pkg/errors"
)

// Outcome 一次批量提交的结果
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeCommitted
	OutcomeNeedsConfirmation
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeNeedsConfirmation:
		return "needs_confirmation"
	case OutcomeFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// SendFunc 把一批修改提交到服务端
type SendFunc[V comparable] func(ctx context.Context, period int, entries []Entry[V], force bool) error

// PendingConfirmation 等待操作员确认的提交
type PendingConfirmation struct {
	Period        int
	Requested     int
	CurrentPeriod *int
	Reason        string
	EntryCount    int
}

type pendingCommit[V comparable] struct {
	period   int
	entries  []Entry[V]
	mismatch *pkgerrors.PeriodMismatchError
}

// ConflictGuard 批量提交协议：先以 force=false 提交，
// 遇到教时不一致则保存原样的载荷，等操作员确认后以 force=true 重发
type ConflictGuard[V comparable] struct {
	send SendFunc[V]

	mu      sync.Mutex
	pending *pendingCommit[V]
}

// NewConflictGuard 创建提交守卫
func NewConflictGuard[V comparable](send SendFunc[V]) *ConflictGuard[V] {
	return &ConflictGuard[V]{send: send}
}

// Commit 提交一批修改；空批次直接返回 ErrNoPendingChanges，不访问服务端
func (g *ConflictGuard[V]) Commit(ctx context.Context, period int, entries []Entry[V]) (Outcome, error) {
	if len(entries) == 0 {
		return OutcomeSkipped, ErrNoPendingChanges
	}

	payload := make([]Entry[V], len(entries))
	copy(payload, entries)

	err := g.send(ctx, period, payload, false)
	if err == nil {
		return OutcomeCommitted, nil
	}

	var mismatch *pkgerrors.PeriodMismatchError
	if errors.As(err, &mismatch) {
		g.mu.Lock()
		g.pending = &pendingCommit[V]{period: period, entries: payload, mismatch: mismatch}
		g.mu.Unlock()
		return OutcomeNeedsConfirmation, mismatch
	}

	return OutcomeFailed, err
}

// Confirm 以 force=true 重发被拒绝的同一批载荷
func (g *ConflictGuard[V]) Confirm(ctx context.Context) (Outcome, error) {
	g.mu.Lock()
	p := g.pending
	g.pending = nil
	g.mu.Unlock()

	if p == nil {
		return OutcomeSkipped, ErrNoPendingConfirmation
	}

	if err := g.send(ctx, p.period, p.entries, true); err != nil {
		return OutcomeFailed, err
	}
	return OutcomeCommitted, nil
}

// Decline 放弃待确认的提交；调用方的覆盖层保持不变
func (g *ConflictGuard[V]) Decline() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	had := g.pending != nil
	g.pending = nil
	return had
}

// Pending 当前待确认的提交
func (g *ConflictGuard[V]) Pending() *PendingConfirmation {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return nil
	}
	return &PendingConfirmation{
		Period:        g.pending.period,
		Requested:     g.pending.mismatch.Requested,
		CurrentPeriod: g.pending.mismatch.Current,
		Reason:        g.pending.mismatch.Error(),
		EntryCount:    len(g.pending.entries),
	}
}
