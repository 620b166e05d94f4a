package errors

import (
	"errors"
	"fmt"
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// PeriodMismatchType 教时不一致拒绝在响应 data.type 中的标识
const PeriodMismatchType = "period_mismatch"

// PeriodMismatchError 提交的教时与当前时钟教时不一致
// 服务端在 force=false 时返回；控制台据此弹出确认，再以 force=true 重发
type PeriodMismatchError struct {
	Requested int
	Current   *int // nil 表示当前不在任何教时窗口内
	Message   string
}

func (e *PeriodMismatchError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Current == nil {
		return fmt.Sprintf("period mismatch: requested %d, not class time", e.Requested)
	}
	return fmt.Sprintf("period mismatch: requested %d, current %d", e.Requested, *e.Current)
}

// AsPeriodMismatch 从错误链中提取教时不一致错误
func AsPeriodMismatch(err error) (*PeriodMismatchError, bool) {
	var pm *PeriodMismatchError
	if errors.As(err, &pm) {
		return pm, true
	}
	return nil, false
}
