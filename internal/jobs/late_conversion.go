package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DH0263/dittonweb-sub000/internal/period"
)

// LateConverter 执行迟到 → 自习中 转换（AttendanceService 实现）
type LateConverter interface {
	ConvertLate(ctx context.Context, before int) (int64, error)
}

const (
	lateConversionInterval = 30 * time.Second
	lateConversionTimeout  = 10 * time.Second
)

// LateConversion 每个教时（2~7）开始后，把当日此前各教时的迟到记录改为自习中。
// 迟到只在其所在教时有效。
type LateConversion struct {
	conv   LateConverter
	sched  *period.Schedule
	logger *zap.Logger

	// 当日已处理到的教时，跨日重置
	day  string
	done int
}

// NewLateConversion 创建转换任务
func NewLateConversion(conv LateConverter, sched *period.Schedule, logger *zap.Logger) *LateConversion {
	return &LateConversion{conv: conv, sched: sched, logger: logger}
}

// Start 启动后台 ticker，ctx 取消时退出
func (j *LateConversion) Start(ctx context.Context) {
	ticker := time.NewTicker(lateConversionInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				j.Tick(ctx, now)
			}
		}
	}()
	j.logger.Info("迟到自动转换任务已启动")
}

// Tick 检查当前教时，进入新教时时执行一次转换；返回是否执行了转换
func (j *LateConversion) Tick(ctx context.Context, now time.Time) bool {
	now = now.In(j.sched.Location())
	day := j.sched.Today(now).Format("2006-01-02")
	if day != j.day {
		j.day = day
		j.done = period.First
	}

	p, ok := j.sched.Current(now)
	if !ok || p <= j.done {
		return false
	}

	tickCtx, cancel := context.WithTimeout(ctx, lateConversionTimeout)
	n, err := j.conv.ConvertLate(tickCtx, p)
	cancel()
	if err != nil {
		j.logger.Error("迟到自动转换失败", zap.Int("period", p), zap.Error(err))
		return false
	}
	j.done = p
	if n > 0 {
		j.logger.Info("迟到自动转换完成", zap.Int("period", p), zap.Int64("converted", n))
	}
	return true
}
