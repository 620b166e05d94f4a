package apiclient

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BeaconSender 尽力而为地发送强制结束请求
// 发送在后台进行，不重试；进程退出前可用 Wait 给出短暂宽限
type BeaconSender struct {
	client  *Client
	timeout time.Duration
	logger  *zap.Logger

	wg sync.WaitGroup
}

// NewBeaconSender 创建信标发送器
func NewBeaconSender(client *Client, timeout time.Duration, logger *zap.Logger) *BeaconSender {
	return &BeaconSender{client: client, timeout: timeout, logger: logger}
}

// SendForceEnd 实现 console.ForceEndSender
func (s *BeaconSender) SendForceEnd(patrolID int64, note string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.client.ForceEndPatrol(ctx, patrolID, note); err != nil {
			s.logger.Warn("强制结束信标发送失败", zap.Int64("patrol_id", patrolID), zap.Error(err))
			return
		}
		s.logger.Info("强制结束信标已送达", zap.Int64("patrol_id", patrolID))
	}()
}

// Wait 等待在途信标，最多 grace；返回是否全部完成
func (s *BeaconSender) Wait(grace time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(grace):
		return false
	}
}
