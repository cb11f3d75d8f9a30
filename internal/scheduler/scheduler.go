package scheduler

import (
	"context"
	"time"

	"microscalp/internal/logger"
)

// Aligned 按 K 线周期对齐执行任务：在每根 K 线收盘后（加 Offset 缓冲，
// 给交易所落盘留时间）触发一次。task 串行执行，不会重叠。
type Aligned struct {
	Interval       time.Duration
	Offset         time.Duration
	RunImmediately bool

	ctx   context.Context
	nowFn func() time.Time
}

func NewAligned(ctx context.Context, interval, offset time.Duration) *Aligned {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Aligned{
		Interval: interval,
		Offset:   offset,
		ctx:      ctx,
		nowFn:    time.Now,
	}
}

// Start 阻塞运行对齐循环，ctx 取消时在两次执行之间返回。
func (s *Aligned) Start(task func()) {
	if s == nil || task == nil {
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("scheduler: invalid interval=%s, exit", s.Interval)
		return
	}
	if s.Offset < 0 {
		s.Offset = 0
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}

	startAt := s.nowFn().UTC()
	logger.Infof("scheduler: aligned loop started interval=%s offset=%s run_immediately=%v",
		s.Interval, s.Offset, s.RunImmediately)

	if s.RunImmediately {
		task()
	}

	for {
		now := s.nowFn().UTC()
		nextClose, wakeAt, wait := s.nextWake(now)
		logger.Infof("scheduler: 下一根K线收盘=%s 将在=%s 执行 | uptime=%s",
			nextClose.Format(time.RFC3339),
			wakeAt.Format(time.RFC3339),
			now.Sub(startAt).Truncate(time.Second),
		)

		if wait <= 0 {
			task()
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			logger.Infof("scheduler: ctx done, exit")
			return
		case <-timer.C:
		}
		task()
	}
}

func (s *Aligned) nextWake(now time.Time) (nextClose, wakeAt time.Time, wait time.Duration) {
	now = now.UTC()
	nextClose = now.Truncate(s.Interval).Add(s.Interval)
	wakeAt = nextClose.Add(s.Offset)
	return nextClose, wakeAt, wakeAt.Sub(now)
}
