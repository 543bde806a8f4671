package delayed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs fire-and-forget callbacks after a delay. Pending callbacks
// are dropped on Stop.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[*time.Timer]struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *zap.Logger
}

func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		timers:  make(map[*time.Timer]struct{}),
		ctx:     ctx,
		cancel:  cancel,
		timeout: 30 * time.Second,
		logger:  logger,
	}
}

func (s *Scheduler) After(d time.Duration, name string, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}

	var timer *time.Timer
	s.wg.Add(1)
	timer = time.AfterFunc(d, func() {
		defer s.wg.Done()
		s.mu.Lock()
		delete(s.timers, timer)
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Warn("delayed task failed", zap.String("task", name), zap.Error(err))
		}
	})
	s.timers[timer] = struct{}{}
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels pending callbacks and waits for running ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.cancel()
	for timer := range s.timers {
		if timer.Stop() {
			s.wg.Done()
		}
		delete(s.timers, timer)
	}
	s.mu.Unlock()

	s.wg.Wait()
}
