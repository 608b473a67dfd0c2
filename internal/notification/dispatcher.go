package notification

import (
	"context"
	"sync"
	"time"

	"consultant-workflow/internal/common/logger"
)

// Dispatcher runs each Publish on its own goroutine so the triggering transition never
// waits on notification writes. The caller's cancellation does not abort a dispatch;
// each one gets its own timeout instead.
type Dispatcher struct {
	next    Publisher
	timeout time.Duration
	logger  logger.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(next Publisher, timeout time.Duration, log logger.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		next:    next,
		timeout: timeout,
		logger:  logger.ForComponent(log, "notification-dispatcher"),
	}
}

func (d *Dispatcher) Publish(ctx context.Context, ev Event) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("dispatcher closed, notification dropped", map[string]interface{}{
			"applicationId": ev.ApplicationID,
			"type":          ev.Type,
		})
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		d.next.Publish(dctx, ev)
	}()
}

// Wait blocks until all in-flight dispatches finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close stops accepting events and drains the in-flight ones.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}
