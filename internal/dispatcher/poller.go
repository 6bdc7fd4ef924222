package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/fivetwenty-io/masto-client/pkg/masto"
)

// poller waits for a created resource to become readable. A 404 on the
// fetch path means "still processing"; every other outcome ends the wait.
type poller struct {
	dispatcher  *Dispatcher
	interval    time.Duration
	maxInterval time.Duration
}

// wait polls fetchPath until it reads successfully, budget elapses or ctx
// ends. The budget runs from the first "still processing" answer. Any error
// other than a 404 is returned unchanged, even if ctx ended meanwhile. It
// reports the number of reads issued.
func (p *poller) wait(ctx context.Context, fetchPath string, budget time.Duration, action masto.Action) (*masto.Response, int, error) {
	var deadline time.Time

	interval := p.interval
	attempts := 0

	if ctx.Err() != nil {
		return nil, attempts, canceled(ctx)
	}

	for {
		attempts++

		resp, err := p.dispatcher.call(ctx, action.Meta.Timeout, func(callCtx context.Context) (*masto.Response, error) {
			return p.dispatcher.transport.Get(callCtx, fetchPath, nil, action.RequestOptions()...)
		})
		if err == nil {
			return resp, attempts, nil
		}

		if !masto.IsNotFound(err) {
			return nil, attempts, err
		}

		if ctx.Err() != nil {
			return nil, attempts, canceled(ctx)
		}

		if deadline.IsZero() {
			deadline = time.Now().Add(budget)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, attempts, &masto.TimeoutError{Path: fetchPath, Timeout: budget, Attempts: attempts}
		}

		delay := min(interval, remaining)

		p.dispatcher.logger.Debug("Media still processing", map[string]interface{}{
			"path":      fetchPath,
			"attempt":   attempts,
			"remaining": remaining.String(),
			"next_poll": delay.String(),
		})

		timer := time.NewTimer(delay)

		select {
		case <-ctx.Done():
			timer.Stop()

			return nil, attempts, canceled(ctx)
		case <-timer.C:
		}

		interval = p.nextInterval(interval)
	}
}

func (p *poller) nextInterval(current time.Duration) time.Duration {
	if p.maxInterval <= p.interval {
		return p.interval
	}

	return min(current*2, p.maxInterval)
}

func canceled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", masto.ErrCanceled, ctx.Err())
}
