// Package dispatcher executes masto.Actions against a masto.Transport,
// waiting for asynchronously processed resources where needed.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/masto-client/internal/constants"
	"github.com/fivetwenty-io/masto-client/pkg/masto"
)

// Dispatcher turns Actions into transport calls. Its fields are read-only
// after New, so one Dispatcher serves concurrent dispatches.
type Dispatcher struct {
	transport       masto.Transport
	mediaTimeout    time.Duration
	pollInterval    time.Duration
	pollMaxInterval time.Duration
	rules           []CompletionRule
	logger          masto.Logger
	observer        masto.ActionObserver
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMediaTimeout sets the default processing budget. Zero gives up after
// the first "still processing" answer.
func WithMediaTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout >= 0 {
			d.mediaTimeout = timeout
		}
	}
}

// WithPollInterval sets the wait between processing checks. When maxInterval
// exceeds interval the wait doubles after every check up to maxInterval.
func WithPollInterval(interval, maxInterval time.Duration) Option {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.pollInterval = interval
		}

		d.pollMaxInterval = maxInterval
	}
}

// WithCompletionRules replaces the rules that detect pending creates.
func WithCompletionRules(rules ...CompletionRule) Option {
	return func(d *Dispatcher) {
		d.rules = rules
	}
}

// WithLogger sets the logger.
func WithLogger(logger masto.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithObserver receives an event after every dispatch.
func WithObserver(observer masto.ActionObserver) Option {
	return func(d *Dispatcher) {
		d.observer = observer
	}
}

// New creates a Dispatcher.
func New(transport masto.Transport, opts ...Option) *Dispatcher {
	dispatcher := &Dispatcher{
		transport:    transport,
		mediaTimeout: constants.DefaultMediaTimeout,
		pollInterval: constants.DefaultMediaPollInterval,
		rules:        DefaultCompletionRules(),
		logger:       nopLogger{},
	}

	for _, opt := range opts {
		opt(dispatcher)
	}

	return dispatcher
}

// Dispatch executes action. Transport errors are returned unchanged; the
// only errors Dispatch creates itself are *masto.TimeoutError and
// masto.ErrCanceled from a media wait, plus ErrUnsupportedActionType and
// ErrUnsupportedQuery for malformed actions.
func (d *Dispatcher) Dispatch(ctx context.Context, action masto.Action) (*masto.Response, error) {
	start := time.Now()

	resp, attempts, err := d.dispatch(ctx, action)

	d.observe(ctx, action, start, resp, attempts, err)

	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, action masto.Action) (*masto.Response, int, error) {
	opts := action.RequestOptions()

	switch action.Type {
	case masto.ActionRead:
		query, err := masto.QueryValues(action.Data)
		if err != nil {
			return nil, 0, err
		}

		resp, err := d.call(ctx, action.Meta.Timeout, func(callCtx context.Context) (*masto.Response, error) {
			return d.transport.Get(callCtx, action.Path, query, opts...)
		})

		return resp, 0, err
	case masto.ActionCreate:
		return d.create(ctx, action)
	case masto.ActionUpdate:
		resp, err := d.call(ctx, action.Meta.Timeout, func(callCtx context.Context) (*masto.Response, error) {
			return d.transport.Patch(callCtx, action.Path, action.Data, opts...)
		})

		return resp, 0, err
	case masto.ActionReplace:
		resp, err := d.call(ctx, action.Meta.Timeout, func(callCtx context.Context) (*masto.Response, error) {
			return d.transport.Put(callCtx, action.Path, action.Data, opts...)
		})

		return resp, 0, err
	case masto.ActionDelete:
		resp, err := d.call(ctx, action.Meta.Timeout, func(callCtx context.Context) (*masto.Response, error) {
			return d.transport.Delete(callCtx, action.Path, action.Data, opts...)
		})

		return resp, 0, err
	default:
		return nil, 0, fmt.Errorf("%w: %q", masto.ErrUnsupportedActionType, action.Type)
	}
}

func (d *Dispatcher) create(ctx context.Context, action masto.Action) (*masto.Response, int, error) {
	resp, err := d.call(ctx, action.Meta.Timeout, func(callCtx context.Context) (*masto.Response, error) {
		return d.transport.Post(callCtx, action.Path, action.Data, action.RequestOptions()...)
	})
	if err != nil {
		return resp, 0, err
	}

	fetchPath, pending := pendingFetchPath(d.rules, action.Path, resp.Body)
	if !pending {
		return resp, 0, nil
	}

	budget := d.mediaTimeout

	switch {
	case action.Meta.MediaTimeout > 0:
		budget = action.Meta.MediaTimeout
	case action.Meta.MediaTimeout < 0:
		budget = 0
	}

	d.logger.Debug("Waiting for media processing", map[string]interface{}{
		"path":    fetchPath,
		"timeout": budget.String(),
	})

	p := &poller{dispatcher: d, interval: d.pollInterval, maxInterval: d.pollMaxInterval}

	return p.wait(ctx, fetchPath, budget, action)
}

// call runs one transport call, bounded by timeout when it is positive.
func (d *Dispatcher) call(ctx context.Context, timeout time.Duration, fn func(context.Context) (*masto.Response, error)) (*masto.Response, error) {
	if timeout <= 0 {
		return fn(ctx)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return fn(callCtx)
}

func (d *Dispatcher) observe(ctx context.Context, action masto.Action, start time.Time, resp *masto.Response, attempts int, err error) {
	if d.observer == nil {
		return
	}

	event := masto.ActionEvent{
		Type:         action.Type,
		Path:         action.Path,
		Outcome:      masto.OutcomeSucceeded,
		PollAttempts: attempts,
		Duration:     time.Since(start),
		FinishedAt:   time.Now(),
	}

	if resp != nil {
		event.StatusCode = resp.StatusCode
	}

	if err != nil {
		event.Error = err.Error()

		httpErr := &masto.HTTPError{}

		switch {
		case masto.IsTimeout(err):
			event.Outcome = masto.OutcomeTimedOut
		case masto.IsCanceled(err):
			event.Outcome = masto.OutcomeCanceled
		case errors.As(err, &httpErr):
			event.Outcome = masto.OutcomeFailed
			event.StatusCode = httpErr.StatusCode
		default:
			event.Outcome = masto.OutcomeFailed
		}
	}

	d.observer.ObserveAction(context.WithoutCancel(ctx), event)
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}

func (nopLogger) Info(string, map[string]interface{}) {}

func (nopLogger) Warn(string, map[string]interface{}) {}

func (nopLogger) Error(string, map[string]interface{}) {}
