package masto

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// ActionType is the verb of an Action.
type ActionType string

// Supported action types.
const (
	ActionCreate  ActionType = "create"
	ActionRead    ActionType = "read"
	ActionUpdate  ActionType = "update"
	ActionReplace ActionType = "replace"
	ActionDelete  ActionType = "delete"
)

// String implements fmt.Stringer.
func (t ActionType) String() string {
	return string(t)
}

// ActionMeta carries per-call request options.
type ActionMeta struct {
	// MediaTimeout overrides the dispatcher's media processing budget. Zero
	// means the dispatcher default; NoMediaWait reads the resource once and
	// fails with a TimeoutError if it is still processing.
	MediaTimeout time.Duration
	// Timeout bounds each individual transport call. Zero means no limit
	// beyond the caller's context.
	Timeout time.Duration
	// Headers are passed through to the transport.
	Headers map[string]string
	// IdempotencyKey is sent as the Idempotency-Key header.
	IdempotencyKey string
}

// Action describes one intended operation against a remote resource.
// Actions are values; the dispatcher never mutates them.
type Action struct {
	Type ActionType
	Path string
	Data any
	Meta ActionMeta
}

// ActionOption configures an Action's meta.
type ActionOption func(*ActionMeta)

// NoMediaWait is a MediaTimeout that gives up after the first read. Any
// negative value behaves the same.
const NoMediaWait time.Duration = -1

// WithMediaTimeout overrides the media processing budget for one action.
func WithMediaTimeout(timeout time.Duration) ActionOption {
	return func(meta *ActionMeta) {
		meta.MediaTimeout = timeout
	}
}

// WithRequestTimeout bounds each transport call made for the action.
func WithRequestTimeout(timeout time.Duration) ActionOption {
	return func(meta *ActionMeta) {
		meta.Timeout = timeout
	}
}

// WithHeader adds a pass-through header.
func WithHeader(key, value string) ActionOption {
	return func(meta *ActionMeta) {
		if meta.Headers == nil {
			meta.Headers = make(map[string]string)
		}

		meta.Headers[key] = value
	}
}

// WithIdempotencyKey sets the Idempotency-Key header.
func WithIdempotencyKey(key string) ActionOption {
	return func(meta *ActionMeta) {
		meta.IdempotencyKey = key
	}
}

// WithNewIdempotencyKey sets a random Idempotency-Key.
func WithNewIdempotencyKey() ActionOption {
	return WithIdempotencyKey(uuid.NewString())
}

// NewAction builds an Action. Header maps are copied so the caller may reuse
// them.
func NewAction(actionType ActionType, path string, data any, opts ...ActionOption) Action {
	var meta ActionMeta

	for _, opt := range opts {
		opt(&meta)
	}

	if meta.Headers != nil {
		meta.Headers = maps.Clone(meta.Headers)
	}

	return Action{
		Type: actionType,
		Path: path,
		Data: data,
		Meta: meta,
	}
}

// RequestOptions returns the transport options implied by the action's meta.
func (a Action) RequestOptions() []RequestOption {
	var opts []RequestOption

	if len(a.Meta.Headers) > 0 {
		opts = append(opts, WithRequestHeaders(a.Meta.Headers))
	}

	if a.Meta.IdempotencyKey != "" {
		opts = append(opts, WithRequestHeader("Idempotency-Key", a.Meta.IdempotencyKey))
	}

	return opts
}

// QueryEncoder is implemented by typed list parameters.
type QueryEncoder interface {
	Values() url.Values
}

// QueryValues converts read action data into query parameters.
func QueryValues(data any) (url.Values, error) {
	switch query := data.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return query, nil
	case QueryEncoder:
		return query.Values(), nil
	case map[string]string:
		values := make(url.Values, len(query))
		for key, value := range query {
			values.Set(key, value)
		}

		return values, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedQuery, data)
	}
}

// ActionDispatcher executes actions.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, action Action) (*Response, error)
}

// DispatchInto dispatches the action and decodes the JSON response into T.
func DispatchInto[T any](ctx context.Context, dispatcher ActionDispatcher, action Action) (*T, error) {
	resp, err := dispatcher.Dispatch(ctx, action)
	if err != nil {
		return nil, err
	}

	if len(resp.Body) == 0 {
		return nil, fmt.Errorf("%s %s: %w", action.Type, action.Path, ErrEmptyResponse)
	}

	var result T

	err = json.Unmarshal(resp.Body, &result)
	if err != nil {
		return nil, fmt.Errorf("parsing %s %s response: %w", action.Type, action.Path, err)
	}

	return &result, nil
}
