package dispatcher_test

import (
	"context"
	"net/url"
	"sync"

	"github.com/fivetwenty-io/masto-client/pkg/masto"
)

type call struct {
	Method      string
	Path        string
	Query       url.Values
	Body        any
	Headers     map[string]string
	HasDeadline bool
}

type result struct {
	resp *masto.Response
	err  error
}

// fakeTransport replays scripted results per method and records every call.
// When a method's script runs out its last result repeats.
type fakeTransport struct {
	mu      sync.Mutex
	calls   []call
	scripts map[string][]result
	onGet   func(ctx context.Context, n int)
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{scripts: make(map[string][]result)}
}

func (f *fakeTransport) script(method string, results ...result) *fakeTransport {
	f.scripts[method] = append(f.scripts[method], results...)
	return f
}

func ok(body string) result {
	return result{resp: &masto.Response{StatusCode: 200, Body: []byte(body)}}
}

func accepted(body string) result {
	return result{resp: &masto.Response{StatusCode: 202, Body: []byte(body)}}
}

func notFound() result {
	return result{err: &masto.HTTPError{StatusCode: 404, Message: "Record not found"}}
}

func failed(err error) result {
	return result{err: err}
}

func (f *fakeTransport) next(ctx context.Context, method, path string, query url.Values, body any, opts []masto.RequestOption) (*masto.Response, error) {
	f.mu.Lock()

	_, hasDeadline := ctx.Deadline()
	f.calls = append(f.calls, call{
		Method:      method,
		Path:        path,
		Query:       query,
		Body:        body,
		Headers:     masto.ApplyRequestOptions(opts...).Headers,
		HasDeadline: hasDeadline,
	})

	results := f.scripts[method]
	n := f.count(method)

	var res result

	switch {
	case len(results) == 0:
		res = ok(`{}`)
	case n <= len(results):
		res = results[n-1]
	default:
		res = results[len(results)-1]
	}

	onGet := f.onGet

	f.mu.Unlock()

	if method == "GET" && onGet != nil {
		onGet(ctx, n)
	}

	return res.resp, res.err
}

func (f *fakeTransport) count(method string) int {
	n := 0

	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}

	return n
}

func (f *fakeTransport) Calls(method string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []call

	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}

	return out
}

func (f *fakeTransport) Get(ctx context.Context, path string, query url.Values, opts ...masto.RequestOption) (*masto.Response, error) {
	return f.next(ctx, "GET", path, query, nil, opts)
}

func (f *fakeTransport) Post(ctx context.Context, path string, body any, opts ...masto.RequestOption) (*masto.Response, error) {
	return f.next(ctx, "POST", path, nil, body, opts)
}

func (f *fakeTransport) Put(ctx context.Context, path string, body any, opts ...masto.RequestOption) (*masto.Response, error) {
	return f.next(ctx, "PUT", path, nil, body, opts)
}

func (f *fakeTransport) Patch(ctx context.Context, path string, body any, opts ...masto.RequestOption) (*masto.Response, error) {
	return f.next(ctx, "PATCH", path, nil, body, opts)
}

func (f *fakeTransport) Delete(ctx context.Context, path string, body any, opts ...masto.RequestOption) (*masto.Response, error) {
	return f.next(ctx, "DELETE", path, nil, body, opts)
}

type recordingObserver struct {
	mu     sync.Mutex
	events []masto.ActionEvent
}

func (o *recordingObserver) ObserveAction(ctx context.Context, event masto.ActionEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.events = append(o.events, event)
}
