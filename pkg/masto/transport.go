package masto

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// PageLinks holds the pagination URLs advertised by a response. An empty
// field means that direction is exhausted.
type PageLinks struct {
	Next     string `json:"next,omitempty"     yaml:"next,omitempty"`
	Previous string `json:"previous,omitempty" yaml:"previous,omitempty"`
}

// Response is a completed transport call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Links      PageLinks
}

// RequestOptions are per-request transport settings.
type RequestOptions struct {
	Headers map[string]string
}

// RequestOption configures RequestOptions.
type RequestOption func(*RequestOptions)

// WithRequestHeader sets one request header.
func WithRequestHeader(key, value string) RequestOption {
	return func(opts *RequestOptions) {
		if opts.Headers == nil {
			opts.Headers = make(map[string]string)
		}

		opts.Headers[key] = value
	}
}

// WithRequestHeaders sets several request headers.
func WithRequestHeaders(headers map[string]string) RequestOption {
	return func(opts *RequestOptions) {
		for key, value := range headers {
			WithRequestHeader(key, value)(opts)
		}
	}
}

// ApplyRequestOptions folds opts into a RequestOptions value.
func ApplyRequestOptions(opts ...RequestOption) RequestOptions {
	var options RequestOptions

	for _, opt := range opts {
		opt(&options)
	}

	return options
}

// Getter is the read half of a Transport. It is all a Paginator needs.
type Getter interface {
	Get(ctx context.Context, path string, query url.Values, opts ...RequestOption) (*Response, error)
}

// Transport performs HTTP calls against an instance. Non-2xx responses fail
// with *HTTPError; network and decoding failures are returned as-is. A path
// that is an absolute URL is requested verbatim.
//
// Bodies: nil sends no body, *MultipartForm is sent as multipart/form-data,
// anything else is JSON encoded.
type Transport interface {
	Getter
	Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error)
	Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error)
	Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error)
	Delete(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error)
}

// MultipartFile is a file part of a multipart form.
type MultipartFile struct {
	FieldName string
	FileName  string
	Reader    io.Reader
}

// MultipartForm is a request body sent as multipart/form-data.
type MultipartForm struct {
	Fields url.Values
	Files  []MultipartFile
}
