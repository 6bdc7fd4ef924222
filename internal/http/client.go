package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/masto-client/internal/auth"
	"github.com/fivetwenty-io/masto-client/internal/constants"
	"github.com/fivetwenty-io/masto-client/pkg/masto"
	"github.com/hashicorp/go-retryablehttp"
)

const defaultUserAgent = "masto-client-go/1.0.0"

// Request is a single HTTP call against the instance.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Headers map[string]string
}

// Client is the instance transport. It implements masto.Transport.
type Client struct {
	baseURL      string
	httpClient   *retryablehttp.Client
	tokenManager auth.TokenManager
	logger       masto.Logger
	debug        bool
	userAgent    string
	interceptors *masto.InterceptorChain
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger masto.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig enables retries of 429, 5xx and connection failures.
// Retries are off unless this option sets retryMax above zero.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithHTTPTimeout bounds every round trip.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithInterceptors runs chain around every request.
func WithInterceptors(chain *masto.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a transport for baseURL. tokenManager may be nil for
// unauthenticated access.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.CheckRetry = retryablehttp.DefaultRetryPolicy
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   retryClient,
		tokenManager: tokenManager,
		userAgent:    defaultUserAgent,
		interceptors: masto.NewInterceptorChain(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.logger != nil {
		retryClient.Logger = &retryLogger{logger: client.logger}
		retryClient.RequestLogHook = client.logRetry
	}

	return client
}

// BaseURL returns the instance URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs req. A non-2xx status returns both the response and a
// *masto.HTTPError.
func (c *Client) Do(ctx context.Context, req *Request) (*masto.Response, error) {
	requestURL, err := c.resolveURL(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if c.tokenManager != nil {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting access token: %w", err)
		}

		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	intercepted := &masto.OutgoingRequest{
		Method:   req.Method,
		Path:     req.Path,
		Headers:  httpReq.Header,
		Metadata: make(map[string]interface{}),
	}

	err = c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
	if err != nil {
		return nil, err
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    requestURL,
		})
	}

	start := time.Now()

	resp, respErr := c.send(httpReq, req.Method, requestURL)

	if c.debug && c.logger != nil && resp != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":   resp.StatusCode,
			"duration": time.Since(start).String(),
			"size":     len(resp.Body),
		})
	}

	err = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, resp, respErr)
	if err != nil && respErr == nil {
		return resp, err
	}

	return resp, respErr
}

func (c *Client) send(httpReq *retryablehttp.Request, method, requestURL string) (*masto.Response, error) {
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, requestURL, err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &masto.Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
		Links:      ParseLinks(httpResp.Header.Values("Link")),
	}

	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		httpErr := masto.ParseHTTPError(httpResp.StatusCode, respBody)
		httpErr.Method = method
		httpErr.URL = requestURL

		return resp, httpErr
	}

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values, opts ...masto.RequestOption) (*masto.Response, error) {
	return c.Do(ctx, newRequest(http.MethodGet, path, query, nil, opts))
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...masto.RequestOption) (*masto.Response, error) {
	return c.Do(ctx, newRequest(http.MethodPost, path, nil, body, opts))
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...masto.RequestOption) (*masto.Response, error) {
	return c.Do(ctx, newRequest(http.MethodPut, path, nil, body, opts))
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body any, opts ...masto.RequestOption) (*masto.Response, error) {
	return c.Do(ctx, newRequest(http.MethodPatch, path, nil, body, opts))
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, body any, opts ...masto.RequestOption) (*masto.Response, error) {
	return c.Do(ctx, newRequest(http.MethodDelete, path, nil, body, opts))
}

func newRequest(method, path string, query url.Values, body any, opts []masto.RequestOption) *Request {
	options := masto.ApplyRequestOptions(opts...)

	return &Request{
		Method:  method,
		Path:    path,
		Query:   query,
		Body:    body,
		Headers: options.Headers,
	}
}

// resolveURL joins path to the base URL. Absolute URLs, such as pagination
// links, are used verbatim.
func (c *Client) resolveURL(path string, query url.Values) (string, error) {
	raw := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		raw = c.baseURL + "/" + strings.TrimPrefix(path, "/")
	}

	if len(query) == 0 {
		return raw, nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing request URL: %w", err)
	}

	values := parsed.Query()
	for key, vals := range query {
		for _, val := range vals {
			values.Add(key, val)
		}
	}

	parsed.RawQuery = values.Encode()

	return parsed.String(), nil
}

func encodeBody(body any) ([]byte, string, error) {
	switch payload := body.(type) {
	case nil:
		return nil, "", nil
	case *masto.MultipartForm:
		return encodeMultipart(payload)
	case url.Values:
		return []byte(payload.Encode()), "application/x-www-form-urlencoded", nil
	default:
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, "", fmt.Errorf("encoding request body: %w", err)
		}

		return encoded, "application/json", nil
	}
}

func (c *Client) logRetry(_ retryablehttp.Logger, req *http.Request, attempt int) {
	if attempt == 0 {
		return
	}

	c.logger.Warn("Retrying HTTP request", map[string]interface{}{
		"method":  req.Method,
		"url":     req.URL.Redacted(),
		"attempt": attempt,
	})
}

// retryLogger forwards retryablehttp warnings and errors. Its per-attempt
// debug chatter is dropped.
type retryLogger struct {
	logger masto.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fieldsFrom(keysAndValues))
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fieldsFrom(keysAndValues))
}

func fieldsFrom(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}

		fields[key] = keysAndValues[i+1]
	}

	return fields
}
