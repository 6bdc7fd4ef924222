package masto

import (
	"context"
	"time"
)

// MediaClient manages media attachments.
type MediaClient interface {
	// Create uploads a file and waits until the server has processed it.
	Create(ctx context.Context, params *CreateMediaParams, opts ...ActionOption) (*MediaAttachment, error)
	Get(ctx context.Context, id string) (*MediaAttachment, error)
	Update(ctx context.Context, id string, params *UpdateMediaParams) (*MediaAttachment, error)
}

// NotificationPolicyClient manages the notification filtering policy.
type NotificationPolicyClient interface {
	Get(ctx context.Context) (*NotificationPolicy, error)
	Update(ctx context.Context, params *UpdateNotificationPolicyParams) (*NotificationPolicy, error)
}

// NotificationRequestsClient manages filtered notification requests.
type NotificationRequestsClient interface {
	List(params *PaginationParams) *Paginator[NotificationRequest]
	Get(ctx context.Context, id string) (*NotificationRequest, error)
	Accept(ctx context.Context, id string) error
	Dismiss(ctx context.Context, id string) error
}

// NotificationsClient manages the authenticated user's notifications.
type NotificationsClient interface {
	List(params *ListNotificationsParams) *Paginator[Notification]
	Get(ctx context.Context, id string) (*Notification, error)
	Dismiss(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Policy() NotificationPolicyClient
	Requests() NotificationRequestsClient
}

// InstanceClient reads instance metadata.
type InstanceClient interface {
	ExtendedDescription(ctx context.Context) (*ExtendedDescription, error)
}

// Client is the Mastodon API client.
type Client interface {
	Media() MediaClient
	Notifications() NotificationsClient
	Instance() InstanceClient
	// Dispatcher exposes the action dispatcher for endpoints without a
	// dedicated resource client.
	Dispatcher() ActionDispatcher
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ActionOutcome classifies how a dispatch ended.
type ActionOutcome string

// Action outcomes.
const (
	OutcomeSucceeded ActionOutcome = "succeeded"
	OutcomeFailed    ActionOutcome = "failed"
	OutcomeTimedOut  ActionOutcome = "timed_out"
	OutcomeCanceled  ActionOutcome = "canceled"
)

// ActionEvent describes one finished dispatch.
type ActionEvent struct {
	Type         ActionType    `json:"type"`
	Path         string        `json:"path"`
	Outcome      ActionOutcome `json:"outcome"`
	StatusCode   int           `json:"status_code,omitempty"`
	PollAttempts int           `json:"poll_attempts,omitempty"`
	Duration     time.Duration `json:"duration"`
	Error        string        `json:"error,omitempty"`
	FinishedAt   time.Time     `json:"finished_at"`
}

// ActionObserver receives an event after every dispatch. Implementations must
// not block for long; failures are theirs to log.
type ActionObserver interface {
	ObserveAction(ctx context.Context, event ActionEvent)
}

// Config represents client configuration for building a masto.Client.
//
// # Authentication precedence
//
//  1. AccessToken: used directly as a static Bearer token. When a
//     RefreshToken is also present the token is refreshed on expiry.
//  2. ClientID/ClientSecret: the OAuth2 client_credentials grant against
//     TokenURL (an app token, enough for public endpoints).
//  3. No credentials: requests are sent without authentication.
//
// # Media processing
//
// Uploads to /api/v2/media may return before the server has processed the
// file. The client then polls the attachment every MediaPollInterval (doubling
// up to MediaPollMaxInterval when set) until it is fetchable or MediaTimeout
// elapses.
type Config struct {
	// InstanceURL: base URL of the instance (e.g., "https://mastodon.social").
	// mastoclient.New adds "https://" when no scheme is present.
	InstanceURL string

	AccessToken  string
	RefreshToken string
	ClientID     string
	ClientSecret string
	// TokenURL defaults to "<InstanceURL>/oauth/token".
	TokenURL string
	Scopes   []string

	// HTTPTimeout bounds every HTTP round trip. Zero keeps the transport default.
	HTTPTimeout time.Duration
	// RetryMax enables transport retries for 429/5xx and connection errors.
	// Zero disables retries.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// Debug enables verbose HTTP request/response logging when a Logger is provided.
	Debug     bool
	Logger    Logger
	UserAgent string

	MediaTimeout         time.Duration
	MediaPollInterval    time.Duration
	MediaPollMaxInterval time.Duration

	// RateLimitWarnThreshold logs a warning when X-RateLimit-Remaining drops
	// below it. Zero disables the check.
	RateLimitWarnThreshold int

	// Observer receives an ActionEvent after every dispatch.
	Observer ActionObserver
}
