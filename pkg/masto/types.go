package masto

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"
)

// MediaType is the kind of a media attachment.
type MediaType string

// Media types.
const (
	MediaTypeUnknown MediaType = "unknown"
	MediaTypeImage   MediaType = "image"
	MediaTypeGifv    MediaType = "gifv"
	MediaTypeVideo   MediaType = "video"
	MediaTypeAudio   MediaType = "audio"
)

// MediaAttachment represents a file attached to a status.
// URL stays null until server-side processing finishes.
type MediaAttachment struct {
	ID          string         `json:"id"             yaml:"id"`
	Type        MediaType      `json:"type"           yaml:"type"`
	URL         *string        `json:"url"            yaml:"url"`
	PreviewURL  *string        `json:"preview_url"    yaml:"preview_url"`
	RemoteURL   *string        `json:"remote_url"     yaml:"remote_url"`
	Description *string        `json:"description"    yaml:"description"`
	Blurhash    *string        `json:"blurhash"       yaml:"blurhash"`
	Meta        map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Processed reports whether the attachment has a fetchable URL.
func (m *MediaAttachment) Processed() bool {
	return m.URL != nil && *m.URL != ""
}

// Account is the subset of account fields the client surfaces.
type Account struct {
	ID          string    `json:"id"           yaml:"id"`
	Username    string    `json:"username"     yaml:"username"`
	Acct        string    `json:"acct"         yaml:"acct"`
	DisplayName string    `json:"display_name" yaml:"display_name"`
	URL         string    `json:"url"          yaml:"url"`
	Avatar      string    `json:"avatar"       yaml:"avatar"`
	Bot         bool      `json:"bot"          yaml:"bot"`
	CreatedAt   time.Time `json:"created_at"   yaml:"created_at"`
}

// Status is the subset of status fields carried by notifications.
type Status struct {
	ID               string            `json:"id"                yaml:"id"`
	URI              string            `json:"uri"               yaml:"uri"`
	URL              *string           `json:"url"               yaml:"url"`
	Content          string            `json:"content"           yaml:"content"`
	Visibility       string            `json:"visibility"        yaml:"visibility"`
	SpoilerText      string            `json:"spoiler_text"      yaml:"spoiler_text"`
	CreatedAt        time.Time         `json:"created_at"        yaml:"created_at"`
	Account          Account           `json:"account"           yaml:"account"`
	MediaAttachments []MediaAttachment `json:"media_attachments" yaml:"media_attachments"`
}

// NotificationType is the event that triggered a notification.
type NotificationType string

// Notification types.
const (
	NotificationMention       NotificationType = "mention"
	NotificationStatus        NotificationType = "status"
	NotificationReblog        NotificationType = "reblog"
	NotificationFollow        NotificationType = "follow"
	NotificationFollowRequest NotificationType = "follow_request"
	NotificationFavourite     NotificationType = "favourite"
	NotificationPoll          NotificationType = "poll"
	NotificationUpdate        NotificationType = "update"
	NotificationAdminSignUp   NotificationType = "admin.sign_up"
	NotificationAdminReport   NotificationType = "admin.report"
)

// Notification is an event of relevance to the user.
type Notification struct {
	ID        string           `json:"id"                  yaml:"id"`
	Type      NotificationType `json:"type"                yaml:"type"`
	GroupKey  string           `json:"group_key,omitempty" yaml:"group_key,omitempty"`
	CreatedAt time.Time        `json:"created_at"          yaml:"created_at"`
	Account   Account          `json:"account"             yaml:"account"`
	Status    *Status          `json:"status,omitempty"    yaml:"status,omitempty"`
}

// NotificationPolicySummary counts filtered notifications.
type NotificationPolicySummary struct {
	// PendingRequestsCount is capped at 100 by the server.
	PendingRequestsCount      int `json:"pending_requests_count"      yaml:"pending_requests_count"`
	PendingNotificationsCount int `json:"pending_notifications_count" yaml:"pending_notifications_count"`
}

// NotificationPolicy is the user's notification filtering policy.
type NotificationPolicy struct {
	FilterNotFollowing    bool                      `json:"filter_not_following"    yaml:"filter_not_following"`
	FilterNotFollowers    bool                      `json:"filter_not_followers"    yaml:"filter_not_followers"`
	FilterNewAccounts     bool                      `json:"filter_new_accounts"     yaml:"filter_new_accounts"`
	FilterPrivateMentions bool                      `json:"filter_private_mentions" yaml:"filter_private_mentions"`
	Summary               NotificationPolicySummary `json:"summary"                 yaml:"summary"`
}

// NotificationRequest groups filtered notifications from one account.
type NotificationRequest struct {
	ID                 string    `json:"id"                    yaml:"id"`
	CreatedAt          time.Time `json:"created_at"            yaml:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"            yaml:"updated_at"`
	Account            Account   `json:"account"               yaml:"account"`
	NotificationsCount string    `json:"notifications_count"   yaml:"notifications_count"`
	LastStatus         *Status   `json:"last_status,omitempty" yaml:"last_status,omitempty"`
}

// ExtendedDescription is the instance's about page content.
type ExtendedDescription struct {
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
	// Content is rendered HTML.
	Content string `json:"content" yaml:"content"`
}

// PaginationParams are the common id-cursor list parameters.
type PaginationParams struct {
	MaxID   string
	SinceID string
	MinID   string
	Limit   int
}

// Values implements QueryEncoder.
func (p *PaginationParams) Values() url.Values {
	values := url.Values{}
	if p == nil {
		return values
	}

	if p.MaxID != "" {
		values.Set("max_id", p.MaxID)
	}

	if p.SinceID != "" {
		values.Set("since_id", p.SinceID)
	}

	if p.MinID != "" {
		values.Set("min_id", p.MinID)
	}

	if p.Limit > 0 {
		values.Set("limit", strconv.Itoa(p.Limit))
	}

	return values
}

// ListNotificationsParams filters the notifications list.
type ListNotificationsParams struct {
	PaginationParams

	// Types keeps only these notification types.
	Types        []NotificationType
	ExcludeTypes []NotificationType
	AccountID    string
}

// Values implements QueryEncoder.
func (p *ListNotificationsParams) Values() url.Values {
	if p == nil {
		return url.Values{}
	}

	values := p.PaginationParams.Values()

	for _, t := range p.Types {
		values.Add("types[]", string(t))
	}

	for _, t := range p.ExcludeTypes {
		values.Add("exclude_types[]", string(t))
	}

	if p.AccountID != "" {
		values.Set("account_id", p.AccountID)
	}

	return values
}

// UpdateNotificationPolicyParams changes filtering settings; nil fields are
// left untouched.
type UpdateNotificationPolicyParams struct {
	FilterNotFollowing    *bool `json:"filter_not_following,omitempty"`
	FilterNotFollowers    *bool `json:"filter_not_followers,omitempty"`
	FilterNewAccounts     *bool `json:"filter_new_accounts,omitempty"`
	FilterPrivateMentions *bool `json:"filter_private_mentions,omitempty"`
}

// Focus is a media focal point, each coordinate in [-1, 1].
type Focus struct {
	X float64
	Y float64
}

// String renders the focus the way the API expects ("x,y").
func (f Focus) String() string {
	return fmt.Sprintf("%s,%s", strconv.FormatFloat(f.X, 'f', -1, 64), strconv.FormatFloat(f.Y, 'f', -1, 64))
}

// CreateMediaParams describes an upload.
type CreateMediaParams struct {
	File        io.Reader
	FileName    string
	Description string
	Focus       *Focus
}

// Form builds the multipart body for the upload.
func (p *CreateMediaParams) Form() (*MultipartForm, error) {
	if p == nil || p.File == nil {
		return nil, ErrMediaFileRequired
	}

	fields := url.Values{}

	if p.Description != "" {
		fields.Set("description", p.Description)
	}

	if p.Focus != nil {
		fields.Set("focus", p.Focus.String())
	}

	fileName := p.FileName
	if fileName == "" {
		fileName = "file"
	}

	return &MultipartForm{
		Fields: fields,
		Files:  []MultipartFile{{FieldName: "file", FileName: fileName, Reader: p.File}},
	}, nil
}

// UpdateMediaParams changes an unattached media attachment.
type UpdateMediaParams struct {
	Description *string `json:"description,omitempty"`
	Focus       *string `json:"focus,omitempty"`
}
