package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/masto-client/internal/constants"
	"github.com/fivetwenty-io/masto-client/pkg/masto"
)

// MediaClient implements masto.MediaClient.
type MediaClient struct {
	dispatcher masto.ActionDispatcher
}

// NewMediaClient creates a new media client.
func NewMediaClient(dispatcher masto.ActionDispatcher) *MediaClient {
	return &MediaClient{
		dispatcher: dispatcher,
	}
}

// Create implements masto.MediaClient.Create. It returns once the server has
// finished processing the upload or the media timeout elapses.
func (c *MediaClient) Create(ctx context.Context, params *masto.CreateMediaParams, opts ...masto.ActionOption) (*masto.MediaAttachment, error) {
	form, err := params.Form()
	if err != nil {
		return nil, fmt.Errorf("creating media: %w", err)
	}

	action := masto.NewAction(masto.ActionCreate, constants.MediaCreatePath, form, opts...)

	media, err := masto.DispatchInto[masto.MediaAttachment](ctx, c.dispatcher, action)
	if err != nil {
		return nil, fmt.Errorf("creating media: %w", err)
	}

	return media, nil
}

// Get implements masto.MediaClient.Get.
func (c *MediaClient) Get(ctx context.Context, id string) (*masto.MediaAttachment, error) {
	path, err := resourcePath(constants.MediaFetchPath, id)
	if err != nil {
		return nil, fmt.Errorf("getting media: %w", err)
	}

	media, err := masto.DispatchInto[masto.MediaAttachment](ctx, c.dispatcher, masto.NewAction(masto.ActionRead, path, nil))
	if err != nil {
		return nil, fmt.Errorf("getting media: %w", err)
	}

	return media, nil
}

// Update implements masto.MediaClient.Update.
func (c *MediaClient) Update(ctx context.Context, id string, params *masto.UpdateMediaParams) (*masto.MediaAttachment, error) {
	path, err := resourcePath(constants.MediaFetchPath, id)
	if err != nil {
		return nil, fmt.Errorf("updating media: %w", err)
	}

	media, err := masto.DispatchInto[masto.MediaAttachment](ctx, c.dispatcher, masto.NewAction(masto.ActionReplace, path, params))
	if err != nil {
		return nil, fmt.Errorf("updating media: %w", err)
	}

	return media, nil
}

// resourcePath joins base and an escaped id.
func resourcePath(base, id string) (string, error) {
	if id == "" {
		return "", masto.ErrIDRequired
	}

	return base + "/" + url.PathEscape(id), nil
}
