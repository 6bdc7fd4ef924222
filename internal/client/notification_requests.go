package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/masto-client/pkg/masto"
)

// NotificationRequestsClient implements masto.NotificationRequestsClient.
type NotificationRequestsClient struct {
	dispatcher masto.ActionDispatcher
	getter     masto.Getter
}

// NewNotificationRequestsClient creates a new notification requests client.
func NewNotificationRequestsClient(dispatcher masto.ActionDispatcher, getter masto.Getter) *NotificationRequestsClient {
	return &NotificationRequestsClient{
		dispatcher: dispatcher,
		getter:     getter,
	}
}

// List implements masto.NotificationRequestsClient.List.
func (c *NotificationRequestsClient) List(params *masto.PaginationParams) *masto.Paginator[masto.NotificationRequest] {
	return masto.NewPaginator[masto.NotificationRequest](c.getter, notificationRequestsPath, params.Values())
}

// Get implements masto.NotificationRequestsClient.Get.
func (c *NotificationRequestsClient) Get(ctx context.Context, id string) (*masto.NotificationRequest, error) {
	path, err := resourcePath(notificationRequestsPath, id)
	if err != nil {
		return nil, fmt.Errorf("getting notification request: %w", err)
	}

	request, err := masto.DispatchInto[masto.NotificationRequest](ctx, c.dispatcher, masto.NewAction(masto.ActionRead, path, nil))
	if err != nil {
		return nil, fmt.Errorf("getting notification request: %w", err)
	}

	return request, nil
}

// Accept implements masto.NotificationRequestsClient.Accept.
func (c *NotificationRequestsClient) Accept(ctx context.Context, id string) error {
	return c.act(ctx, id, "accept", "accepting notification request")
}

// Dismiss implements masto.NotificationRequestsClient.Dismiss.
func (c *NotificationRequestsClient) Dismiss(ctx context.Context, id string) error {
	return c.act(ctx, id, "dismiss", "dismissing notification request")
}

func (c *NotificationRequestsClient) act(ctx context.Context, id, verb, description string) error {
	path, err := resourcePath(notificationRequestsPath, id)
	if err != nil {
		return fmt.Errorf("%s: %w", description, err)
	}

	_, err = c.dispatcher.Dispatch(ctx, masto.NewAction(masto.ActionCreate, path+"/"+verb, nil))
	if err != nil {
		return fmt.Errorf("%s: %w", description, err)
	}

	return nil
}
