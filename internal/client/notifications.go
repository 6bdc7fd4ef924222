package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/masto-client/pkg/masto"
)

const (
	notificationsPath        = "/api/v1/notifications"
	notificationPolicyPath   = notificationsPath + "/policy"
	notificationRequestsPath = notificationsPath + "/requests"
)

// NotificationsClient implements masto.NotificationsClient.
type NotificationsClient struct {
	dispatcher masto.ActionDispatcher
	getter     masto.Getter
	policy     *NotificationPolicyClient
	requests   *NotificationRequestsClient
}

// NewNotificationsClient creates a new notifications client. Lists page
// through getter directly; everything else goes through dispatcher.
func NewNotificationsClient(dispatcher masto.ActionDispatcher, getter masto.Getter) *NotificationsClient {
	return &NotificationsClient{
		dispatcher: dispatcher,
		getter:     getter,
		policy:     NewNotificationPolicyClient(dispatcher),
		requests:   NewNotificationRequestsClient(dispatcher, getter),
	}
}

// List implements masto.NotificationsClient.List.
func (c *NotificationsClient) List(params *masto.ListNotificationsParams) *masto.Paginator[masto.Notification] {
	return masto.NewPaginator[masto.Notification](c.getter, notificationsPath, params.Values())
}

// Get implements masto.NotificationsClient.Get.
func (c *NotificationsClient) Get(ctx context.Context, id string) (*masto.Notification, error) {
	path, err := resourcePath(notificationsPath, id)
	if err != nil {
		return nil, fmt.Errorf("getting notification: %w", err)
	}

	notification, err := masto.DispatchInto[masto.Notification](ctx, c.dispatcher, masto.NewAction(masto.ActionRead, path, nil))
	if err != nil {
		return nil, fmt.Errorf("getting notification: %w", err)
	}

	return notification, nil
}

// Dismiss implements masto.NotificationsClient.Dismiss.
func (c *NotificationsClient) Dismiss(ctx context.Context, id string) error {
	path, err := resourcePath(notificationsPath, id)
	if err != nil {
		return fmt.Errorf("dismissing notification: %w", err)
	}

	_, err = c.dispatcher.Dispatch(ctx, masto.NewAction(masto.ActionCreate, path+"/dismiss", nil))
	if err != nil {
		return fmt.Errorf("dismissing notification: %w", err)
	}

	return nil
}

// Clear implements masto.NotificationsClient.Clear.
func (c *NotificationsClient) Clear(ctx context.Context) error {
	_, err := c.dispatcher.Dispatch(ctx, masto.NewAction(masto.ActionCreate, notificationsPath+"/clear", nil))
	if err != nil {
		return fmt.Errorf("clearing notifications: %w", err)
	}

	return nil
}

// Policy implements masto.NotificationsClient.Policy.
func (c *NotificationsClient) Policy() masto.NotificationPolicyClient {
	return c.policy
}

// Requests implements masto.NotificationsClient.Requests.
func (c *NotificationsClient) Requests() masto.NotificationRequestsClient {
	return c.requests
}

// NotificationPolicyClient implements masto.NotificationPolicyClient.
type NotificationPolicyClient struct {
	dispatcher masto.ActionDispatcher
}

// NewNotificationPolicyClient creates a new notification policy client.
func NewNotificationPolicyClient(dispatcher masto.ActionDispatcher) *NotificationPolicyClient {
	return &NotificationPolicyClient{
		dispatcher: dispatcher,
	}
}

// Get implements masto.NotificationPolicyClient.Get.
func (c *NotificationPolicyClient) Get(ctx context.Context) (*masto.NotificationPolicy, error) {
	policy, err := masto.DispatchInto[masto.NotificationPolicy](ctx, c.dispatcher,
		masto.NewAction(masto.ActionRead, notificationPolicyPath, nil))
	if err != nil {
		return nil, fmt.Errorf("getting notification policy: %w", err)
	}

	return policy, nil
}

// Update implements masto.NotificationPolicyClient.Update.
func (c *NotificationPolicyClient) Update(ctx context.Context, params *masto.UpdateNotificationPolicyParams) (*masto.NotificationPolicy, error) {
	policy, err := masto.DispatchInto[masto.NotificationPolicy](ctx, c.dispatcher,
		masto.NewAction(masto.ActionUpdate, notificationPolicyPath, params))
	if err != nil {
		return nil, fmt.Errorf("updating notification policy: %w", err)
	}

	return policy, nil
}
