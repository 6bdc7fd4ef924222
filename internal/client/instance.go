package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/masto-client/pkg/masto"
)

const extendedDescriptionPath = "/api/v1/instance/extended_description"

// InstanceClient implements masto.InstanceClient.
type InstanceClient struct {
	dispatcher masto.ActionDispatcher
}

// NewInstanceClient creates a new instance client.
func NewInstanceClient(dispatcher masto.ActionDispatcher) *InstanceClient {
	return &InstanceClient{
		dispatcher: dispatcher,
	}
}

// ExtendedDescription implements masto.InstanceClient.ExtendedDescription.
func (c *InstanceClient) ExtendedDescription(ctx context.Context) (*masto.ExtendedDescription, error) {
	description, err := masto.DispatchInto[masto.ExtendedDescription](ctx, c.dispatcher,
		masto.NewAction(masto.ActionRead, extendedDescriptionPath, nil))
	if err != nil {
		return nil, fmt.Errorf("getting extended description: %w", err)
	}

	return description, nil
}
