// Package events publishes dispatcher action events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/masto-client/internal/constants"
	"github.com/fivetwenty-io/masto-client/pkg/masto"
	"github.com/nats-io/nats.go"
)

// Publisher is the subset of *nats.Conn the observer needs.
type Publisher interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSObserver publishes every masto.ActionEvent as JSON on
// <prefix>.<action type>. Publish failures are logged and dropped.
type NATSObserver struct {
	publisher Publisher
	prefix    string
	logger    masto.Logger
}

// NewNATSObserver wraps an existing publisher.
func NewNATSObserver(publisher Publisher, prefix string, logger masto.Logger) *NATSObserver {
	if prefix == "" {
		prefix = constants.DefaultEventSubjectPrefix
	}

	return &NATSObserver{
		publisher: publisher,
		prefix:    strings.TrimSuffix(prefix, "."),
		logger:    logger,
	}
}

// Connect dials the NATS server at url.
func Connect(url, prefix string, logger masto.Logger) (*NATSObserver, error) {
	conn, err := nats.Connect(url,
		nats.Name("masto-client"),
		nats.DrainTimeout(constants.EventsDrainTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil && logger != nil {
				logger.Warn("NATS disconnected", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	return NewNATSObserver(conn, prefix, logger), nil
}

// Subject returns the subject events of actionType are published on.
func (o *NATSObserver) Subject(actionType masto.ActionType) string {
	return o.prefix + "." + string(actionType)
}

// ObserveAction implements masto.ActionObserver.
func (o *NATSObserver) ObserveAction(ctx context.Context, event masto.ActionEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		o.warn("failed to encode action event", event, err)

		return
	}

	err = o.publisher.Publish(o.Subject(event.Type), data)
	if err != nil {
		o.warn("failed to publish action event", event, err)
	}
}

// Close drains pending publishes and closes the connection.
func (o *NATSObserver) Close() error {
	err := o.publisher.Drain()
	if err != nil {
		return fmt.Errorf("draining NATS connection: %w", err)
	}

	return nil
}

func (o *NATSObserver) warn(msg string, event masto.ActionEvent, err error) {
	if o.logger == nil {
		return
	}

	o.logger.Warn(msg, map[string]interface{}{
		"type":  string(event.Type),
		"path":  event.Path,
		"error": err.Error(),
	})
}
