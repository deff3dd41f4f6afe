package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// natsEnvelope wraps an event with the publishing node so a node can skip its
// own messages when mirroring.
type natsEnvelope struct {
	Source      string            `json:"source"`
	Event       NotificationEvent `json:"event"`
	PublishedAt time.Time         `json:"published_at"`
}

// NATSDelivery transports notifications over a NATS subject.
type NATSDelivery struct {
	conn    *nats.Conn
	subject string
	nodeID  string
	logger  zerolog.Logger
}

// NewNATSDelivery constructs the delivery for one subject.
func NewNATSDelivery(conn *nats.Conn, subject string, logger zerolog.Logger) *NATSDelivery {
	return &NATSDelivery{
		conn:    conn,
		subject: subject,
		nodeID:  uuid.NewString(),
		logger:  logger.With().Str("component", "nats_delivery").Logger(),
	}
}

// Send publishes one event.
func (d *NATSDelivery) Send(_ context.Context, event NotificationEvent) error {
	payload, err := json.Marshal(natsEnvelope{
		Source:      d.nodeID,
		Event:       event,
		PublishedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return d.conn.Publish(d.subject, payload)
}

// Mirror subscribes to the subject and hands events published by other nodes
// to the handler. The subscription drains when the context is cancelled.
func (d *NATSDelivery) Mirror(ctx context.Context, handler func(NotificationEvent)) {
	sub, err := d.conn.Subscribe(d.subject, func(msg *nats.Msg) {
		var envelope natsEnvelope
		if err := json.Unmarshal(msg.Data, &envelope); err != nil {
			d.logger.Warn().Err(err).Msg("invalid notification envelope")
			return
		}
		if envelope.Source == d.nodeID {
			return
		}
		handler(envelope.Event)
	})
	if err != nil {
		d.logger.Error().Err(err).Str("subject", d.subject).Msg("failed to subscribe to notification subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			d.logger.Warn().Err(err).Msg("failed to drain notification subscription")
		}
	}()
}
