// Package events publishes verification status changes to the broker.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vetting/internal/platform/kafka"
	"vetting/internal/verification/models"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/circuit"
	"vetting/pkg/requestcontext"
)

// StatusChanged is the payload written for every status transition.
type StatusChanged struct {
	VerificationID id.VerificationID `json:"verification_id"`
	UserID         id.UserID         `json:"user_id"`
	ActorID        id.UserID         `json:"actor_id"`
	Action         string            `json:"action"`
	PreviousStatus models.Status     `json:"previous_status"`
	NewStatus      models.Status     `json:"new_status"`
	Reason         string            `json:"reason,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// Producer is the subset of the kafka producer used here.
type Producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Publisher writes StatusChanged events keyed by user so a user's events stay
// ordered within a partition. While the breaker is open, events are dropped
// except for one probe per cooldown.
type Publisher struct {
	producer Producer
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		p.breaker = b
	}
}

func NewPublisher(producer Producer, opts ...Option) *Publisher {
	p := &Publisher{
		producer: producer,
		breaker:  circuit.New("verification-events"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ErrCircuitOpen is returned while the broker is considered unavailable.
var ErrCircuitOpen = errors.New("verification events: circuit open")

func (p *Publisher) PublishStatusChanged(ctx context.Context, event StatusChanged) error {
	if !p.breaker.Allow() {
		return ErrCircuitOpen
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.UserID.String()),
		Value: value,
		Headers: map[string]string{
			"event_type": "verification.status_changed",
			"request_id": requestcontext.RequestID(ctx),
		},
	}
	if err := p.producer.Publish(ctx, msg); err != nil {
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.WarnContext(ctx, "verification event circuit opened",
				"breaker", p.breaker.Name(),
				"error", err,
			)
		}
		return fmt.Errorf("publish status event: %w", err)
	}
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.InfoContext(ctx, "verification event circuit closed", "breaker", p.breaker.Name())
	}
	return nil
}
