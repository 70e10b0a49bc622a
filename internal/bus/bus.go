// Package bus publishes grading events to NATS so operator tooling can react
// to deliveries and automated-grading failures without polling the API.
package bus

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event is the envelope published for every grading notification.
type Event struct {
	Kind       string    `json:"kind"`
	EssayID    uint      `json:"essay_id"`
	StudentID  string    `json:"student_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Event kinds.
const (
	EventOmrFailed      = "omr.failed"
	EventOmrCompleted   = "omr.completed"
	EventDeliveryFailed = "delivery.failed"
)

// Publisher emits grading events. A nil-conn publisher drops events, which
// keeps NATS optional in tests and single-node deployments.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewPublisher wires a publisher over an existing connection. conn may be
// nil. The subject prefix defaults to "escrivo.grading".
func NewPublisher(conn *nats.Conn, subjectPrefix string, logger zerolog.Logger) *Publisher {
	prefix := strings.Trim(subjectPrefix, ".")
	if prefix == "" {
		prefix = "escrivo.grading"
	}

	return &Publisher{
		conn:    conn,
		subject: prefix,
		logger:  logger.With().Str("component", "bus").Logger(),
	}
}

// Publish sends the event on "<prefix>.<kind>". Failures are logged, not
// returned: notifications are best-effort and must never fail a grading
// operation.
func (p *Publisher) Publish(event Event) {
	if p == nil || p.conn == nil {
		return
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("kind", event.Kind).Msg("failed to encode bus event")
		return
	}

	subject := fmt.Sprintf("%s.%s", p.subject, event.Kind)
	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish bus event")
	}
}
