// Package events publishes PetBook domain events. Mail delivery is not done
// here: a mailer consumes the mail subjects and renders the messages.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects.
const (
	SubjectMailConfirm = "petbook.mail.confirm"
	SubjectMailReset   = "petbook.mail.reset"
	SubjectMailInvite  = "petbook.mail.invite"

	// StreamName holds every petbook.mail.* subject.
	StreamName = "PETBOOK_MAIL"
)

// MailLink asks for an e-mail carrying a single-use link.
type MailLink struct {
	To        string    `json:"to"`
	Name      string    `json:"name,omitempty"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Publisher sends v, JSON encoded, to subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
}

// ============================================================================
// NATS JetStream
// ============================================================================

// Bus publishes to NATS JetStream.
type Bus struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// Connect dials url and makes sure the mail stream exists.
func Connect(url string, opts ...nats.Option) (*Bus, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	if _, err := js.StreamInfo(StreamName); errors.Is(err, nats.ErrStreamNotFound) {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     StreamName,
			Subjects: []string{"petbook.mail.>"},
			MaxAge:   7 * 24 * time.Hour,
		})
		if err != nil {
			nc.Close()
			return nil, err
		}
	} else if err != nil {
		nc.Close()
		return nil, err
	}

	return &Bus{conn: nc, js: js}, nil
}

// Close drains the connection.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}

// Connected reports whether the NATS connection is up, for readiness.
func (b *Bus) Connected() bool {
	return b != nil && b.conn.IsConnected()
}

func (b *Bus) Publish(ctx context.Context, subject string, v any) error {
	if b == nil {
		return errors.New("events: nil bus")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = b.js.Publish(subject, data, nats.Context(ctx))
	return err
}

// ============================================================================
// Log
// ============================================================================

// LogPublisher writes events to a logger. It is used when no NATS URL is
// configured, so links can be copied from the logs in development.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.Logger.InfoContext(ctx, "event published",
		slog.String("subject", subject),
		slog.String("payload", string(data)),
	)
	return nil
}
