// Package natsbus shares change events between server instances over NATS.
package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mcoot/competition-console/internal/events"
	"github.com/mcoot/competition-console/internal/model"
)

// SubjectPrefix is the root of every subject the console publishes on
const SubjectPrefix = "compconsole"

// Config holds NATS connection settings
type Config struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns the default NATS configuration
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Name:          "competition-console",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Connect opens a NATS connection that logs disconnects and reconnects
func Connect(cfg Config, logger *slog.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Error("nats disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			logger.Error("nats error", slog.Any("error", err))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// Subject returns the subject an event is published on
func Subject(event model.Event) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, event.Topic, event.Type)
}

// WildcardSubject matches every console event
func WildcardSubject() string {
	return SubjectPrefix + ".>"
}

// ErrBadSubject is returned for subjects outside the console namespace
var ErrBadSubject = errors.New("natsbus: unrecognised subject")

// ParseSubject splits a subject into its topic and event type
func ParseSubject(subject string) (model.Topic, model.EventType, error) {
	parts := strings.Split(subject, ".")
	if len(parts) != 3 || parts[0] != SubjectPrefix {
		return "", "", ErrBadSubject
	}
	topic := model.Topic(parts[1])
	if !topic.Valid() {
		return "", "", ErrBadSubject
	}
	return topic, model.EventType(parts[2]), nil
}

// envelope is the wire form of an event; the payload is kept raw so relaying re-encodes it unchanged
type envelope struct {
	Type      model.EventType `json:"type"`
	Topic     model.Topic     `json:"topic"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Encode serialises an event for the wire
func Encode(event model.Event) ([]byte, error) {
	return json.Marshal(event)
}

// Decode parses a wire message back into an event
func Decode(data []byte) (model.Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return model.Event{}, fmt.Errorf("decode event: %w", err)
	}
	return model.Event{
		Type:      env.Type,
		Topic:     env.Topic,
		Timestamp: env.Timestamp,
		Payload:   env.Payload,
	}, nil
}

// Conn is the part of *nats.Conn the publisher needs
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher sends events to NATS
type Publisher struct {
	conn   Conn
	logger *slog.Logger
}

// Ensure Publisher implements events.Publisher
var _ events.Publisher = (*Publisher)(nil)

// NewPublisher creates a new NATS publisher
func NewPublisher(conn Conn, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger.With(slog.String("component", "nats-publisher")),
	}
}

// Publish sends the event; failures are logged and never reach the caller
func (p *Publisher) Publish(_ context.Context, event model.Event) {
	data, err := Encode(event)
	if err != nil {
		p.logger.Error("failed to encode event", slog.String("type", string(event.Type)), slog.Any("error", err))
		return
	}
	subject := Subject(event)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Error("failed to publish event", slog.String("subject", subject), slog.Any("error", err))
	}
}

// Relay forwards events received from NATS to a local publisher
type Relay struct {
	nc     *nats.Conn
	target events.Publisher
	logger *slog.Logger
	sub    *nats.Subscription
}

// NewRelay creates a relay delivering into target
func NewRelay(nc *nats.Conn, target events.Publisher, logger *slog.Logger) *Relay {
	return &Relay{
		nc:     nc,
		target: target,
		logger: logger.With(slog.String("component", "nats-relay")),
	}
}

// Start subscribes to every console subject
func (r *Relay) Start() error {
	sub, err := r.nc.Subscribe(WildcardSubject(), r.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", WildcardSubject(), err)
	}
	r.sub = sub
	r.logger.Info("nats relay started", slog.String("subject", WildcardSubject()))
	return nil
}

// Stop removes the subscription
func (r *Relay) Stop() error {
	if r.sub == nil {
		return nil
	}
	err := r.sub.Unsubscribe()
	r.sub = nil
	return err
}

func (r *Relay) handle(msg *nats.Msg) {
	event, err := r.Forward(msg.Subject, msg.Data)
	if err != nil {
		r.logger.Warn("dropping nats message",
			slog.String("subject", msg.Subject),
			slog.Any("error", err))
		return
	}
	r.logger.Debug("relayed event", slog.String("type", string(event.Type)))
}

// Forward decodes a message and delivers it to the target.
// The subject is authoritative for the topic and type.
func (r *Relay) Forward(subject string, data []byte) (model.Event, error) {
	topic, eventType, err := ParseSubject(subject)
	if err != nil {
		return model.Event{}, err
	}
	event, err := Decode(data)
	if err != nil {
		return model.Event{}, err
	}
	event.Topic = topic
	event.Type = eventType
	r.target.Publish(context.Background(), event)
	return event, nil
}
