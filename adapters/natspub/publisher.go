package natspub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
)

// DefaultSubject is used when no subject is configured
const DefaultSubject = "empathy.turns"

// Config configures the NATS publisher
type Config struct {
	URL         string
	Subject     string
	ServiceName string
	Timeout     time.Duration
}

// publisherConn is the part of *nats.Conn used here
type publisherConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// TurnPublisher publishes every finished turn as JSON on a subject
type TurnPublisher struct {
	conn    publisherConn
	subject string
	logger  *zap.Logger
}

var _ repositories.TurnPublisher = (*TurnPublisher)(nil)

// NewTurnPublisher connects to NATS with unbounded reconnects
func NewTurnPublisher(config Config, logger *zap.Logger) (*TurnPublisher, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("NATS URL is required")
	}
	if config.ServiceName == "" {
		config.ServiceName = "empathy-avatar"
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	logger = logger.Named("nats")

	conn, err := nats.Connect(config.URL,
		nats.Name(config.ServiceName),
		nats.Timeout(config.Timeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("Disconnected from NATS", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("Connected to NATS server", zap.String("url", config.URL))
	return newTurnPublisher(conn, config.Subject, logger), nil
}

func newTurnPublisher(conn publisherConn, subject string, logger *zap.Logger) *TurnPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &TurnPublisher{conn: conn, subject: subject, logger: logger}
}

// Publish implements repositories.TurnPublisher
func (p *TurnPublisher) Publish(ctx context.Context, event domain.TurnEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal turn event: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish turn event: %w", err)
	}

	p.logger.Debug("Published turn event", zap.String("subject", p.subject), zap.String("emotion", event.Emotion))
	return nil
}

// Close drains pending messages and closes the connection
func (p *TurnPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	p.logger.Info("NATS connection closed")
	return nil
}
