package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/okian/pulse/internal/domain/types"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
)

// Message headers set on every published view.
const (
	HeaderMatchID      = "Match-ID"
	HeaderMatchStatus  = "Match-Status"
	HeaderMatchVersion = "Match-Version"
)

// NATSConfig configures the NATS connection.
type NATSConfig struct {
	URL            string
	SubjectPrefix  string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// DefaultNATSConfig returns a config for a local server.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:            nats.DefaultURL,
		SubjectPrefix:  "pulse.matches",
		MaxReconnects:  -1, // Infinite
		ReconnectWait:  2 * time.Second,
		ConnectTimeout: 2 * time.Second,
	}
}

// msgConn is the part of *nats.Conn the publisher needs.
type msgConn interface {
	PublishMsg(m *nats.Msg) error
	Close()
}

// NATSPublisher publishes each view as JSON on <prefix>.<match id> using
// core NATS. Delivery is at most once.
type NATSPublisher struct {
	conn   msgConn
	prefix string
	logger logger.Logger
}

// NewNATSPublisher connects to cfg.URL.
func NewNATSPublisher(cfg NATSConfig, log logger.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("pulse"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn(context.Background(), "NATS disconnected", logger.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info(context.Background(), "NATS reconnected", logger.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error(context.Background(), "NATS error", logger.Error(err))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, cfg.URL, err)
	}
	return newNATSPublisher(nc, cfg.SubjectPrefix, log), nil
}

func newNATSPublisher(conn msgConn, prefix string, log logger.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix, logger: log}
}

// Subject returns the subject a match's views are published on.
func Subject(prefix, matchID string) string {
	return prefix + "." + matchID
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, view types.MatchView) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	data, err := json.Marshal(view)
	if err != nil {
		metrics.RecordBroadcastError()
		return fmt.Errorf("%w: marshal view: %w", ErrPublish, err)
	}

	subject := Subject(p.prefix, view.ID)
	err = p.conn.PublishMsg(&nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			HeaderMatchID:      []string{view.ID},
			HeaderMatchStatus:  []string{view.Status.String()},
			HeaderMatchVersion: []string{strconv.FormatUint(view.Version, 10)},
		},
	})
	if err != nil {
		metrics.RecordBroadcastError()
		return fmt.Errorf("%w: %s: %w", ErrPublish, subject, err)
	}

	metrics.RecordBroadcastPublished()
	p.logger.Debug(ctx, "published match view",
		logger.String("subject", subject),
		logger.Int("version", int(view.Version)),
	)
	return nil
}

// Close implements Publisher.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}

var _ Publisher = (*NATSPublisher)(nil)
