package messaging

import (
	"context"
	"errors"
	"fmt"

	"crypto-bubble-map-explorer/internal/infrastructure/config"
	"crypto-bubble-map-explorer/internal/infrastructure/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// ErrDisabled is returned when NATS is turned off in the configuration
var ErrDisabled = errors.New("nats is disabled")

// NATSConnection owns the connection shared by the consumer and the publisher
type NATSConnection struct {
	conn   *nats.Conn
	config *config.NATSConfig
	logger *logger.Logger
}

// NewNATSConnection creates an unconnected NATS connection holder
func NewNATSConnection(cfg *config.NATSConfig, logger *logger.Logger) *NATSConnection {
	return &NATSConnection{
		config: cfg,
		logger: logger.WithComponent("nats-connection"),
	}
}

// Connect connects to the NATS server. It is a no-op when NATS is disabled.
func (n *NATSConnection) Connect(ctx context.Context) error {
	if !n.config.Enabled {
		n.logger.Info("NATS is disabled, skipping connection")
		return nil
	}

	n.logger.Info("Connecting to NATS server", zap.String("url", n.config.URL))

	opts := []nats.Option{
		nats.Name("bubble-map-explorer"),
		nats.Timeout(n.config.ConnectTimeout),
		nats.ReconnectWait(n.config.ReconnectDelay),
		nats.MaxReconnects(n.config.ReconnectAttempts),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			n.logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		n.logger.Error("Failed to connect to NATS", zap.Error(err))
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	n.conn = conn
	n.logger.Info("Successfully connected to NATS", zap.String("url", conn.ConnectedUrl()))
	return nil
}

// Conn returns the underlying connection, nil when disabled or not connected
func (n *NATSConnection) Conn() *nats.Conn {
	return n.conn
}

// Enabled reports whether NATS is turned on
func (n *NATSConnection) Enabled() bool {
	return n.config.Enabled
}

// Subject joins the configured prefix and the given suffix
func (n *NATSConnection) Subject(suffix string) string {
	return fmt.Sprintf("%s.%s", n.config.SubjectPrefix, suffix)
}

// Close drains and closes the connection
func (n *NATSConnection) Close() error {
	if n.conn == nil {
		return nil
	}
	err := n.conn.Drain()
	if err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		n.logger.Warn("Failed to drain NATS connection", zap.Error(err))
		n.conn.Close()
	}
	n.conn = nil
	return nil
}

// IsConnected checks if connected to NATS
func (n *NATSConnection) IsConnected() bool {
	return n.conn != nil && n.conn.IsConnected()
}
