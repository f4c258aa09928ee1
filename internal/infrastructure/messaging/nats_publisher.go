package messaging

import (
	"encoding/json"
	"fmt"

	"crypto-bubble-map-explorer/internal/domain/entity"
	"crypto-bubble-map-explorer/internal/infrastructure/config"
	"crypto-bubble-map-explorer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// NATSPublisher publishes node events on <prefix>.node.<kind>
type NATSPublisher struct {
	nc     *NATSConnection
	config *config.NATSConfig
	logger *logger.Logger
}

// NewNATSPublisher creates a new NATS publisher
func NewNATSPublisher(nc *NATSConnection, cfg *config.NATSConfig, logger *logger.Logger) *NATSPublisher {
	return &NATSPublisher{
		nc:     nc,
		config: cfg,
		logger: logger.WithComponent("nats-publisher"),
	}
}

// SubjectFor returns the subject events of kind are published on
func (p *NATSPublisher) SubjectFor(kind entity.NodeEventKind) string {
	return p.nc.Subject(fmt.Sprintf("node.%s", kind))
}

// Publish sends ev as JSON. Events are dropped when publishing is disabled or
// the connection is down.
func (p *NATSPublisher) Publish(ev entity.NodeEvent) error {
	if !p.config.PublishEvents {
		return nil
	}
	conn := p.nc.Conn()
	if conn == nil {
		return ErrDisabled
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal node event: %w", err)
	}
	if err := conn.Publish(p.SubjectFor(ev.Kind), data); err != nil {
		return fmt.Errorf("failed to publish node event: %w", err)
	}
	return nil
}

// HandleNodeEvent publishes ev and logs failures; it is registered as a view listener
func (p *NATSPublisher) HandleNodeEvent(ev entity.NodeEvent) {
	if err := p.Publish(ev); err != nil && err != ErrDisabled {
		p.logger.Warn("Failed to publish node event",
			zap.String("kind", string(ev.Kind)),
			zap.String("view_id", ev.ViewID),
			zap.Error(err))
	}
}
