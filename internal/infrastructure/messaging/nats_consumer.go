package messaging

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"crypto-bubble-map-explorer/internal/domain/entity"
	"crypto-bubble-map-explorer/internal/infrastructure/config"
	"crypto-bubble-map-explorer/internal/infrastructure/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSConsumer receives wallet search requests on <prefix>.search
type NATSConsumer struct {
	nc      *NATSConnection
	sub     *nats.Subscription
	config  *config.NATSConfig
	logger  *logger.Logger
	msgChan chan *entity.SearchRequest

	mu        sync.Mutex
	isRunning bool
	closed    bool
}

// NewNATSConsumer creates a new NATS consumer
func NewNATSConsumer(nc *NATSConnection, cfg *config.NATSConfig, logger *logger.Logger) *NATSConsumer {
	size := cfg.MaxPendingMessages
	if size <= 0 {
		size = 1
	}
	return &NATSConsumer{
		nc:      nc,
		config:  cfg,
		logger:  logger.WithComponent("nats-consumer"),
		msgChan: make(chan *entity.SearchRequest, size),
	}
}

// Subscribe sets up the queue subscription. It is a no-op when NATS is disabled.
func (n *NATSConsumer) Subscribe() error {
	conn := n.nc.Conn()
	if conn == nil {
		if n.nc.Enabled() {
			return fmt.Errorf("failed to subscribe: %w", nats.ErrConnectionClosed)
		}
		n.logger.Info("NATS is disabled, search requests will not be consumed")
		return nil
	}

	subject := n.nc.Subject("search")
	queueGroup := n.config.ConsumerGroup

	n.logger.Info("Setting up NATS subscription",
		zap.String("subject", subject),
		zap.String("queue_group", queueGroup))

	sub, err := conn.QueueSubscribe(subject, queueGroup, n.handleMessage)
	if err != nil {
		n.logger.Error("Failed to subscribe to subject", zap.Error(err))
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	n.mu.Lock()
	n.sub = sub
	n.isRunning = true
	n.mu.Unlock()

	n.logger.Info("Subscribed to search requests",
		zap.String("subject", subject),
		zap.String("queue_group", queueGroup))
	return nil
}

// handleMessage decodes a search request and queues it without blocking
func (n *NATSConsumer) handleMessage(msg *nats.Msg) {
	var req entity.SearchRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		n.logger.Error("Failed to unmarshal search request", zap.Error(err))
		n.respond(msg, "ERROR: Failed to unmarshal")
		return
	}
	req.Address = strings.TrimSpace(req.Address)
	if req.Address == "" {
		n.logger.Warn("Dropping search request without address", zap.String("view_id", req.ViewID))
		n.respond(msg, "ERROR: Missing address")
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}

	select {
	case n.msgChan <- &req:
		n.logger.Debug("Queued search request",
			zap.String("view_id", req.ViewID),
			zap.String("address", req.Address))
		n.respond(msg, "OK")
	default:
		n.logger.Warn("Search channel is full, dropping request", zap.String("address", req.Address))
		n.respond(msg, "ERROR: Busy")
	}
}

func (n *NATSConsumer) respond(msg *nats.Msg, body string) {
	if msg.Reply == "" || msg.Sub == nil {
		return
	}
	if err := msg.Respond([]byte(body)); err != nil {
		n.logger.Debug("Failed to respond to search request", zap.Error(err))
	}
}

// Disconnect unsubscribes and closes the request channel
func (n *NATSConsumer) Disconnect() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.isRunning = false
	n.closed = true

	if n.sub != nil {
		if err := n.sub.Unsubscribe(); err != nil {
			n.logger.Debug("Failed to unsubscribe", zap.Error(err))
		}
		n.sub = nil
	}
	close(n.msgChan)
	n.logger.Info("Stopped consuming search requests")
	return nil
}

// IsConnected checks if the subscription is active
func (n *NATSConsumer) IsConnected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.isRunning && n.nc.IsConnected()
}

// GetMessageChannel returns the search request channel
func (n *NATSConsumer) GetMessageChannel() <-chan *entity.SearchRequest {
	return n.msgChan
}
