package database

import (
	"context"
	"fmt"

	"crypto-bubble-map-explorer/internal/domain/entity"
	"crypto-bubble-map-explorer/internal/domain/repository"
	"crypto-bubble-map-explorer/internal/infrastructure/logger"
)

// Neo4JWalletRepository implements WalletRepository interface
type Neo4JWalletRepository struct {
	client *Neo4JClient
	logger *logger.Logger
}

// NewNeo4JWalletRepository creates a new Neo4J wallet repository
func NewNeo4JWalletRepository(client *Neo4JClient, logger *logger.Logger) repository.WalletRepository {
	return &Neo4JWalletRepository{
		client: client,
		logger: logger.WithComponent("neo4j-wallet-repo"),
	}
}

// GetWallet retrieves a wallet by address
func (r *Neo4JWalletRepository) GetWallet(ctx context.Context, address string) (*entity.Wallet, error) {
	query := `
		MATCH (w:Wallet {address: $address})
		RETURN w.address, w.first_seen, w.last_seen, w.total_transactions, w.total_sent, w.total_received, w.network
	`

	records, err := r.client.readRecords(ctx, query, map[string]any{"address": address})
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: wallet %s", repository.ErrNotFound, address)
	}

	return walletFromValues(records[0].Values), nil
}

// GetWalletConnections retrieves outgoing connections for a wallet ordered by total value
func (r *Neo4JWalletRepository) GetWalletConnections(ctx context.Context, address string, limit int) ([]*entity.WalletConnection, error) {
	query := `
		MATCH (w:Wallet {address: $address})-[r:SENT_TO]->(other:Wallet)
		WITH w, other, sum(toFloat(r.value)) as total_value, count(r) as tx_count, min(r.timestamp) as first_tx, max(r.timestamp) as last_tx
		RETURN w.address, other.address, total_value, tx_count, first_tx, last_tx
		ORDER BY total_value DESC
		LIMIT $limit
	`

	records, err := r.client.readRecords(ctx, query, map[string]any{
		"address": address,
		"limit":   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet connections: %w", err)
	}

	connections := make([]*entity.WalletConnection, 0, len(records))
	for _, record := range records {
		connections = append(connections, connectionFromValues(record.Values))
	}

	return connections, nil
}

func walletFromValues(values []any) *entity.Wallet {
	return &entity.Wallet{
		Address:           stringValue(valueAt(values, 0)),
		FirstSeen:         timeValue(valueAt(values, 1)),
		LastSeen:          timeValue(valueAt(values, 2)),
		TotalTransactions: int64Value(valueAt(values, 3)),
		TotalSent:         stringValue(valueAt(values, 4)),
		TotalReceived:     stringValue(valueAt(values, 5)),
		Network:           stringValue(valueAt(values, 6)),
	}
}

func connectionFromValues(values []any) *entity.WalletConnection {
	return &entity.WalletConnection{
		FromAddress: stringValue(valueAt(values, 0)),
		ToAddress:   stringValue(valueAt(values, 1)),
		TotalValue:  stringValue(valueAt(values, 2)),
		TxCount:     int64Value(valueAt(values, 3)),
		FirstTx:     timeValue(valueAt(values, 4)),
		LastTx:      timeValue(valueAt(values, 5)),
	}
}
