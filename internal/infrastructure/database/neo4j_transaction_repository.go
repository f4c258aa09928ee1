package database

import (
	"context"
	"fmt"

	"crypto-bubble-map-explorer/internal/domain/entity"
	"crypto-bubble-map-explorer/internal/domain/repository"
	"crypto-bubble-map-explorer/internal/infrastructure/logger"
)

// Neo4JTransactionRepository implements TransactionRepository interface
type Neo4JTransactionRepository struct {
	client *Neo4JClient
	logger *logger.Logger
}

// NewNeo4JTransactionRepository creates a new Neo4J transaction repository
func NewNeo4JTransactionRepository(client *Neo4JClient, logger *logger.Logger) repository.TransactionRepository {
	return &Neo4JTransactionRepository{
		client: client,
		logger: logger.WithComponent("neo4j-transaction-repo"),
	}
}

// GetTransfersByWallet retrieves sent and received transfers for a wallet, most recent first
func (r *Neo4JTransactionRepository) GetTransfersByWallet(ctx context.Context, address string, limit int) ([]*entity.WalletTransfer, error) {
	query := `
		MATCH (w:Wallet {address: $address})-[r:SENT_TO]-(other:Wallet)
		RETURN r.tx_hash, other.address, r.value, startNode(r) = w AS outgoing, r.timestamp
		ORDER BY r.timestamp DESC
		LIMIT $limit
	`

	records, err := r.client.readRecords(ctx, query, map[string]any{
		"address": address,
		"limit":   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transfers by wallet: %w", err)
	}

	transfers := make([]*entity.WalletTransfer, 0, len(records))
	for _, record := range records {
		transfers = append(transfers, transferFromValues(record.Values))
	}

	return transfers, nil
}

func transferFromValues(values []any) *entity.WalletTransfer {
	return &entity.WalletTransfer{
		TxHash:       stringValue(valueAt(values, 0)),
		Counterparty: stringValue(valueAt(values, 1)),
		Value:        stringValue(valueAt(values, 2)),
		Outgoing:     boolValue(valueAt(values, 3)),
		Timestamp:    timeValue(valueAt(values, 4)),
	}
}
