package repository

import (
	"context"
	"crypto-bubble-map-explorer/internal/domain/entity"
)

// TransactionRepository defines read access to indexed transfers
type TransactionRepository interface {
	// GetTransfersByWallet retrieves sent and received transfers for a wallet, most recent first
	GetTransfersByWallet(ctx context.Context, address string, limit int) ([]*entity.WalletTransfer, error)
}
