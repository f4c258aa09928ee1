package repository

import (
	"context"
	"crypto-bubble-map-explorer/internal/domain/entity"
)

// WalletRepository defines read access to indexed wallet data
type WalletRepository interface {
	// GetWallet retrieves a wallet by address
	GetWallet(ctx context.Context, address string) (*entity.Wallet, error)

	// GetWalletConnections retrieves outgoing connections for a wallet ordered by total value
	GetWalletConnections(ctx context.Context, address string, limit int) ([]*entity.WalletConnection, error)
}
