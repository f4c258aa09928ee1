package service

import (
	"context"

	"crypto-bubble-map-explorer/internal/domain/entity"
)

// WalletResolver turns an external address into wallet metadata. Any error
// means no node is added for the address.
type WalletResolver interface {
	// ResolveWallet fetches balance, totals, transactions and connections for
	// an address. Addresses with no history resolve to empty metadata.
	ResolveWallet(ctx context.Context, address string) (*entity.WalletMetadata, error)
}

// WalletResolverFunc adapts a function to WalletResolver
type WalletResolverFunc func(ctx context.Context, address string) (*entity.WalletMetadata, error)

// ResolveWallet calls f
func (f WalletResolverFunc) ResolveWallet(ctx context.Context, address string) (*entity.WalletMetadata, error) {
	return f(ctx, address)
}
