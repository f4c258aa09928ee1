package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"crypto-bubble-map-explorer/internal/domain/entity"
	"crypto-bubble-map-explorer/internal/domain/repository"
	"crypto-bubble-map-explorer/internal/domain/service"
	"crypto-bubble-map-explorer/internal/infrastructure/config"
	"crypto-bubble-map-explorer/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWalletRepo struct {
	mu          sync.Mutex
	wallets     map[string]*entity.Wallet
	connections map[string][]*entity.WalletConnection
	err         error
	limits      []int
}

func (r *fakeWalletRepo) GetWallet(_ context.Context, address string) (*entity.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	w, ok := r.wallets[address]
	if !ok {
		return nil, fmt.Errorf("%w: wallet %s", repository.ErrNotFound, address)
	}
	return w, nil
}

func (r *fakeWalletRepo) GetWalletConnections(_ context.Context, address string, limit int) ([]*entity.WalletConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limits = append(r.limits, limit)
	return r.connections[address], nil
}

type fakeTransactionRepo struct {
	transfers map[string][]*entity.WalletTransfer
	err       error
}

func (r *fakeTransactionRepo) GetTransfersByWallet(_ context.Context, address string, _ int) ([]*entity.WalletTransfer, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.transfers[address], nil
}

func newResolverFixture() (*fakeWalletRepo, *fakeTransactionRepo, service.WalletResolver) {
	wallets := &fakeWalletRepo{
		wallets:     make(map[string]*entity.Wallet),
		connections: make(map[string][]*entity.WalletConnection),
	}
	transfers := &fakeTransactionRepo{transfers: make(map[string][]*entity.WalletTransfer)}
	cfg := &config.ResolverConfig{Timeout: time.Second, TransactionLimit: 20, ConnectionLimit: 10}
	return wallets, transfers, NewWalletResolverService(wallets, transfers, cfg, logger.NewNopLogger())
}

func TestWalletResolverService_ResolveWallet(t *testing.T) {
	wallets, transfers, resolver := newResolverFixture()
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	wallets.wallets["0xa"] = &entity.Wallet{
		Address:           "0xa",
		TotalReceived:     "3000000000000000000",
		TotalSent:         "1000000000000000000",
		TotalTransactions: 4,
	}
	wallets.connections["0xa"] = []*entity.WalletConnection{
		{FromAddress: "0xa", ToAddress: "0xb"},
		{FromAddress: "0xa", ToAddress: "0xa"},
		{FromAddress: "0xa", ToAddress: "0xc"},
		{FromAddress: "0xa", ToAddress: "0xb"},
	}
	transfers.transfers["0xa"] = []*entity.WalletTransfer{
		{TxHash: "old", Value: "500000000000000000", Outgoing: false, Timestamp: older},
		{TxHash: "new", Value: "1000000000000000000", Outgoing: true, Timestamp: newer},
	}

	meta, err := resolver.ResolveWallet(context.Background(), "0xa")
	require.NoError(t, err)

	assert.InDelta(t, 2.0, meta.Balance, 1e-12)
	assert.InDelta(t, 3.0, meta.TotalReceived, 1e-12)
	assert.InDelta(t, 1.0, meta.TotalSent, 1e-12)
	assert.Equal(t, int64(4), meta.TransactionCount)
	assert.Equal(t, []string{"0xb", "0xc"}, meta.Connections)

	require.Len(t, meta.Transactions, 2)
	assert.Equal(t, "new", meta.Transactions[0].Hash)
	assert.Equal(t, entity.TransactionTypeSent, meta.Transactions[0].TransactionType)
	assert.Equal(t, entity.TransactionTypeReceived, meta.Transactions[1].TransactionType)
	assert.InDelta(t, 0.5, meta.Transactions[1].Amount, 1e-12)

	assert.Equal(t, []int{10}, wallets.limits)
}

func TestWalletResolverService_UnindexedWalletIsEmpty(t *testing.T) {
	wallets, _, resolver := newResolverFixture()

	meta, err := resolver.ResolveWallet(context.Background(), "0xmissing")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, entity.WalletMetadata{}, *meta)
	assert.Empty(t, wallets.limits, "connections are not queried for an unindexed wallet")
}

func TestWalletResolverService_RepositoryErrors(t *testing.T) {
	wallets, transfers, resolver := newResolverFixture()
	wallets.wallets["0xa"] = &entity.Wallet{Address: "0xa"}

	transfers.err = errors.New("session expired")
	_, err := resolver.ResolveWallet(context.Background(), "0xa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load transfers")

	wallets.err = errors.New("connection refused")
	_, err = resolver.ResolveWallet(context.Background(), "0xa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load wallet")
}

func TestBuildMetadata_InvalidTotals(t *testing.T) {
	meta := buildMetadata(&entity.Wallet{TotalReceived: "lots", TotalSent: "", TotalTransactions: -3}, nil, nil)

	assert.Zero(t, meta.Balance)
	assert.Zero(t, meta.TotalReceived)
	assert.Zero(t, meta.TransactionCount)
	assert.Empty(t, meta.Connections)
}

func TestBuildMetadata_NegativeBalanceKept(t *testing.T) {
	meta := buildMetadata(&entity.Wallet{TotalReceived: "1000000000000000000", TotalSent: "3000000000000000000"}, nil, nil)

	assert.InDelta(t, -2.0, meta.Balance, 1e-12)
}
