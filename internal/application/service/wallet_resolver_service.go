package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crypto-bubble-map-explorer/internal/domain/entity"
	"crypto-bubble-map-explorer/internal/domain/repository"
	"crypto-bubble-map-explorer/internal/domain/service"
	"crypto-bubble-map-explorer/internal/infrastructure/config"
	"crypto-bubble-map-explorer/internal/infrastructure/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WalletResolverService resolves wallet metadata from the indexed graph
type WalletResolverService struct {
	walletRepo      repository.WalletRepository
	transactionRepo repository.TransactionRepository
	config          *config.ResolverConfig
	logger          *logger.Logger
}

// NewWalletResolverService creates a new wallet resolver service
func NewWalletResolverService(
	walletRepo repository.WalletRepository,
	transactionRepo repository.TransactionRepository,
	cfg *config.ResolverConfig,
	logger *logger.Logger,
) service.WalletResolver {
	return &WalletResolverService{
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		config:          cfg,
		logger:          logger.WithComponent("wallet-resolver"),
	}
}

// ResolveWallet loads totals, recent transfers and outgoing counterparties for
// an address. Addresses the indexer has never seen resolve to empty metadata.
func (s *WalletResolverService) ResolveWallet(ctx context.Context, address string) (*entity.WalletMetadata, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	wallet, err := s.walletRepo.GetWallet(ctx, address)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug("Wallet not indexed, resolving to empty metadata", zap.String("address", address))
			return &entity.WalletMetadata{}, nil
		}
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	var (
		transfers   []*entity.WalletTransfer
		connections []*entity.WalletConnection
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		transfers, err = s.transactionRepo.GetTransfersByWallet(gctx, address, s.config.TransactionLimit)
		if err != nil {
			return fmt.Errorf("failed to load transfers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		connections, err = s.walletRepo.GetWalletConnections(gctx, address, s.config.ConnectionLimit)
		if err != nil {
			return fmt.Errorf("failed to load connections: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	meta := buildMetadata(wallet, transfers, connections)

	s.logger.Debug("Resolved wallet",
		zap.String("address", address),
		zap.Float64("balance", meta.Balance),
		zap.Int("transactions", len(meta.Transactions)),
		zap.Int("connections", len(meta.Connections)),
		zap.Duration("duration", time.Since(start)))

	return meta, nil
}

// buildMetadata converts the indexed wei totals to ether. The balance is
// received minus sent and may be negative for partially indexed wallets.
func buildMetadata(wallet *entity.Wallet, transfers []*entity.WalletTransfer, connections []*entity.WalletConnection) *entity.WalletMetadata {
	received := entity.WeiToEther(wallet.TotalReceived)
	sent := entity.WeiToEther(wallet.TotalSent)

	meta := &entity.WalletMetadata{
		Balance:          entity.Finite(received - sent),
		TotalReceived:    received,
		TotalSent:        sent,
		TransactionCount: wallet.TotalTransactions,
	}
	if meta.TransactionCount < 0 {
		meta.TransactionCount = 0
	}

	for _, transfer := range transfers {
		meta.Transactions = append(meta.Transactions, transfer.Summary())
	}
	entity.SortTransactions(meta.Transactions)

	seen := make(map[string]struct{}, len(connections))
	for _, conn := range connections {
		if conn.ToAddress == "" || conn.ToAddress == wallet.Address {
			continue
		}
		if _, dup := seen[conn.ToAddress]; dup {
			continue
		}
		seen[conn.ToAddress] = struct{}{}
		meta.Connections = append(meta.Connections, conn.ToAddress)
	}

	return meta
}
