package entity

import (
	"time"
)

// Wallet represents an indexed wallet/address as stored in Neo4J
type Wallet struct {
	Address           string    `json:"address"`
	FirstSeen         time.Time `json:"first_seen"`
	LastSeen          time.Time `json:"last_seen"`
	TotalTransactions int64     `json:"total_transactions"`
	TotalSent         string    `json:"total_sent"`
	TotalReceived     string    `json:"total_received"`
	Network           string    `json:"network"`
}

// WalletConnection represents an aggregated SENT_TO edge between two wallets
type WalletConnection struct {
	FromAddress string    `json:"from_address"`
	ToAddress   string    `json:"to_address"`
	TotalValue  string    `json:"total_value"`
	TxCount     int64     `json:"tx_count"`
	FirstTx     time.Time `json:"first_tx"`
	LastTx      time.Time `json:"last_tx"`
}

// WalletMetadata is what a resolver returns for one address
type WalletMetadata struct {
	Balance          float64              `json:"balance"`
	TotalReceived    float64              `json:"total_received"`
	TotalSent        float64              `json:"total_sent"`
	TransactionCount int64                `json:"transaction_count"`
	Transactions     []TransactionSummary `json:"transactions,omitempty"`
	Connections      []string             `json:"connections,omitempty"`
}

// RawWalletMetadata carries resolver output whose numeric fields may be
// missing, strings or otherwise malformed.
type RawWalletMetadata struct {
	Balance          interface{}      `json:"balance"`
	TotalReceived    interface{}      `json:"total_received"`
	TotalSent        interface{}      `json:"total_sent"`
	TransactionCount interface{}      `json:"transaction_count"`
	Transactions     []RawTransaction `json:"transactions,omitempty"`
	Connections      []string         `json:"connections,omitempty"`
}

// RawTransaction is the loosely typed form of TransactionSummary
type RawTransaction struct {
	Hash            string      `json:"hash"`
	Amount          interface{} `json:"amount"`
	TransactionType string      `json:"transaction_type"`
	TransactionDate time.Time   `json:"transaction_date"`
}

// Normalize coerces every numeric field to a finite number, zero when invalid
func (r *RawWalletMetadata) Normalize() *WalletMetadata {
	if r == nil {
		return &WalletMetadata{}
	}

	meta := &WalletMetadata{
		Balance:          ParseAmount(r.Balance),
		TotalReceived:    ParseAmount(r.TotalReceived),
		TotalSent:        ParseAmount(r.TotalSent),
		TransactionCount: ParseCount(r.TransactionCount),
	}

	for _, tx := range r.Transactions {
		meta.Transactions = append(meta.Transactions, TransactionSummary{
			Hash:            tx.Hash,
			Amount:          ParseAmount(tx.Amount),
			TransactionType: tx.TransactionType,
			TransactionDate: tx.TransactionDate,
		})
	}
	SortTransactions(meta.Transactions)

	for _, addr := range r.Connections {
		if addr != "" {
			meta.Connections = append(meta.Connections, addr)
		}
	}

	return meta
}
