package entity

import (
	"sort"
	"time"
)

// Transaction directions as shown in node labels
const (
	TransactionTypeSent     = "sent"
	TransactionTypeReceived = "received"
)

// WalletTransfer represents a SENT_TO relationship seen from one wallet
type WalletTransfer struct {
	TxHash       string    `json:"tx_hash"`
	Counterparty string    `json:"counterparty"`
	Value        string    `json:"value"`
	Outgoing     bool      `json:"outgoing"`
	Timestamp    time.Time `json:"timestamp"`
}

// TransactionSummary is one entry of a node's transaction list
type TransactionSummary struct {
	Hash            string    `json:"hash"`
	Amount          float64   `json:"amount"`
	TransactionType string    `json:"transaction_type"`
	TransactionDate time.Time `json:"transaction_date"`
}

// SortTransactions orders transactions most recent first
func SortTransactions(txs []TransactionSummary) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].TransactionDate.After(txs[j].TransactionDate)
	})
}

// Summary converts a transfer into a TransactionSummary with ether amounts
func (t *WalletTransfer) Summary() TransactionSummary {
	txType := TransactionTypeReceived
	if t.Outgoing {
		txType = TransactionTypeSent
	}
	return TransactionSummary{
		Hash:            t.TxHash,
		Amount:          WeiToEther(t.Value),
		TransactionType: txType,
		TransactionDate: t.Timestamp,
	}
}
