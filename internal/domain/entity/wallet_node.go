package entity

import (
	"fmt"
)

// NodeType tags how a node entered the graph
type NodeType int

const (
	// NodeTypeMain is a directly searched wallet
	NodeTypeMain NodeType = iota
	// NodeTypeTransaction is a transaction counterparty added through expansion
	NodeTypeTransaction
	// NodeTypeConnected is a wallet added as a connection of another node
	NodeTypeConnected
)

// String returns the wire name of the node type
func (t NodeType) String() string {
	switch t {
	case NodeTypeMain:
		return "main"
	case NodeTypeTransaction:
		return "transaction"
	case NodeTypeConnected:
		return "connected"
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler
func (t NodeType) MarshalText() ([]byte, error) {
	switch t {
	case NodeTypeMain, NodeTypeTransaction, NodeTypeConnected:
		return []byte(t.String()), nil
	}
	return nil, fmt.Errorf("unknown node type %d", int(t))
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *NodeType) UnmarshalText(text []byte) error {
	parsed, err := ParseNodeType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseNodeType parses a wire name
func ParseNodeType(s string) (NodeType, error) {
	switch s {
	case "main", "":
		return NodeTypeMain, nil
	case "transaction":
		return NodeTypeTransaction, nil
	case "connected":
		return NodeTypeConnected, nil
	}
	return NodeTypeMain, fmt.Errorf("unknown node type %q", s)
}

// WalletNode is one visualized wallet
type WalletNode struct {
	ID               string               `json:"id"`
	Address          string               `json:"address"`
	Position         Vec3                 `json:"position"`
	Balance          float64              `json:"balance"`
	TotalReceived    float64              `json:"total_received"`
	TotalSent        float64              `json:"total_sent"`
	TransactionCount int64                `json:"transaction_count"`
	IsLocked         bool                 `json:"is_locked"`
	Connections      []string             `json:"connections"`
	Type             NodeType             `json:"type"`
	Transactions     []TransactionSummary `json:"transactions,omitempty"`
}

// Clone returns a deep copy so snapshots never share slices
func (n WalletNode) Clone() WalletNode {
	out := n
	if n.Connections != nil {
		out.Connections = append([]string(nil), n.Connections...)
	}
	if n.Transactions != nil {
		out.Transactions = append([]TransactionSummary(nil), n.Transactions...)
	}
	return out
}

// ApplyMetadata overwrites the resolver derived fields
func (n *WalletNode) ApplyMetadata(meta *WalletMetadata) {
	if meta == nil {
		meta = &WalletMetadata{}
	}
	n.Balance = Finite(meta.Balance)
	n.TotalReceived = Finite(meta.TotalReceived)
	n.TotalSent = Finite(meta.TotalSent)
	n.TransactionCount = meta.TransactionCount
	if n.TransactionCount < 0 {
		n.TransactionCount = 0
	}
	if meta.Transactions != nil {
		n.Transactions = append([]TransactionSummary(nil), meta.Transactions...)
		SortTransactions(n.Transactions)
	}
	n.Connections = MergeConnections(n.Connections, meta.Connections)
}

// HasConnections reports whether the node carries any related address
func (n *WalletNode) HasConnections() bool {
	return len(n.Connections) > 0
}

// IsRenderable reports whether the node can be drawn
func (n *WalletNode) IsRenderable() bool {
	return n.ID != "" && n.Position.IsFinite()
}

// MergeConnections appends addresses from next that are not already in base,
// keeping the order of first appearance.
func MergeConnections(base, next []string) []string {
	if len(next) == 0 {
		return base
	}
	seen := make(map[string]struct{}, len(base)+len(next))
	out := make([]string, 0, len(base)+len(next))
	for _, list := range [][]string{base, next} {
		for _, addr := range list {
			if addr == "" {
				continue
			}
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			out = append(out, addr)
		}
	}
	return out
}
