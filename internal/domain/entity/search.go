package entity

// SearchRequest asks a view to add a wallet, optionally expanding its connections
type SearchRequest struct {
	ViewID  string `json:"view_id"`
	Address string `json:"address"`
	Expand  bool   `json:"expand"`
}
