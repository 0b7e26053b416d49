package models

// ConnectionStatus defines the transport-level presence of a participant.
type ConnectionStatus string

const (
	ConnectionStatusConnected    ConnectionStatus = "CONNECTED"
	ConnectionStatusDisconnected ConnectionStatus = "DISCONNECTED"
	ConnectionStatusRemoved      ConnectionStatus = "REMOVED"
)

// PlayerSummary is the coarse roster view of one participant in a room.
type PlayerSummary struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Profession       string           `json:"profession,omitempty"`
	IsHost           bool             `json:"is_host"`
	IsReady          bool             `json:"is_ready"`
	ConnectionStatus ConnectionStatus `json:"connection_status"`

	CashOnHand    float64 `json:"cash_on_hand"`
	Cashflow      float64 `json:"cashflow"`
	PaydayAmount  float64 `json:"payday_amount"`
	PassiveIncome float64 `json:"passive_income"`
	TotalExpenses float64 `json:"total_expenses"`
	AssetCount    int     `json:"asset_count"`

	IsOnFastTrack bool `json:"is_on_fast_track"`
}

// Connected reports whether the participant currently holds a live connection.
func (p *PlayerSummary) Connected() bool {
	return p.ConnectionStatus == ConnectionStatusConnected
}
