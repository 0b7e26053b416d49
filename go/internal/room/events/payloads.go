package events

// Event payload types shared between the channel, the engine, and the relay.
// Field names follow the backend wire contract (camelCase JSON).

// PlayerJoined announces a new participant in the room.
type PlayerJoined struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// GameStarted marks the room's transition from waiting to active.
type GameStarted struct{}

// PaymentRequested asks a player to settle a payment another player collects.
type PaymentRequested struct {
	CollectorName string  `json:"collectorName"`
	Amount        float64 `json:"amount"`
}

// AuditRequested delivers a transaction into this client's audit inbox.
type AuditRequested struct {
	TransactionID string         `json:"transactionId"`
	PlayerID      string         `json:"playerId"`
	PlayerName    string         `json:"playerName"`
	Type          string         `json:"type"`
	SubType       string         `json:"subType,omitempty"`
	Impact        map[string]any `json:"impact,omitempty"`
}

// SheetPatch carries the fields of a player sheet the server chose to
// overwrite. Absent fields stay untouched (last-write-wins, not deltas).
type SheetPatch struct {
	CashOnHand  *float64      `json:"cashOnHand,omitempty"`
	Salary      *float64      `json:"salary,omitempty"`
	Incomes     []IncomeLine  `json:"incomes,omitempty"`
	Expenses    []ExpenseLine `json:"expenses,omitempty"`
	Assets      []AssetLine   `json:"assets,omitempty"`
	Liabilities []DebtLine    `json:"liabilities,omitempty"`
}

// IncomeLine mirrors one itemized income entry on the wire.
type IncomeLine struct {
	Name    string  `json:"name"`
	Monthly float64 `json:"monthly"`
	Passive bool    `json:"passive,omitempty"`
}

// ExpenseLine mirrors one itemized expense entry on the wire.
type ExpenseLine struct {
	Name    string  `json:"name"`
	Monthly float64 `json:"monthly"`
}

// AssetLine mirrors one asset holding on the wire.
type AssetLine struct {
	Name          string  `json:"name"`
	Quantity      int     `json:"quantity"`
	CostBasis     float64 `json:"costBasis"`
	MonthlyIncome float64 `json:"monthlyIncome"`
}

// DebtLine mirrors one liability on the wire.
type DebtLine struct {
	Name           string  `json:"name"`
	OriginalAmount float64 `json:"originalAmount"`
	CurrentBalance float64 `json:"currentBalance"`
	MonthlyPayment float64 `json:"monthlyPayment"`
}

// TransactionFinalized reports the audit outcome for a transaction.
type TransactionFinalized struct {
	TransactionID string      `json:"transactionId"`
	Approved      bool        `json:"approved"`
	PlayerData    *SheetPatch `json:"playerData,omitempty"`
}

// TransactionRejected carries the auditor's rejection note.
type TransactionRejected struct {
	TransactionID string `json:"transactionId"`
	Note          string `json:"note"`
}

// PaydayCollected reports a roster member collecting their payday.
type PaydayCollected struct {
	PlayerID string  `json:"playerId"`
	Amount   float64 `json:"amount"`
}

// RosterPatch carries the roster-entry fields the server chose to overwrite.
type RosterPatch struct {
	Name          *string  `json:"name,omitempty"`
	Profession    *string  `json:"profession,omitempty"`
	IsReady       *bool    `json:"isReady,omitempty"`
	CashOnHand    *float64 `json:"cashOnHand,omitempty"`
	Cashflow      *float64 `json:"cashflow,omitempty"`
	PaydayAmount  *float64 `json:"paydayAmount,omitempty"`
	PassiveIncome *float64 `json:"passiveIncome,omitempty"`
	TotalExpenses *float64 `json:"totalExpenses,omitempty"`
	AssetCount    *int     `json:"assetCount,omitempty"`
}

// PlayerUpdated shallow-merges roster fields for one participant.
type PlayerUpdated struct {
	PlayerID string      `json:"playerId"`
	Data     RosterPatch `json:"data"`
}

// PlayerDisconnected marks a participant's transport as down.
type PlayerDisconnected struct {
	PlayerID string `json:"playerId"`
}

// PlayerReconnected marks a participant's transport as restored.
type PlayerReconnected struct {
	PlayerID string `json:"playerId"`
}

// PlayerRemoved evicts a participant from the room.
type PlayerRemoved struct {
	PlayerID string `json:"playerId"`
	Reason   string `json:"reason,omitempty"`
}

// FastTrackAchieved celebrates a participant reaching the fast track.
type FastTrackAchieved struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// SessionExpiryWarning starts the client-side expiry countdown.
type SessionExpiryWarning struct {
	MinutesRemaining int `json:"minutesRemaining"`
}

// SessionExpired is the authoritative eviction signal.
type SessionExpired struct{}

func (PlayerJoined) Kind() Type         { return TypePlayerJoined }
func (GameStarted) Kind() Type          { return TypeGameStarted }
func (PaymentRequested) Kind() Type     { return TypePaymentRequested }
func (AuditRequested) Kind() Type       { return TypeAuditRequested }
func (TransactionFinalized) Kind() Type { return TypeTransactionFinal }
func (TransactionRejected) Kind() Type  { return TypeTransactionRejected }
func (PaydayCollected) Kind() Type      { return TypePaydayCollected }
func (PlayerUpdated) Kind() Type        { return TypePlayerUpdated }
func (PlayerDisconnected) Kind() Type   { return TypePlayerDisconnected }
func (PlayerReconnected) Kind() Type    { return TypePlayerReconnected }
func (PlayerRemoved) Kind() Type        { return TypePlayerRemoved }
func (FastTrackAchieved) Kind() Type    { return TypeFastTrackAchieved }
func (SessionExpiryWarning) Kind() Type { return TypeSessionExpiryWarn }
func (SessionExpired) Kind() Type       { return TypeSessionExpired }

func (PlayerJoined) roomEvent()         {}
func (GameStarted) roomEvent()          {}
func (PaymentRequested) roomEvent()     {}
func (AuditRequested) roomEvent()       {}
func (TransactionFinalized) roomEvent() {}
func (TransactionRejected) roomEvent()  {}
func (PaydayCollected) roomEvent()      {}
func (PlayerUpdated) roomEvent()        {}
func (PlayerDisconnected) roomEvent()   {}
func (PlayerReconnected) roomEvent()    {}
func (PlayerRemoved) roomEvent()        {}
func (FastTrackAchieved) roomEvent()    {}
func (SessionExpiryWarning) roomEvent() {}
func (SessionExpired) roomEvent()       {}
