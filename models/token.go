package models

// Record is the last known market snapshot of a single token.
// All fields are plain values so two records compare with ==.
type Record struct {
	Address         string  `json:"token_address"`
	Name            string  `json:"token_name"`
	Ticker          string  `json:"token_ticker"`
	PriceNative     float64 `json:"price_sol"`
	MarketCapNative float64 `json:"market_cap_sol"`
	Volume24h       float64 `json:"volume_sol"`
	LiquidityBase   float64 `json:"liquidity_sol"`
	TxCount         int64   `json:"transaction_count"`
	PriceChange1h   float64 `json:"price_1hr_change"`
	PriceChange24h  float64 `json:"price_24hr_change"`
	Venue           string  `json:"protocol"`
}

// Session lifecycle states.
type SessionState int

const (
	StateConnecting SessionState = iota
	StateStreaming
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// SessionStats is a point-in-time view of one streaming session.
type SessionStats struct {
	SessionID   string
	Tokens      int
	Rounds      int64
	Pushed      int64
	FetchErrors int64
}
