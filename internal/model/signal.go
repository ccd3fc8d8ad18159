package model

import "time"

// Action is the outcome of one signal evaluation.
type Action string

const (
	ActionNone         Action = "none"
	ActionBuy          Action = "buy"
	ActionSell         Action = "sell"
	ActionWait         Action = "wait"              // first run without a seed
	ActionInsufficient Action = "insufficient_data" // upstream history too short
)

// IsTrade reports whether the action changes the held position.
func (a Action) IsTrade() bool {
	return a == ActionBuy || a == ActionSell
}

// Position is the position implied by the last executed signal.
type Position string

const (
	PositionNone  Position = "none"
	PositionLong  Position = "long"
	PositionShort Position = "short"
)

// TradeEvent records one qualifying buy/sell signal.
type TradeEvent struct {
	ID        string    `json:"id"` // ULID, time-sortable
	Type      Action    `json:"type"`
	Symbol    string    `json:"symbol"`
	Policy    string    `json:"policy"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Value     float64   `json:"value"` // jerk or MACD-signal difference that fired the signal
	Timestamp time.Time `json:"timestamp"`
}
