package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidCandle is returned when a fetched kline fails validation.
var ErrInvalidCandle = errors.New("invalid candle")

// Candle is one exchange kline. Prices and volume are in quote/base units as
// reported by the exchange. Immutable once fetched.
type Candle struct {
	OpenTime  time.Time `json:"open_time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	CloseTime time.Time `json:"close_time"`
}

// Validate checks that all numeric fields are finite and non-negative and
// that the high/low range is consistent.
func (c *Candle) Validate() error {
	fields := [...]struct {
		name string
		v    float64
	}{
		{"open", c.Open}, {"high", c.High}, {"low", c.Low},
		{"close", c.Close}, {"volume", c.Volume},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidCandle, f.name)
		}
		if f.v < 0 {
			return fmt.Errorf("%w: %s is negative (%v)", ErrInvalidCandle, f.name, f.v)
		}
	}
	if c.High < c.Low {
		return fmt.Errorf("%w: high %v below low %v", ErrInvalidCandle, c.High, c.Low)
	}
	if c.OpenTime.IsZero() {
		return fmt.Errorf("%w: missing open time", ErrInvalidCandle)
	}
	return nil
}
