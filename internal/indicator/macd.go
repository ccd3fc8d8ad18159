package indicator

import "fmt"

// MACDConfig holds the EMA periods of the MACD engine.
type MACDConfig struct {
	Fast   int `yaml:"fast" json:"fast"`
	Slow   int `yaml:"slow" json:"slow"`
	Signal int `yaml:"signal" json:"signal"`
}

// DefaultMACDConfig returns the classic 12/26/9 periods.
func DefaultMACDConfig() MACDConfig {
	return MACDConfig{Fast: 12, Slow: 26, Signal: 9}
}

// Validate checks that all periods are positive and fast < slow.
func (c MACDConfig) Validate() error {
	if c.Fast <= 0 || c.Slow <= 0 || c.Signal <= 0 {
		return fmt.Errorf("macd periods must be positive (fast=%d slow=%d signal=%d)", c.Fast, c.Slow, c.Signal)
	}
	if c.Fast >= c.Slow {
		return fmt.Errorf("macd fast period %d must be below slow period %d", c.Fast, c.Slow)
	}
	return nil
}

// WarmUp is the minimum number of closes ComputeMACD needs to emit a point.
func (c MACDConfig) WarmUp() int { return c.Slow + c.Signal }

// MACDPoint is one MACD observation once both the slow EMA and the signal
// EMA are warm.
type MACDPoint struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// ComputeMACD runs the MACD engine over closes (oldest first). It returns
// an empty slice when len(closes) < cfg.WarmUp() or cfg is invalid.
func ComputeMACD(closes []float64, cfg MACDConfig) []MACDPoint {
	if cfg.Validate() != nil || len(closes) < cfg.WarmUp() {
		return []MACDPoint{}
	}

	fast := NewEMA(cfg.Fast)
	slow := NewEMA(cfg.Slow)
	signal := NewEMA(cfg.Signal)

	points := make([]MACDPoint, 0, len(closes)-cfg.Slow-cfg.Signal+2)
	for _, c := range closes {
		fast.Update(c)
		slow.Update(c)
		if !slow.Ready() {
			continue
		}

		macd := fast.Value() - slow.Value()
		signal.Update(macd)
		if !signal.Ready() {
			continue
		}
		points = append(points, MACDPoint{
			MACD:      macd,
			Signal:    signal.Value(),
			Histogram: macd - signal.Value(),
		})
	}
	return points
}

// MACDLine extracts the MACD values of points.
func MACDLine(points []MACDPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.MACD
	}
	return out
}

// SignalLine extracts the signal values of points.
func SignalLine(points []MACDPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Signal
	}
	return out
}
