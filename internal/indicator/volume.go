package indicator

import (
	"fmt"

	"github.com/markcheno/go-talib"
)

// Color classifies the latest candle's direction.
type Color string

const (
	ColorBullish Color = "bullish"
	ColorBearish Color = "bearish"
)

// ClassifyColor returns bearish iff open > close; equality is bullish.
func ClassifyColor(open, close float64) Color {
	if open > close {
		return ColorBearish
	}
	return ColorBullish
}

// VolumeConfig holds the two volume SMA windows.
type VolumeConfig struct {
	Short int `yaml:"short" json:"short"`
	Long  int `yaml:"long" json:"long"`
}

// DefaultVolumeConfig returns the 7/20 windows.
func DefaultVolumeConfig() VolumeConfig {
	return VolumeConfig{Short: 7, Long: 20}
}

// Validate checks that both windows are positive.
func (c VolumeConfig) Validate() error {
	if c.Short <= 0 || c.Long <= 0 {
		return fmt.Errorf("volume sma windows must be positive (short=%d long=%d)", c.Short, c.Long)
	}
	return nil
}

// VolumeInfo is the Volume Engine output for the newest candle.
type VolumeInfo struct {
	LatestVolume float64 `json:"latest_volume"`
	Color        Color   `json:"color"`
	SMAShort     float64 `json:"sma_short"` // 0 when history < Short
	SMALong      float64 `json:"sma_long"`  // 0 when history < Long
	Open         float64 `json:"open"`
	Close        float64 `json:"close"`
}

// ComputeVolume computes the volume SMAs and classifies the newest candle.
// The three slices must be parallel. It fails only on empty or ragged input.
func ComputeVolume(opens, closes, volumes []float64, cfg VolumeConfig) (VolumeInfo, error) {
	n := len(volumes)
	if n == 0 {
		return VolumeInfo{}, ErrInsufficientHistory
	}
	if len(opens) != n || len(closes) != n {
		return VolumeInfo{}, fmt.Errorf("volume engine: ragged input (opens=%d closes=%d volumes=%d)", len(opens), len(closes), n)
	}

	open, close := opens[n-1], closes[n-1]
	return VolumeInfo{
		LatestVolume: volumes[n-1],
		Color:        ClassifyColor(open, close),
		SMAShort:     latestSMA(volumes, cfg.Short),
		SMALong:      latestSMA(volumes, cfg.Long),
		Open:         open,
		Close:        close,
	}, nil
}

// latestSMA returns the newest SMA value, or 0 when the window exceeds the input.
func latestSMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	out := talib.Sma(values, period)
	return out[len(out)-1]
}
