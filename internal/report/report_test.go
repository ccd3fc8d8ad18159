package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum-signalv1/internal/indicator"
	"momentum-signalv1/internal/model"
	"momentum-signalv1/internal/strategy"
)

func TestAssemble_SelectsLatestPoint(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	signal := []float64{0.1, 0.3, 0.4, 1.0}
	points := []indicator.MACDPoint{
		{MACD: 0.2, Signal: 0.1},
		{MACD: 0.5, Signal: 0.3},
		{MACD: 0.6, Signal: 0.4},
		{MACD: 1.5, Signal: 1.0},
	}

	r := Assemble(Input{
		PollID:      "BTCUSDT-1",
		Symbol:      "BTCUSDT",
		Interval:    "4h",
		Policy:      strategy.PolicyJerk,
		TS:          ts,
		Points:      points,
		Slope:       indicator.Slope(indicator.MACDLine(points)),
		Derivatives: indicator.Derive(signal),
		Volume: indicator.VolumeInfo{
			LatestVolume: 120, Color: indicator.ColorBearish,
			SMAShort: 100, SMALong: 90, Open: 42000, Close: 41500,
		},
		Position: model.PositionLong,
		Decision: strategy.Decision{Action: model.ActionSell, Position: model.PositionShort, Value: 0.3},
	})

	assert.Equal(t, 1.5, r.MACD)
	assert.Equal(t, 1.0, r.Signal)
	assert.InDelta(t, 0.9, r.Slope, 1e-12)
	assert.Equal(t, "1.5000 - 0.6000", r.SlopeTerms)
	assert.InDelta(t, 0.6, r.Variation, 1e-12)
	assert.Equal(t, "1.0000 - 0.4000", r.VariationTerms)
	assert.True(t, r.JerkTerms != "")
	assert.Equal(t, "bearish", r.VolumeColor)
	assert.Equal(t, 41500.0, r.ClosePrice)
	assert.Equal(t, model.ActionSell, r.Action)
	// the position column holds what was held before the sell
	assert.Equal(t, model.PositionLong, r.Position)

	// jerk policy leaves the difference audit fields empty
	assert.Zero(t, r.Difference)
	assert.Zero(t, r.ComparedDifference)

	row := r.Row()
	require.Len(t, row, len(model.ReportColumns(7, 20)))
	assert.Equal(t, "2024-03-01T08:00:00Z", row[0])
	assert.Equal(t, "long", row[len(row)-2])
	assert.Equal(t, "sell", row[len(row)-1])
}

func TestAssemble_FirstPollDefaults(t *testing.T) {
	r := Assemble(Input{
		Symbol:      "BTCUSDT",
		Policy:      strategy.PolicyDifference,
		Points:      []indicator.MACDPoint{{MACD: 0.4, Signal: 0.1}},
		Derivatives: indicator.Derive([]float64{0.1}),
		Decision:    strategy.Decision{Action: model.ActionWait, Position: model.PositionNone, Value: 0.3},
	})

	assert.Zero(t, r.Variation)
	assert.Empty(t, r.VariationTerms)
	assert.Zero(t, r.Acceleration)
	assert.Empty(t, r.AccelerationTerms)
	assert.Zero(t, r.Jerk)
	assert.Empty(t, r.JerkTerms)
	assert.Equal(t, 0.3, r.Difference)
	assert.Equal(t, model.ActionWait, r.Action)
}

func TestAssemble_NoPoints(t *testing.T) {
	r := Assemble(Input{
		Policy:   strategy.PolicyJerk,
		Decision: strategy.Decision{Action: model.ActionInsufficient, Insufficient: true},
	})
	assert.Zero(t, r.MACD)
	assert.Zero(t, r.Signal)
	assert.Equal(t, model.ActionInsufficient, r.Action)
	assert.Equal(t, model.PositionNone, r.Position)
}
