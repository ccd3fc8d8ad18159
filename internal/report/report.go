// Package report flattens one poll's indicator outputs and signal decision
// into a model.IndicatorReport.
package report

import (
	"time"

	"momentum-signalv1/internal/indicator"
	"momentum-signalv1/internal/model"
	"momentum-signalv1/internal/strategy"
)

// Input collects everything computed during one poll.
type Input struct {
	PollID   string
	Symbol   string
	Interval string
	Policy   string
	TS       time.Time

	Points      []indicator.MACDPoint  // MACD output, oldest first; may be empty
	Slope       indicator.Term         // slope of the MACD line
	Derivatives indicator.Derivatives  // of the signal line
	Volume      indicator.VolumeInfo

	// Position held going into the poll. The decision's Action records
	// any transition out of it.
	Position model.Position
	Decision strategy.Decision
}

// Assemble builds the report. It performs no computation beyond selecting
// fields; missing engine outputs become zero values and empty terms.
func Assemble(in Input) model.IndicatorReport {
	r := model.IndicatorReport{
		PollID:   in.PollID,
		Symbol:   in.Symbol,
		Interval: in.Interval,
		Policy:   in.Policy,
		TS:       in.TS,

		Slope:             in.Slope.Value,
		SlopeTerms:        in.Slope.Terms,
		Variation:         in.Derivatives.Variation.Value,
		VariationTerms:    in.Derivatives.Variation.Terms,
		Acceleration:      in.Derivatives.Acceleration.Value,
		AccelerationTerms: in.Derivatives.Acceleration.Terms,
		Jerk:              in.Derivatives.Jerk.Value,
		JerkTerms:         in.Derivatives.Jerk.Terms,

		VolumeColor:    string(in.Volume.Color),
		LatestVolume:   in.Volume.LatestVolume,
		SMAShortVolume: in.Volume.SMAShort,
		SMALongVolume:  in.Volume.SMALong,
		OpenPrice:      in.Volume.Open,
		ClosePrice:     in.Volume.Close,

		Position: in.Position,
		Action:   in.Decision.Action,
		Reason:   in.Decision.Reason,
	}

	if n := len(in.Points); n > 0 {
		r.MACD = in.Points[n-1].MACD
		r.Signal = in.Points[n-1].Signal
	}

	if in.Policy == strategy.PolicyDifference && !in.Decision.Insufficient {
		r.Difference = in.Decision.Value
		r.ComparedDifference = in.Decision.Compared
	}

	if r.Position == "" {
		r.Position = model.PositionNone
	}
	if r.Action == "" {
		r.Action = model.ActionNone
	}
	return r
}
