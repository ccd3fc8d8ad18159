package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ReportColumns returns the persisted column titles of an IndicatorReport.
// The volume SMA titles carry their window lengths ("SMA7 Volume"). CSV
// files written by earlier runs rely on this exact order.
func ReportColumns(smaShort, smaLong int) []string {
	return []string{
		"Timestamp",
		"MACD",
		"Signal",
		"MACD Slope",
		"MACD Slope Terms",
		"MACD Variation",
		"MACD Variation Terms",
		"MACD Acceleration",
		"MACD Acceleration Terms",
		"MACD Jerk",
		"MACD Jerk Terms",
		"Volume Color",
		"Latest Volume",
		fmt.Sprintf("SMA%d Volume", smaShort),
		fmt.Sprintf("SMA%d Volume", smaLong),
		"Open Price",
		"Close Price",
		"Position",
		"Action",
	}
}

// IndicatorReport is the flattened output of one poll cycle.
type IndicatorReport struct {
	PollID   string    `json:"poll_id"`
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"`
	Policy   string    `json:"policy"`
	TS       time.Time `json:"timestamp"`

	MACD              float64 `json:"macd"`
	Signal            float64 `json:"signal"`
	Slope             float64 `json:"macd_slope"`
	SlopeTerms        string  `json:"macd_slope_terms"`
	Variation         float64 `json:"macd_variation"`
	VariationTerms    string  `json:"macd_var_terms"`
	Acceleration      float64 `json:"macd_acceleration"`
	AccelerationTerms string  `json:"macd_acc_terms"`
	Jerk              float64 `json:"macd_jerk"`
	JerkTerms         string  `json:"macd_jerk_terms"`

	VolumeColor    string  `json:"volume_color"`
	LatestVolume   float64 `json:"latest_volume"`
	SMAShortVolume float64 `json:"sma_short_volume"`
	SMALongVolume  float64 `json:"sma_long_volume"`
	OpenPrice      float64 `json:"open_price"`
	ClosePrice     float64 `json:"close_price"`

	Position Position `json:"position"`
	Action   Action   `json:"action"`

	// Difference-policy audit fields; zero for the jerk policy.
	Difference         float64 `json:"difference"`
	ComparedDifference float64 `json:"compared_difference"`
	Reason             string  `json:"reason,omitempty"`
}

// Row renders the report in ReportColumns order.
func (r *IndicatorReport) Row() []string {
	return []string{
		r.TS.UTC().Format(time.RFC3339),
		ff(r.MACD),
		ff(r.Signal),
		ff(r.Slope),
		r.SlopeTerms,
		ff(r.Variation),
		r.VariationTerms,
		ff(r.Acceleration),
		r.AccelerationTerms,
		ff(r.Jerk),
		r.JerkTerms,
		r.VolumeColor,
		ff(r.LatestVolume),
		ff(r.SMAShortVolume),
		ff(r.SMALongVolume),
		ff(r.OpenPrice),
		ff(r.ClosePrice),
		string(r.Position),
		string(r.Action),
	}
}

// JSON returns the JSON-encoded report.
func (r *IndicatorReport) JSON() []byte {
	b, _ := json.Marshal(r)
	return b
}

func ff(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
