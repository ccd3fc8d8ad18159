// Package series converts fetched candles into the ordered numeric
// sequences consumed by the indicator engines.
package series

import (
	"time"

	"momentum-signalv1/internal/model"
)

// PriceSeries holds one poll's candles split into parallel slices, oldest first.
type PriceSeries struct {
	Closes  []float64
	Opens   []float64
	Volumes []float64
	Times   []time.Time
}

// FromCandles builds a PriceSeries. The input order is preserved.
func FromCandles(candles []model.Candle) PriceSeries {
	s := PriceSeries{
		Closes:  make([]float64, len(candles)),
		Opens:   make([]float64, len(candles)),
		Volumes: make([]float64, len(candles)),
		Times:   make([]time.Time, len(candles)),
	}
	for i, c := range candles {
		s.Closes[i] = c.Close
		s.Opens[i] = c.Open
		s.Volumes[i] = c.Volume
		s.Times[i] = c.OpenTime
	}
	return s
}

// Len returns the number of candles in the series.
func (s PriceSeries) Len() int { return len(s.Closes) }


// DropLast returns the series without its newest candle. Slices share the
// underlying arrays.
func (s PriceSeries) DropLast() PriceSeries {
	if len(s.Closes) == 0 {
		return s
	}
	n := len(s.Closes) - 1
	return PriceSeries{
		Closes:  s.Closes[:n],
		Opens:   s.Opens[:n],
		Volumes: s.Volumes[:n],
		Times:   s.Times[:n],
	}
}
