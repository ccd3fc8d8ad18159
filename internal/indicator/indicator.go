// Package indicator provides the numeric engines of a poll cycle: MACD and
// its EMAs, finite-difference derivatives of the MACD/signal lines, and
// volume moving averages.
//
// Batch functions (ComputeMACD, Derive, ComputeVolume) are pure: they take
// the full price window of a poll and return values without retained state.
package indicator

import "errors"

// ErrInsufficientHistory is returned when an input is too short for the
// requested computation. Callers degrade to zero values rather than abort.
var ErrInsufficientHistory = errors.New("insufficient history")
