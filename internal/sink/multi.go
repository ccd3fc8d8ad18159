// Package sink fans one poll's report out to every configured sink.
package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"momentum-signalv1/internal/model"
)

// FailureFunc is called once per failed sink, e.g. to count failures.
type FailureFunc func(sink string, err error)

// Multi writes to each sink in order. A failing sink does not stop the
// others and nothing is rolled back.
type Multi struct {
	sinks     []model.ReportSink
	onFailure FailureFunc
}

var _ model.ReportSink = (*Multi)(nil)

// NewMulti creates a fan-out over sinks. Nil sinks are skipped.
func NewMulti(onFailure FailureFunc, sinks ...model.ReportSink) *Multi {
	m := &Multi{onFailure: onFailure}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *Multi) Name() string { return "multi" }

// Len returns the number of wrapped sinks.
func (m *Multi) Len() int { return len(m.sinks) }

// WriteReport returns the joined errors of all failed sinks.
func (m *Multi) WriteReport(ctx context.Context, r model.IndicatorReport, trade *model.TradeEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.WriteReport(ctx, r, trade); err != nil {
			slog.Error("sink: write failed", "sink", s.Name(), "poll_id", r.PollID, "error", err)
			if m.onFailure != nil {
				m.onFailure(s.Name(), err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins the errors.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
