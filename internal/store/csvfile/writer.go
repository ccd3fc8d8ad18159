// Package csvfile appends indicator reports to a CSV file whose columns
// match model.ReportColumns.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"momentum-signalv1/internal/model"
)

// Writer is an append-only CSV report sink.
type Writer struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *csv.Writer
}

var _ model.ReportSink = (*Writer)(nil)

// New opens path for appending, creating parent directories. The header row
// is written only when the file is new or empty.
func New(path string, header []string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("csv mkdir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("csv open: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("csv stat: %w", err)
	}

	w := &Writer{path: path, f: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := w.writeRow(header); err != nil {
			f.Close()
			return nil, fmt.Errorf("csv header: %w", err)
		}
	}

	slog.Info("csv: appending reports", "path", path)
	return w, nil
}

func (w *Writer) Name() string { return "csv" }

// WriteReport appends one row. The trade is already reflected in the
// report's action column.
func (w *Writer) WriteReport(_ context.Context, r model.IndicatorReport, _ *model.TradeEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.writeRow(r.Row()); err != nil {
		return fmt.Errorf("csv write %s: %w", w.path, err)
	}
	return nil
}

func (w *Writer) writeRow(row []string) error {
	if err := w.w.Write(row); err != nil {
		return err
	}
	w.w.Flush()
	return w.w.Error()
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.w.Flush()
	return w.f.Close()
}
