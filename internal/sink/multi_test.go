package sink

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum-signalv1/internal/model"
)

type recordingSink struct {
	name   string
	err    error
	writes int
	closed bool
}

func (s *recordingSink) Name() string { return s.name }
func (s *recordingSink) WriteReport(context.Context, model.IndicatorReport, *model.TradeEvent) error {
	s.writes++
	return s.err
}
func (s *recordingSink) Close() error { s.closed = true; return nil }

func TestMulti_FailingSinkDoesNotBlockOthers(t *testing.T) {
	errDisk := errors.New("disk full")
	a := &recordingSink{name: "csv", err: errDisk}
	b := &recordingSink{name: "sqlite"}

	var failed []string
	m := NewMulti(func(name string, _ error) { failed = append(failed, name) }, a, nil, b)
	require.Equal(t, 2, m.Len())

	err := m.WriteReport(context.Background(), model.IndicatorReport{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errDisk)
	assert.Contains(t, err.Error(), "csv")
	assert.Equal(t, 1, a.writes)
	assert.Equal(t, 1, b.writes)
	assert.Equal(t, []string{"csv"}, failed)

	require.NoError(t, m.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestMulti_AllSucceed(t *testing.T) {
	m := NewMulti(nil, &recordingSink{name: "a"}, &recordingSink{name: "b"})
	assert.NoError(t, m.WriteReport(context.Background(), model.IndicatorReport{}, nil))
}
