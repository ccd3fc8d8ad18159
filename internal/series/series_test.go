package series

import (
	"testing"
	"time"

	"momentum-signalv1/internal/model"
)

func TestFromCandles(t *testing.T) {
	t0 := time.Unix(1700000000, 0).UTC()
	candles := []model.Candle{
		{OpenTime: t0, Open: 10, Close: 11, Volume: 5},
		{OpenTime: t0.Add(time.Minute), Open: 11, Close: 9, Volume: 7},
	}

	s := FromCandles(candles)
	if s.Len() != 2 {
		t.Fatalf("len=%d", s.Len())
	}
	if s.Closes[1] != 9 || s.Opens[1] != 11 || s.Volumes[1] != 7 {
		t.Errorf("unexpected latest values: close=%v open=%v vol=%v", s.Closes[1], s.Opens[1], s.Volumes[1])
	}
	if !s.Times[0].Equal(t0) {
		t.Errorf("times[0] = %v", s.Times[0])
	}
}

func TestDropLast(t *testing.T) {
	s := FromCandles([]model.Candle{{Close: 1}, {Close: 2}, {Close: 3}})
	d := s.DropLast()
	if d.Len() != 2 || d.Closes[1] != 2 {
		t.Fatalf("DropLast = %v", d.Closes)
	}
	if s.Len() != 3 {
		t.Fatal("DropLast must not shrink the original")
	}

	empty := FromCandles(nil).DropLast()
	if empty.Len() != 0 {
		t.Fatal("DropLast on empty series should stay empty")
	}
}
