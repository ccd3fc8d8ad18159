package strategy

import (
	"momentum-signalv1/internal/model"
	"momentum-signalv1/internal/ringbuf"
)

// DefaultBufferCap is the rolling difference history length.
const DefaultBufferCap = 5

// DifferencePolicy compares the current MACD-minus-signal difference with
// the previous one.
//
// Buy when the difference rises and the last operation was not a buy; sell
// when it falls and the last operation was not a sell. The first evaluation
// compares against a seed difference from the previous candle and waits if
// none is available.
type DifferencePolicy struct {
	buf      *ringbuf.Ring[float64]
	lastOp   model.Action
	firstRun bool
}

// NewDifferencePolicy creates a policy in its startup state.
func NewDifferencePolicy(bufferCap int) *DifferencePolicy {
	if bufferCap <= 0 {
		bufferCap = DefaultBufferCap
	}
	return &DifferencePolicy{
		buf:      ringbuf.New[float64](bufferCap),
		lastOp:   model.ActionNone,
		firstRun: true,
	}
}

// RestoreDifferencePolicy rebuilds a policy from a snapshot.
func RestoreDifferencePolicy(st State, bufferCap int) *DifferencePolicy {
	p := NewDifferencePolicy(bufferCap)
	for _, v := range st.Buffer {
		p.buf.Push(v)
	}
	if st.LastOp != "" {
		p.lastOp = st.LastOp
	}
	p.firstRun = st.FirstRun
	return p
}

func (p *DifferencePolicy) Name() string { return PolicyDifference }

func (p *DifferencePolicy) Evaluate(in Input) Decision {
	if len(in.Points) == 0 {
		return insufficient(p.Position(), "no MACD points")
	}

	last := in.Points[len(in.Points)-1]
	cur := last.MACD - last.Signal

	var (
		cmp  float64
		have bool
	)
	if p.firstRun {
		if in.Seed != nil {
			cmp, have = in.Seed()
		}
		p.firstRun = false
	} else {
		cmp, have = p.buf.Last()
	}

	if !have {
		p.buf.Push(cur)
		return Decision{
			Action:   model.ActionWait,
			Position: p.Position(),
			Value:    cur,
			Reason:   "no previous difference",
		}
	}

	d := Decision{Action: model.ActionNone, Value: cur, Compared: cmp}
	switch {
	case cur > cmp && p.lastOp != model.ActionBuy:
		p.lastOp = model.ActionBuy
		d.Action = model.ActionBuy
		d.Reason = "difference rising"
	case cur < cmp && p.lastOp != model.ActionSell:
		p.lastOp = model.ActionSell
		d.Action = model.ActionSell
		d.Reason = "difference falling"
	}

	p.buf.Push(cur)
	d.Position = p.Position()
	return d
}

// Position maps the last operation to the held position.
func (p *DifferencePolicy) Position() model.Position {
	switch p.lastOp {
	case model.ActionBuy:
		return model.PositionLong
	case model.ActionSell:
		return model.PositionShort
	default:
		return model.PositionNone
	}
}

func (p *DifferencePolicy) Snapshot() State {
	return State{
		Policy:   PolicyDifference,
		Position: p.Position(),
		LastOp:   p.lastOp,
		FirstRun: p.firstRun,
		Buffer:   p.buf.Values(),
	}
}
