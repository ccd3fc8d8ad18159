package strategy

import "momentum-signalv1/internal/model"

// Sign is the classified sign of a monitored value.
type Sign string

const (
	SignUnset    Sign = "unset"
	SignPositive Sign = "positive"
	SignNegative Sign = "negative"
	SignZero     Sign = "zero"
)

// SignOf classifies v.
func SignOf(v float64) Sign {
	switch {
	case v > 0:
		return SignPositive
	case v < 0:
		return SignNegative
	default:
		return SignZero
	}
}

// JerkPolicy fires on sign flips of the jerk.
//
// A flip to positive buys unless already long; a flip to negative sells
// unless already short. Flips to or from zero never trade. The observed
// sign is recorded on every evaluation, whether or not an action fired.
type JerkPolicy struct {
	lastSign Sign
	position model.Position
}

// NewJerkPolicy creates a policy in its startup state {none, unset}.
func NewJerkPolicy() *JerkPolicy {
	return &JerkPolicy{lastSign: SignUnset, position: model.PositionNone}
}

// RestoreJerkPolicy rebuilds a policy from a snapshot.
func RestoreJerkPolicy(st State) *JerkPolicy {
	p := NewJerkPolicy()
	if st.LastSign != "" {
		p.lastSign = st.LastSign
	}
	if st.Position != "" {
		p.position = st.Position
	}
	return p
}

func (p *JerkPolicy) Name() string { return PolicyJerk }

func (p *JerkPolicy) Evaluate(in Input) Decision {
	if !in.Jerk.OK {
		return insufficient(p.position, "jerk needs at least 4 signal points")
	}

	sign := SignOf(in.Jerk.Value)
	d := Decision{Action: model.ActionNone, Value: in.Jerk.Value}

	if p.lastSign != SignUnset && sign != p.lastSign {
		switch {
		case sign == SignPositive && p.position != model.PositionLong:
			p.position = model.PositionLong
			d.Action = model.ActionBuy
			d.Reason = "jerk turned positive"
		case sign == SignNegative && p.position != model.PositionShort:
			p.position = model.PositionShort
			d.Action = model.ActionSell
			d.Reason = "jerk turned negative"
		}
	}

	p.lastSign = sign
	d.Position = p.position
	return d
}

func (p *JerkPolicy) Position() model.Position { return p.position }

func (p *JerkPolicy) Snapshot() State {
	return State{
		Policy:   PolicyJerk,
		Position: p.position,
		LastSign: p.lastSign,
	}
}
