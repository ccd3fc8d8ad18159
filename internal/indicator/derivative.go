package indicator

import "strconv"

// Term is one derivative value together with the literal operands of the
// subtraction that produced it. OK is false when history was too short, in
// which case Value is 0 and Terms is "".
type Term struct {
	Value float64 `json:"value"`
	Terms string  `json:"terms"`
	OK    bool    `json:"ok"`
}

// Derivatives holds the first three finite differences of a series.
type Derivatives struct {
	Variation    Term `json:"variation"`    // V[n-1] - V[n-2]
	Acceleration Term `json:"acceleration"` // second difference, |V| >= 3
	Jerk         Term `json:"jerk"`         // third difference, |V| >= 4
}

// Slope returns the first difference of the two newest values, rendered as
// "a - b".
func Slope(values []float64) Term {
	n := len(values)
	if n < 2 {
		return Term{}
	}
	a, b := values[n-1], values[n-2]
	return Term{
		Value: a - b,
		Terms: fixed4(a) + " - " + fixed4(b),
		OK:    true,
	}
}

// Derive computes variation, acceleration and jerk over the trailing window
// of values. Each order degrades independently to a zero Term.
func Derive(values []float64) Derivatives {
	var d Derivatives
	n := len(values)

	d.Variation = Slope(values)
	if n < 3 {
		return d
	}

	d1 := values[n-1] - values[n-2]
	d2 := values[n-2] - values[n-3]
	acc := d1 - d2
	d.Acceleration = Term{
		Value: acc,
		Terms: paren(d1) + " - " + paren(d2),
		OK:    true,
	}
	if n < 4 {
		return d
	}

	d3 := values[n-3] - values[n-4]
	prevAcc := d2 - d3
	d.Jerk = Term{
		Value: acc - prevAcc,
		Terms: paren(acc) + " - " + paren(prevAcc),
		OK:    true,
	}
	return d
}

func paren(x float64) string {
	return "(" + fixed4(x) + ")"
}

// fixed4 renders x with exactly four decimals, rounding the exact binary
// value, so 1.00005 (stored just below) prints as 1.0000. Negative zero
// prints unsigned.
func fixed4(x float64) string {
	if x == 0 {
		x = 0
	}
	return strconv.FormatFloat(x, 'f', 4, 64)
}
