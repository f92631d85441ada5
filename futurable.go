package m2c2

import "math"

// FutureOp is a binary operator in a Futurable expression.
type FutureOp uint8

const (
	FutureAdd FutureOp = iota
	FutureSubtract
	FutureMax
)

// futureValue is one term of a Futurable expression. The concrete types form
// a closed tagged union: known, unknown, futureRef and futureExpr.
type futureValue interface {
	eval() float64
	refers(f *Futurable) bool
}

type known float64

func (k known) eval() float64        { return float64(k) }
func (known) refers(*Futurable) bool { return false }

type unknown struct{}

func (unknown) eval() float64          { return math.Inf(1) }
func (unknown) refers(*Futurable) bool { return false }

// futureRef points at another Futurable so later assignments to it are
// visible through this expression.
type futureRef struct{ f *Futurable }

func (r futureRef) eval() float64 { return r.f.Value() }
func (r futureRef) refers(f *Futurable) bool {
	return r.f == f || (r.f.expr != nil && r.f.expr.refers(f))
}

type futureExpr struct {
	op       FutureOp
	lhs, rhs futureValue
}

func (e futureExpr) eval() float64 {
	l, r := e.lhs.eval(), e.rhs.eval()
	if math.IsInf(l, 1) || math.IsInf(r, 1) {
		return math.Inf(1)
	}
	switch e.op {
	case FutureSubtract:
		return l - r
	case FutureMax:
		return math.Max(l, r)
	default:
		return l + r
	}
}

func (e futureExpr) refers(f *Futurable) bool {
	return e.lhs.refers(f) || e.rhs.refers(f)
}

// Futurable is a number that may not be known until later, such as the
// duration of a sound that has not finished decoding. A Futurable built from
// other Futurables keeps referring to them, so assigning a value to a leaf
// updates every expression that contains it.
//
// An empty Futurable evaluates to 0. An unknown term evaluates to +Inf and
// makes the whole expression +Inf.
type Futurable struct {
	expr futureValue
}

// NewFuturable returns a Futurable holding v.
func NewFuturable(v float64) *Futurable {
	return &Futurable{expr: known(v)}
}

// UnknownFuturable returns a Futurable whose value is not yet known.
func UnknownFuturable() *Futurable {
	return &Futurable{expr: unknown{}}
}

// Value evaluates the expression.
func (f *Futurable) Value() float64 {
	if f == nil || f.expr == nil {
		return 0
	}
	return f.expr.eval()
}

// IsKnown reports whether Value is finite.
func (f *Futurable) IsKnown() bool {
	return !math.IsInf(f.Value(), 1)
}

// Assign replaces the expression with the plain number v.
func (f *Futurable) Assign(v float64) {
	f.expr = known(v)
}

// setUnknown resets f to an unknown value. Expressions referring to f see
// the change.
func (f *Futurable) setUnknown() {
	f.expr = unknown{}
}

// AssignFuturable makes f an alias of other. Panics if other is f or
// contains f.
func (f *Futurable) AssignFuturable(other *Futurable) {
	f.mustNotContain(other, "assign")
	f.expr = futureRef{other}
}

// Add appends "+ v" to the expression.
func (f *Futurable) Add(v float64) {
	f.combine(FutureAdd, known(v))
}

// Subtract appends "- v" to the expression.
func (f *Futurable) Subtract(v float64) {
	f.combine(FutureSubtract, known(v))
}

// AddFuturable appends "+ other" to the expression. Panics if other is f or
// contains f.
func (f *Futurable) AddFuturable(other *Futurable) {
	f.mustNotContain(other, "add")
	f.combine(FutureAdd, futureRef{other})
}

// SubtractFuturable appends "- other" to the expression. Panics if other is f
// or contains f.
func (f *Futurable) SubtractFuturable(other *Futurable) {
	f.mustNotContain(other, "subtract")
	f.combine(FutureSubtract, futureRef{other})
}

// MaxFuturable replaces the expression with max(f, other). Panics if other is
// f or contains f.
func (f *Futurable) MaxFuturable(other *Futurable) {
	f.mustNotContain(other, "max")
	f.combine(FutureMax, futureRef{other})
}

func (f *Futurable) combine(op FutureOp, term futureValue) {
	if f.expr == nil {
		if op == FutureSubtract {
			f.expr = futureExpr{op: op, lhs: known(0), rhs: term}
			return
		}
		f.expr = term
		return
	}
	f.expr = futureExpr{op: op, lhs: f.expr, rhs: term}
}

func (f *Futurable) mustNotContain(other *Futurable, op string) {
	if other == f || other.contains(f) {
		panic("m2c2: futurable cannot " + op + " itself")
	}
}

func (f *Futurable) contains(target *Futurable) bool {
	return f.expr != nil && f.expr.refers(target)
}
