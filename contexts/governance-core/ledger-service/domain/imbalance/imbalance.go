// Package imbalance provides move-only accounting tokens. Every mutating
// ledger operation returns one, and the holder must consume it exactly once:
// by merging, offsetting against the opposite polarity, settling it into the
// ledger, or dropping it when its magnitude is zero. Consuming a token twice
// is a logic error and panics.
package imbalance

type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
)

// cell is the single-owner backing store of a token. Copies of a token share
// the cell, so any second consumption trips the spent check.
type cell struct {
	amount uint64
	spent  bool
}

func (c *cell) peek() uint64 {
	if c == nil {
		return 0
	}
	if c.spent {
		panic("imbalance: token inspected after being consumed")
	}
	return c.amount
}

func (c *cell) take() uint64 {
	if c == nil {
		return 0
	}
	if c.spent {
		panic("imbalance: token consumed twice")
	}
	c.spent = true
	return c.amount
}

// Positive represents a pending increase of recorded total issuance, created
// by deposits and burns.
type Positive struct {
	cell *cell
}

// Negative represents a pending decrease of recorded total issuance, created
// by withdrawals, slashes and issuance.
type Negative struct {
	cell *cell
}

func NewPositive(amount uint64) Positive {
	return Positive{cell: &cell{amount: amount}}
}

func NewNegative(amount uint64) Negative {
	return Negative{cell: &cell{amount: amount}}
}

// Peek reads the magnitude without consuming the token.
func (p Positive) Peek() uint64 { return p.cell.peek() }
func (n Negative) Peek() uint64 { return n.cell.peek() }

// Take consumes the token and surrenders its magnitude. Callers other than a
// ledger settling the token should prefer Merge/Offset/DropZero.
func (p Positive) Take() uint64 { return p.cell.take() }
func (n Negative) Take() uint64 { return n.cell.take() }

// Split consumes the token and returns two tokens whose magnitudes sum to the
// original: the first carries min(amount, total), the second the rest.
func (p Positive) Split(amount uint64) (Positive, Positive) {
	total := p.cell.take()
	first := amount
	if first > total {
		first = total
	}
	return NewPositive(first), NewPositive(total - first)
}

func (n Negative) Split(amount uint64) (Negative, Negative) {
	total := n.cell.take()
	first := amount
	if first > total {
		first = total
	}
	return NewNegative(first), NewNegative(total - first)
}

// Merge consumes both tokens and returns their combined magnitude.
func (p Positive) Merge(other Positive) Positive {
	return NewPositive(p.cell.take() + other.cell.take())
}

func (n Negative) Merge(other Negative) Negative {
	return NewNegative(n.cell.take() + other.cell.take())
}

// Offset nets the token against its polarity opposite, consuming both and
// returning whichever side has leftover magnitude. An exact match leaves a
// zero positive remainder.
func (p Positive) Offset(other Negative) Signed {
	pos := p.cell.take()
	neg := other.cell.take()
	if pos >= neg {
		return SignedFromPositive(NewPositive(pos - neg))
	}
	return SignedFromNegative(NewNegative(neg - pos))
}

func (n Negative) Offset(other Positive) Signed {
	return other.Offset(n)
}

// DropZero discards a token that must be empty. Dropping a non-zero token
// this way is a conservation bug, so it panics.
func (p Positive) DropZero() {
	if amount := p.cell.take(); amount != 0 {
		panic("imbalance: non-zero positive token dropped")
	}
}

func (n Negative) DropZero() {
	if amount := n.cell.take(); amount != 0 {
		panic("imbalance: non-zero negative token dropped")
	}
}

// Signed wraps a token of either polarity.
type Signed struct {
	polarity Polarity
	pos      Positive
	neg      Negative
}

func SignedFromPositive(p Positive) Signed {
	return Signed{polarity: PolarityPositive, pos: p}
}

func SignedFromNegative(n Negative) Signed {
	return Signed{polarity: PolarityNegative, neg: n}
}

func (s Signed) Polarity() Polarity { return s.polarity }

func (s Signed) Peek() uint64 {
	if s.polarity == PolarityNegative {
		return s.neg.Peek()
	}
	return s.pos.Peek()
}

// Merge combines two signed tokens, offsetting across polarities when they
// differ. Both inputs are consumed.
func (s Signed) Merge(other Signed) Signed {
	switch {
	case s.polarity == PolarityNegative && other.polarity == PolarityNegative:
		return SignedFromNegative(s.neg.Merge(other.neg))
	case s.polarity == PolarityNegative:
		return other.pos.Offset(s.neg)
	case other.polarity == PolarityNegative:
		return s.pos.Offset(other.neg)
	default:
		return SignedFromPositive(s.pos.Merge(other.pos))
	}
}

// TakePositive surrenders the positive token; ok is false for a negative.
func (s Signed) TakePositive() (Positive, bool) {
	if s.polarity == PolarityNegative {
		return Positive{}, false
	}
	return s.pos, true
}

// TakeNegative surrenders the negative token; ok is false for a positive.
func (s Signed) TakeNegative() (Negative, bool) {
	if s.polarity == PolarityNegative {
		return s.neg, true
	}
	return Negative{}, false
}
