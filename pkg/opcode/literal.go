package opcode

import (
	"fmt"
	"math/big"
	"strconv"
)

// LiteralKind identifies the variant held by a Literal.
type LiteralKind uint8

const (
	// LiteralNone is the absent value.
	LiteralNone LiteralKind = iota
	// LiteralInt is a 128-bit signed integer.
	LiteralInt
	// LiteralString is a UTF-8 string.
	LiteralString
)

// String returns the kind name used in error messages.
func (k LiteralKind) String() string {
	switch k {
	case LiteralNone:
		return "none"
	case LiteralInt:
		return "integer"
	case LiteralString:
		return "string"
	default:
		return fmt.Sprintf("LiteralKind(%d)", uint8(k))
	}
}

var (
	// MaxInt128 is the largest value an integer literal may hold.
	MaxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	// MinInt128 is the smallest value an integer literal may hold.
	MinInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// InInt128Range reports whether v fits in a 128-bit signed integer.
func InInt128Range(v *big.Int) bool {
	return v.Cmp(MinInt128) >= 0 && v.Cmp(MaxInt128) <= 0
}

// Literal is a constant value stored in a script's literal pool.
// Copies of a Literal share Int; use Clone for an independent value.
type Literal struct {
	Kind LiteralKind
	Int  *big.Int
	Str  string
}

// NoneLiteral returns the absent value.
func NoneLiteral() Literal { return Literal{Kind: LiteralNone} }

// StringLiteral returns a string literal.
func StringLiteral(s string) Literal { return Literal{Kind: LiteralString, Str: s} }

// IntLiteral returns an integer literal holding a copy of v.
func IntLiteral(v *big.Int) Literal {
	return Literal{Kind: LiteralInt, Int: new(big.Int).Set(v)}
}

// Int64Literal returns an integer literal for v.
func Int64Literal(v int64) Literal {
	return Literal{Kind: LiteralInt, Int: big.NewInt(v)}
}

// Clone returns a copy of l that does not share Int.
func (l Literal) Clone() Literal {
	if l.Int != nil {
		l.Int = new(big.Int).Set(l.Int)
	}
	return l
}

// Key returns a string that is equal for two literals exactly when the
// literals are structurally equal. It is used for literal pool interning.
func (l Literal) Key() string {
	switch l.Kind {
	case LiteralInt:
		if l.Int == nil {
			return "i:0"
		}
		return "i:" + l.Int.String()
	case LiteralString:
		return "s:" + l.Str
	default:
		return "n:"
	}
}

// Equal reports structural equality.
func (l Literal) Equal(o Literal) bool {
	return l.Key() == o.Key()
}

// AsString returns the string value if l is a string literal.
func (l Literal) AsString() (string, bool) {
	if l.Kind != LiteralString {
		return "", false
	}
	return l.Str, true
}

// AsInt64 returns the integer value if l is an integer literal that fits in int64.
func (l Literal) AsInt64() (int64, bool) {
	if l.Kind != LiteralInt || l.Int == nil || !l.Int.IsInt64() {
		return 0, false
	}
	return l.Int.Int64(), true
}

// String formats the literal as it would appear in source.
func (l Literal) String() string {
	switch l.Kind {
	case LiteralInt:
		if l.Int == nil {
			return "0"
		}
		return l.Int.String()
	case LiteralString:
		return strconv.Quote(l.Str)
	default:
		return "none"
	}
}
