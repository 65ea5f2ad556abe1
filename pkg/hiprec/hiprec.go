// Package hiprec is a façade over an arbitrary-precision real type.
//
// It exists so the rest of the core (Gauss-Legendre node generation, the
// piecewise-polynomial lift, the Jacobi SVD) never touches math/big
// directly: every operation goes through Real, which always computes at
// the package's current working precision. There is no automatic
// precision coercion across values of different stored precision —
// arithmetic on mismatched inputs is defined to run at the globally set
// default, matching the "single, well-defined precision per routine"
// invariant the core requires.
package hiprec

import (
	"fmt"
	"math/big"
)

// defaultPrec is the process-wide working precision, in bits of mantissa.
// It is the one piece of shared mutable state in the core (see §5 of the
// design notes): every routine that changes it must restore the prior
// value on every exit path, including error paths.
var defaultPrec uint = 200

// Precision returns the current working precision in bits.
func Precision() uint { return defaultPrec }

// SetPrecision sets the working precision and returns the previous value,
// so callers can restore it later.
func SetPrecision(bits uint) uint {
	old := defaultPrec
	defaultPrec = bits
	return old
}

// WithPrecision sets the working precision to bits and returns a restore
// function. Intended to be deferred immediately:
//
//	restore := hiprec.WithPrecision(256)
//	defer restore()
//
// so the prior precision is guaranteed to be restored even if the caller
// returns through an error path or a panic recovery.
func WithPrecision(bits uint) func() {
	old := SetPrecision(bits)
	return func() { SetPrecision(old) }
}

// Real is an arbitrary-precision real number.
type Real struct {
	v *big.Float
}

func wrap(v *big.Float) Real { return Real{v: v} }

// fresh allocates a new big.Float at the current working precision.
func fresh() *big.Float { return new(big.Float).SetPrec(defaultPrec) }

// Zero returns 0 at the current working precision.
func Zero() Real { return wrap(fresh()) }

// FromFloat64 converts a machine double to Real at the current working
// precision. This is the only sanctioned way a machine double enters
// high-precision code; there is no implicit conversion.
func FromFloat64(f float64) Real { return wrap(fresh().SetFloat64(f)) }

// FromInt64 converts a machine integer to Real at the current working
// precision.
func FromInt64(n int64) Real { return wrap(fresh().SetInt64(n)) }

// FromString parses a decimal string at the current working precision.
func FromString(s string) (Real, error) {
	v, _, err := big.ParseFloat(s, 10, defaultPrec, big.ToNearestEven)
	if err != nil {
		return Real{}, fmt.Errorf("hiprec: parse %q: %w", s, err)
	}
	return wrap(v), nil
}

// Float64 converts back to a machine double. This is the explicit
// conversion the façade requires before a value leaves high-precision
// code.
func (r Real) Float64() float64 {
	f, _ := r.v.Float64()
	return f
}

// String renders r in full working-precision decimal, used by the
// persisted PP format (§6.2 of the design notes).
func (r Real) String() string {
	return r.v.Text('g', -1)
}

// Add returns a + b, computed at the current working precision.
func Add(a, b Real) Real { return wrap(fresh().Add(a.v, b.v)) }

// Sub returns a - b, computed at the current working precision.
func Sub(a, b Real) Real { return wrap(fresh().Sub(a.v, b.v)) }

// Mul returns a * b, computed at the current working precision.
func Mul(a, b Real) Real { return wrap(fresh().Mul(a.v, b.v)) }

// Quo returns a / b, computed at the current working precision.
func Quo(a, b Real) Real { return wrap(fresh().Quo(a.v, b.v)) }

// Neg returns -a.
func Neg(a Real) Real { return wrap(fresh().Neg(a.v)) }

// Abs returns |a|.
func Abs(a Real) Real { return wrap(fresh().Abs(a.v)) }

// Sqrt returns sqrt(a). Panics if a is negative, matching big.Float's own
// contract — the core never takes the square root of a negative section
// length or a negative normalization factor, so this is an invariant
// violation, not a caller input error.
func Sqrt(a Real) Real { return wrap(fresh().Sqrt(a.v)) }

// Cmp compares a and b: -1 if a<b, 0 if a==b, +1 if a>b.
func Cmp(a, b Real) int { return a.v.Cmp(b.v) }

// Sign returns -1, 0, or +1 according to the sign of a.
func Sign(a Real) int { return a.v.Sign() }

// IsZero reports whether a is exactly zero.
func IsZero(a Real) bool { return a.v.Sign() == 0 }

// MulInt returns a * n for a machine integer n (a common case in the
// Legendre recurrences, where n is a small polynomial degree — avoids a
// round trip through FromInt64 at call sites).
func MulInt(a Real, n int) Real { return wrap(fresh().Mul(a.v, new(big.Float).SetPrec(defaultPrec).SetInt64(int64(n)))) }

// QuoInt returns a / n for a machine integer n.
func QuoInt(a Real, n int) Real { return wrap(fresh().Quo(a.v, new(big.Float).SetPrec(defaultPrec).SetInt64(int64(n)))) }
