// Package kernel provides the two distinguished analytic-continuation
// kernels the adaptive basis generator is instantiated with. These are
// contractual inputs (§6.1 of the design notes), not a general
// user-kernel facility — the core never integrates an arbitrary
// caller-supplied kernel, only one of these two.
package kernel

import (
	"math"

	"irbasis/pkg/hiprec"
)

// Statistics distinguishes the fermionic and bosonic kernels.
type Statistics int

const (
	Fermionic Statistics = iota
	Bosonic
)

func (s Statistics) String() string {
	if s == Fermionic {
		return "fermionic"
	}
	return "bosonic"
}

// limit is the |Lambda*y| threshold beyond which the closed forms below
// switch to their large-argument asymptotic branch to avoid overflowing
// cosh/sinh. bosonicZero is the near-zero threshold for the removable
// singularity at y=0 in the bosonic kernel. Both are fixed numerical
// constants carried over from the reference implementation, not spec
// parameters.
const (
	limit       = 100.0
	bosonicZero = 1e-10
)

// Kernel is a value type carrying the statistics and the UV cutoff
// Lambda. Kernels are cheap to copy (a tag and a float64), so the core
// takes them by value; there is no cloning API, since ownership by value
// makes cloning meaningless.
type Kernel struct {
	stat   Statistics
	lambda float64
}

// NewFermionic constructs the fermionic kernel K_F(x,y;Lambda).
func NewFermionic(lambda float64) Kernel { return Kernel{stat: Fermionic, lambda: lambda} }

// NewBosonic constructs the bosonic kernel K_B(x,y;Lambda).
func NewBosonic(lambda float64) Kernel { return Kernel{stat: Bosonic, lambda: lambda} }

// Statistics reports which kernel this is.
func (k Kernel) Statistics() Statistics { return k.stat }

// Lambda returns the UV cutoff.
func (k Kernel) Lambda() float64 { return k.lambda }

// EvalFloat64 evaluates the kernel at machine precision, used for the
// dense double-exponential mesh discretization in the initial-partition
// step (4.D.1), where full working precision would be wasted.
func (k Kernel) EvalFloat64(x, y float64) float64 {
	lam := k.lambda
	ly := lam * y
	switch k.stat {
	case Fermionic:
		switch {
		case ly > limit:
			return math.Exp(-0.5*lam*x*y - 0.5*ly)
		case ly < -limit:
			return math.Exp(-0.5*lam*x*y + 0.5*ly)
		default:
			return math.Exp(-0.5*lam*x*y) / (2 * math.Cosh(0.5*ly))
		}
	default: // Bosonic
		switch {
		case math.Abs(ly) < bosonicZero:
			return math.Exp(-0.5*lam*x*y) / lam
		case ly > limit:
			return y * math.Exp(-0.5*lam*x*y-0.5*ly)
		case ly < -limit:
			return -y * math.Exp(-0.5*lam*x*y+0.5*ly)
		default:
			return y * math.Exp(-0.5*lam*x*y) / (2 * math.Sinh(0.5*ly))
		}
	}
}

// Eval evaluates the kernel at the current working precision, used by
// the high-precision matrix assembly step (4.D.2).
func (k Kernel) Eval(x, y hiprec.Real) hiprec.Real {
	lambda := hiprec.FromFloat64(k.lambda)
	ly := hiprec.Mul(lambda, y)
	half := hiprec.FromFloat64(0.5)
	lamXY := hiprec.Mul(lambda, hiprec.Mul(x, y))
	limitR := hiprec.FromFloat64(limit)

	switch k.stat {
	case Fermionic:
		switch {
		case hiprec.Cmp(ly, limitR) > 0:
			return hiprec.Exp(hiprec.Neg(hiprec.Add(hiprec.Mul(half, lamXY), hiprec.Mul(half, ly))))
		case hiprec.Cmp(ly, hiprec.Neg(limitR)) < 0:
			return hiprec.Exp(hiprec.Sub(hiprec.Mul(half, ly), hiprec.Mul(half, lamXY)))
		default:
			numerator := hiprec.Exp(hiprec.Neg(hiprec.Mul(half, lamXY)))
			cosh := hiprec.Mul(half, hiprec.Add(hiprec.Exp(hiprec.Mul(half, ly)), hiprec.Exp(hiprec.Neg(hiprec.Mul(half, ly)))))
			return hiprec.Quo(numerator, hiprec.Mul(hiprec.FromFloat64(2), cosh))
		}
	default: // Bosonic
		zeroThreshold := hiprec.FromFloat64(bosonicZero)
		switch {
		case hiprec.Cmp(hiprec.Abs(ly), zeroThreshold) < 0:
			return hiprec.Quo(hiprec.Exp(hiprec.Neg(hiprec.Mul(half, lamXY))), lambda)
		case hiprec.Cmp(ly, limitR) > 0:
			return hiprec.Mul(y, hiprec.Exp(hiprec.Neg(hiprec.Add(hiprec.Mul(half, lamXY), hiprec.Mul(half, ly)))))
		case hiprec.Cmp(ly, hiprec.Neg(limitR)) < 0:
			return hiprec.Neg(hiprec.Mul(y, hiprec.Exp(hiprec.Sub(hiprec.Mul(half, ly), hiprec.Mul(half, lamXY)))))
		default:
			numerator := hiprec.Mul(y, hiprec.Exp(hiprec.Neg(hiprec.Mul(half, lamXY))))
			sinh := hiprec.Mul(half, hiprec.Sub(hiprec.Exp(hiprec.Mul(half, ly)), hiprec.Exp(hiprec.Neg(hiprec.Mul(half, ly)))))
			return hiprec.Quo(numerator, hiprec.Mul(hiprec.FromFloat64(2), sinh))
		}
	}
}

// EvenFloat64 returns K(x,y)+K(x,-y) at machine precision.
func (k Kernel) EvenFloat64(x, y float64) float64 {
	return k.EvalFloat64(x, y) + k.EvalFloat64(x, -y)
}

// OddFloat64 returns K(x,y)-K(x,-y) at machine precision.
func (k Kernel) OddFloat64(x, y float64) float64 {
	return k.EvalFloat64(x, y) - k.EvalFloat64(x, -y)
}

// Even returns K(x,y)+K(x,-y) at the current working precision.
func (k Kernel) Even(x, y hiprec.Real) hiprec.Real {
	return hiprec.Add(k.Eval(x, y), k.Eval(x, hiprec.Neg(y)))
}

// Odd returns K(x,y)-K(x,-y) at the current working precision.
func (k Kernel) Odd(x, y hiprec.Real) hiprec.Real {
	return hiprec.Sub(k.Eval(x, y), k.Eval(x, hiprec.Neg(y)))
}
