package basis

import (
	"irbasis/pkg/gausslegendre"
	"irbasis/pkg/hiprec"
)

// binomial returns C(n,k) as a Real, computed at the current working
// precision via the multiplicative recurrence C(n,k) = prod (n-k+i)/i so
// intermediate values stay exact rationals rather than round through a
// machine double.
func binomial(n, k int) hiprec.Real {
	if k < 0 || k > n {
		return hiprec.Zero()
	}
	result := hiprec.FromFloat64(1)
	for i := 1; i <= k; i++ {
		result = hiprec.Mul(result, hiprec.FromInt64(int64(n-k+i)))
		result = hiprec.Quo(result, hiprec.FromInt64(int64(i)))
	}
	return result
}

// legendreTaylorAtMinusOne returns the Taylor coefficients of the
// normalized Legendre polynomial tilde-P_l, in powers of (x+1), i.e.
// tilde-P_l(x) = sum_{k=0}^l c[k]*(x+1)^k. Derived from the closed form
//
//	P_l(x) = sum_{k=0}^l (-1)^(l+k) C(l,k) C(l+k,k) ((x+1)/2)^k
//
// (obtained from the standard expansion of P_l about x=1 via
// P_l(-x)=(-1)^l P_l(x)), scaled by the L2-normalization factor
// sqrt((2l+1)/2) so that tilde-P_l = sqrt((2l+1)/2) * P_l.
func legendreTaylorAtMinusOne(l int) []hiprec.Real {
	norm := hiprec.Sqrt(hiprec.Quo(hiprec.FromInt64(int64(2*l+1)), hiprec.FromInt64(2)))
	coeffs := make([]hiprec.Real, l+1)
	two := hiprec.FromFloat64(2)
	twoPowK := hiprec.FromFloat64(1)
	for k := 0; k <= l; k++ {
		c := hiprec.Mul(binomial(l, k), binomial(l+k, k))
		c = hiprec.Quo(c, twoPowK)
		if (l+k)%2 == 1 {
			c = hiprec.Neg(c)
		}
		coeffs[k] = hiprec.Mul(c, norm)
		twoPowK = hiprec.Mul(twoPowK, two)
	}
	return coeffs
}

// normalizedLegendreValue evaluates tilde-P_l(x) = sqrt((2l+1)/2)*P_l(x),
// reusing gausslegendre's exported recurrence rather than re-deriving it,
// for building the local basis matrices Phi_x/Phi_y.
func normalizedLegendreValue(l int, x hiprec.Real) hiprec.Real {
	norm := hiprec.Sqrt(hiprec.Quo(hiprec.FromInt64(int64(2*l+1)), hiprec.FromInt64(2)))
	return hiprec.Mul(norm, gausslegendre.LegendreValue(l, x))
}
