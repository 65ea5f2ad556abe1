package hiprec

import "math/big"

// negligible reports whether |term| has fallen below 2^-(prec+guard),
// i.e. it can no longer move a sum already accumulated at prec bits.
// guard bits absorb the rounding error of the summation itself.
func negligible(term *big.Float, prec uint) bool {
	if term.Sign() == 0 {
		return true
	}
	const guard = 32
	threshold := new(big.Float).SetPrec(prec).SetMantExp(big.NewFloat(1), -int(prec)-guard)
	abs := new(big.Float).SetPrec(prec).Abs(term)
	return abs.Cmp(threshold) < 0
}

// maxSeriesTerms bounds the Taylor-series loops below so a pathological
// input can never spin forever; every series used here converges in a
// number of terms proportional to prec, so this cap is generous.
func maxSeriesTerms(prec uint) int {
	n := int(prec) + 200
	if n < 400 {
		n = 400
	}
	return n
}

// Exp returns e^x, computed by squaring down to a small argument (|y| <
// 0.5), summing the Taylor series for exp(y), then squaring back up:
// exp(x) = exp(x/2^k)^(2^k). This keeps the series short regardless of
// how large x is.
func Exp(x Real) Real {
	prec := defaultPrec
	two := new(big.Float).SetPrec(prec).SetInt64(2)
	half := new(big.Float).SetPrec(prec).SetFloat64(0.5)

	y := new(big.Float).SetPrec(prec).Copy(x.v)
	absY := new(big.Float).SetPrec(prec).Abs(y)
	k := 0
	for absY.Cmp(half) > 0 {
		y.Quo(y, two)
		absY.Quo(absY, two)
		k++
		if k > 4096 {
			break // x is not finite-representable at this precision; bail rather than loop forever
		}
	}

	sum := new(big.Float).SetPrec(prec).SetInt64(1)
	term := new(big.Float).SetPrec(prec).SetInt64(1)
	for n := 1; n <= maxSeriesTerms(prec); n++ {
		term.Mul(term, y)
		term.Quo(term, new(big.Float).SetPrec(prec).SetInt64(int64(n)))
		sum.Add(sum, term)
		if negligible(term, prec) {
			break
		}
	}

	for i := 0; i < k; i++ {
		sum.Mul(sum, sum)
	}
	return wrap(sum)
}

// arctan returns atan(x) for |x| <= 1 via its alternating Taylor series.
// Used only to build Pi; not exported since it is not one of the
// operations the façade contracts to provide.
func arctan(x *big.Float, prec uint) *big.Float {
	x2 := new(big.Float).SetPrec(prec).Mul(x, x)
	term := new(big.Float).SetPrec(prec).Copy(x)
	sum := new(big.Float).SetPrec(prec).Copy(x)
	sign := -1
	for n := 1; n <= maxSeriesTerms(prec); n++ {
		term.Mul(term, x2)
		denom := new(big.Float).SetPrec(prec).SetInt64(int64(2*n + 1))
		contrib := new(big.Float).SetPrec(prec).Quo(term, denom)
		if sign < 0 {
			sum.Sub(sum, contrib)
		} else {
			sum.Add(sum, contrib)
		}
		sign = -sign
		if negligible(contrib, prec) {
			break
		}
	}
	return sum
}

// Pi returns pi at the given precision via Machin's formula
// pi = 16*atan(1/5) - 4*atan(1/239), independent of Exp/Sin/Cos so it can
// be used to range-reduce their arguments without circularity.
func Pi(prec uint) Real {
	restore := WithPrecision(prec)
	defer restore()

	fifth := new(big.Float).SetPrec(prec).Quo(big.NewFloat(1), big.NewFloat(5))
	inv239 := new(big.Float).SetPrec(prec).Quo(big.NewFloat(1), big.NewFloat(239))

	a := arctan(fifth, prec)
	b := arctan(inv239, prec)

	a.Mul(a, big.NewFloat(16))
	b.Mul(b, big.NewFloat(4))

	return wrap(new(big.Float).SetPrec(prec).Sub(a, b))
}

// reduceAngle brings x into (-pi, pi], returning the reduced value and pi
// itself (computed once, at x's working precision) so callers needing
// both do not pay for Pi twice.
func reduceAngle(x Real) (r *big.Float, pi *big.Float) {
	prec := defaultPrec
	pi = Pi(prec).v
	twoPi := new(big.Float).SetPrec(prec).Mul(pi, big.NewFloat(2))

	// k = round(x / 2pi); machine-precision estimate of k is enough since
	// k only needs to be the correct integer multiple, not itself precise.
	ratio := new(big.Float).SetPrec(53).Quo(x.v, twoPi)
	kf, _ := ratio.Float64()
	k := int64(kf)
	if kf-float64(k) > 0.5 {
		k++
	} else if kf-float64(k) < -0.5 {
		k--
	}

	shift := new(big.Float).SetPrec(prec).Mul(twoPi, new(big.Float).SetPrec(prec).SetInt64(k))
	r = new(big.Float).SetPrec(prec).Sub(x.v, shift)

	if r.Cmp(pi) > 0 {
		r.Sub(r, twoPi)
	} else {
		negPi := new(big.Float).SetPrec(prec).Neg(pi)
		if r.Cmp(negPi) <= 0 {
			r.Add(r, twoPi)
		}
	}
	return r, pi
}

// Sin returns sin(x) via range reduction to (-pi, pi] followed by the
// Taylor series for sin.
func Sin(x Real) Real {
	prec := defaultPrec
	r, _ := reduceAngle(x)

	r2 := new(big.Float).SetPrec(prec).Mul(r, r)
	term := new(big.Float).SetPrec(prec).Copy(r)
	sum := new(big.Float).SetPrec(prec).Copy(r)
	for n := 1; n <= maxSeriesTerms(prec); n++ {
		denom := new(big.Float).SetPrec(prec).SetInt64(int64(2*n) * int64(2*n+1))
		term.Mul(term, r2)
		term.Quo(term, denom)
		term.Neg(term)
		sum.Add(sum, term)
		if negligible(term, prec) {
			break
		}
	}
	return wrap(sum)
}

// Cos returns cos(x) via range reduction to (-pi, pi] followed by the
// Taylor series for cos.
func Cos(x Real) Real {
	prec := defaultPrec
	r, _ := reduceAngle(x)

	r2 := new(big.Float).SetPrec(prec).Mul(r, r)
	term := new(big.Float).SetPrec(prec).SetInt64(1)
	sum := new(big.Float).SetPrec(prec).SetInt64(1)
	for n := 1; n <= maxSeriesTerms(prec); n++ {
		denom := new(big.Float).SetPrec(prec).SetInt64(int64(2*n-1) * int64(2*n))
		term.Mul(term, r2)
		term.Quo(term, denom)
		term.Neg(term)
		sum.Add(sum, term)
		if negligible(term, prec) {
			break
		}
	}
	return wrap(sum)
}
