package basis

import (
	"irbasis/pkg/hiprec"
	"irbasis/pkg/pp"
)

// liftVector converts a singular vector of length N*numLocalPoly,
// interpreted as the composite-local-Legendre expansion
//
//	sum_{s,l} v[s*numLocalPoly+l] * sqrt(2/Delta_s) * tilde-P_l((2(x-S[s])/Delta_s)-1)
//
// into a piecewise polynomial in (x-S[s]) of order numLocalPoly-1, using
// the precomputed Taylor coefficients of the normalized Legendre
// polynomials around -1. The section factor used is sqrt(1/Delta_s), so
// the PP is that expansion divided by sqrt(2), which gives a unit vector
// the normalization 2*<f,f>_[0,1] = 1:
//
//	a[s,d] = sum_l v[s*numLocalPoly+l] * (2/Delta_s)^d * sqrt(1/Delta_s) * taylor_l[d]
func liftVector(v []hiprec.Real, partition []hiprec.Real, numLocalPoly int) (*pp.PP, error) {
	n := len(partition) - 1
	order := numLocalPoly - 1

	taylor := make([][]hiprec.Real, numLocalPoly)
	for l := 0; l < numLocalPoly; l++ {
		taylor[l] = legendreTaylorAtMinusOne(l)
	}

	one := hiprec.FromFloat64(1)
	two := hiprec.FromFloat64(2)
	coeffs := make([][]hiprec.Real, n)
	for s := 0; s < n; s++ {
		delta := hiprec.Sub(partition[s+1], partition[s])
		invSqrtDelta := hiprec.Sqrt(hiprec.Quo(one, delta))
		twoOverDelta := hiprec.Quo(two, delta)

		row := make([]hiprec.Real, order+1)
		twoOverDeltaPowD := hiprec.FromFloat64(1)
		for d := 0; d <= order; d++ {
			acc := hiprec.Zero()
			for l := d; l < numLocalPoly; l++ {
				vsl := v[s*numLocalPoly+l]
				term := hiprec.Mul(vsl, hiprec.Mul(twoOverDeltaPowD, hiprec.Mul(invSqrtDelta, taylor[l][d])))
				acc = hiprec.Add(acc, term)
			}
			row[d] = acc
			twoOverDeltaPowD = hiprec.Mul(twoOverDeltaPowD, twoOverDelta)
		}
		coeffs[s] = row
	}

	return pp.New(partition, order, coeffs)
}

// normalizeSign flips u and v together so that u(1) > 0, the sign
// convention the data model requires; v inherits whatever flip u needed.
func normalizeSign(u, v *pp.PP) (*pp.PP, *pp.PP, error) {
	one := hiprec.FromFloat64(1)
	uAt1, err := u.Value(one)
	if err != nil {
		return nil, nil, err
	}
	if hiprec.Sign(uAt1) >= 0 {
		return u, v, nil
	}
	neg := hiprec.FromFloat64(-1)
	return pp.Scale(neg, u), pp.Scale(neg, v), nil
}
