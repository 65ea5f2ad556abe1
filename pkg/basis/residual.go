package basis

import (
	"math"

	"irbasis/pkg/gausslegendre"
	"irbasis/pkg/hiprec"
	"irbasis/pkg/kernel"
	"irbasis/pkg/pp"
)

// tailResiduals returns, for every section, the magnitude of the
// highest-order local-Legendre coefficient of v, scaled by
// sqrt((2*numLocalPoly-1)/Delta_s) — the proxy for local discretisation
// error step (7) of the generator uses to decide where to refine.
func tailResiduals(v []hiprec.Real, partition []hiprec.Real, numLocalPoly int) []float64 {
	n := len(partition) - 1
	out := make([]float64, n)
	top := float64(2*numLocalPoly - 1)
	for s := 0; s < n; s++ {
		delta := hiprec.Sub(partition[s+1], partition[s]).Float64()
		last := v[s*numLocalPoly+numLocalPoly-1].Float64()
		out[s] = math.Abs(last) * math.Sqrt(top/delta)
	}
	return out
}

// integralEquationResidual evaluates max_x |lhs(x) - sigma^-1 * integral
// K_sym(x,y) rhs(y) dy| at every section midpoint of lhs's partition,
// integrating over rhs's full domain with composite Gauss-Legendre
// quadrature. Called once with (u,v) for the x-side residual and once
// with (v,u) and the kernel's y/x arguments swapped for the y-side one.
func integralEquationResidual(k kernel.Kernel, even, xSide bool, lhs, rhs *pp.PP, sigma hiprec.Real, numGLNodes int, prec uint) (float64, error) {
	lhsPartition := lhs.Partition()
	rhsSections, err := gausslegendre.Composite(rhs.Partition(), numGLNodes, prec)
	if err != nil {
		return 0, err
	}
	half := hiprec.FromFloat64(0.5)

	maxR := 0.0
	for s := 0; s < len(lhsPartition)-1; s++ {
		mid := hiprec.Mul(half, hiprec.Add(lhsPartition[s], lhsPartition[s+1]))

		integral := hiprec.Zero()
		for _, sect := range rhsSections {
			for _, nd := range sect {
				rhsVal, err := rhs.Value(nd.X)
				if err != nil {
					return 0, err
				}
				var kv hiprec.Real
				if xSide {
					kv = kernelEval(k, even, mid, nd.X)
				} else {
					kv = kernelEval(k, even, nd.X, mid)
				}
				integral = hiprec.Add(integral, hiprec.Mul(nd.W, hiprec.Mul(kv, rhsVal)))
			}
		}

		predicted := hiprec.Quo(integral, sigma)
		lhsVal, err := lhs.Value(mid)
		if err != nil {
			return 0, err
		}
		r := hiprec.Abs(hiprec.Sub(lhsVal, predicted)).Float64()
		if r > maxR {
			maxR = r
		}
	}
	return maxR, nil
}

// refinePartition inserts the midpoint of every section whose tail
// residual exceeds tol, returning the (possibly unchanged) partition and
// whether any section was split.
func refinePartition(partition []hiprec.Real, tailRes []float64, tol float64) ([]hiprec.Real, bool) {
	half := hiprec.FromFloat64(0.5)
	out := make([]hiprec.Real, 0, len(partition)*2)
	out = append(out, partition[0])
	changed := false
	for s := 0; s < len(partition)-1; s++ {
		if tailRes[s] > tol {
			mid := hiprec.Mul(half, hiprec.Add(partition[s], partition[s+1]))
			out = append(out, mid)
			changed = true
		}
		out = append(out, partition[s+1])
	}
	return out, changed
}

// yToleranceIndex returns the basis index whose |V(1)|/|V(0)| bounds the
// y-side refinement tolerance: the last odd-parity index that closes a
// complete (even, odd) pair, i.e. 2*floor(L/2)-1. For odd L this is L-2, not L-1 — preserved
// deliberately since the y tolerance pairs the last even basis function
// with the odd one immediately before it.
func yToleranceIndex(l int) int {
	return 2*(l/2) - 1
}
