// Package svd implements a thin singular value decomposition at
// arbitrary working precision, via one-sided Jacobi rotations
// (Hestenes' method). No available library provides arbitrary-precision
// linear algebra (gonum's mat.SVD is float64-only, and the reference
// implementation leans on Eigen, which has no Go counterpart), so this
// is hand-rolled directly on package hiprec, in the same
// addition-chain, work-it-out-by-hand spirit as a hand-written modular
// inverse.
//
// One-sided Jacobi repeatedly rotates pairs of columns of A until they
// are pairwise orthogonal; at that point the column norms are the
// singular values, the normalized columns are U, and the accumulated
// rotations are V. It is slower than a bidiagonalization-based solver
// but far simpler to get right at arbitrary precision, and it converges
// quadratically once the off-diagonal Gram entries are small.
package svd

import (
	"fmt"
	"sort"

	"irbasis/pkg/hiprec"
)

// Result is a thin SVD: A ~= U * diag(S) * V^T, with S descending.
type Result struct {
	U [][]hiprec.Real // m x k
	V [][]hiprec.Real // n x k
	S []hiprec.Real   // length k
}

const (
	maxSweeps      = 60
	convergeExp    = -40 // stop once max off-diagonal ratio < 2^convergeExp, tightened further by prec below
)

// Jacobi computes the thin SVD of the m x n matrix a (as a row-major
// slice of rows) at the given working precision. It transposes
// internally when m < n so the sweep always runs over the wider
// dimension, then returns U/V/S already un-transposed.
func Jacobi(a [][]hiprec.Real, prec uint) (*Result, error) {
	restore := hiprec.WithPrecision(prec)
	defer restore()

	m := len(a)
	if m == 0 {
		return nil, fmt.Errorf("svd: empty matrix")
	}
	n := len(a[0])
	transposed := false
	work := a
	if m < n {
		work = transpose(a)
		m, n = n, m
		transposed = true
	}

	// Work on a private copy; the caller's matrix is never mutated.
	A := make([][]hiprec.Real, m)
	for i := range A {
		A[i] = append([]hiprec.Real(nil), work[i]...)
	}
	V := identity(n)

	tolExp := -int(prec) + 16 // relative tolerance a bit looser than full precision, to allow convergence in finite sweeps
	if tolExp > convergeExp {
		tolExp = convergeExp
	}

	for sweep := 0; sweep < maxSweeps; sweep++ {
		maxOffRatio := 0.0
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				alpha, beta, gamma := columnGram(A, p, q)
				if hiprec.IsZero(gamma) {
					continue
				}
				denom := hiprec.Sqrt(hiprec.Mul(alpha, beta))
				if hiprec.IsZero(denom) {
					continue
				}
				ratio := hiprec.Abs(hiprec.Quo(gamma, denom)).Float64()
				if ratio > maxOffRatio {
					maxOffRatio = ratio
				}
				c, s := rotationAngle(alpha, beta, gamma)
				applyRotation(A, p, q, c, s)
				applyRotation(V, p, q, c, s)
			}
		}
		if maxOffRatio < pow2(tolExp) || maxOffRatio == 0 {
			break
		}
	}

	s := make([]hiprec.Real, n)
	for j := 0; j < n; j++ {
		s[j] = hiprec.Sqrt(columnNormSq(A, j))
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return hiprec.Cmp(s[order[i]], s[order[j]]) > 0
	})

	sSorted := make([]hiprec.Real, n)
	uSorted := make([][]hiprec.Real, m)
	for i := range uSorted {
		uSorted[i] = make([]hiprec.Real, n)
	}
	vSorted := make([][]hiprec.Real, n)
	for i := range vSorted {
		vSorted[i] = make([]hiprec.Real, n)
	}

	for newIdx, oldIdx := range order {
		sv := s[oldIdx]
		sSorted[newIdx] = sv
		for i := 0; i < m; i++ {
			if hiprec.IsZero(sv) {
				uSorted[i][newIdx] = hiprec.Zero()
			} else {
				uSorted[i][newIdx] = hiprec.Quo(A[i][oldIdx], sv)
			}
		}
		for i := 0; i < n; i++ {
			vSorted[i][newIdx] = V[i][oldIdx]
		}
	}

	if !nonIncreasing(sSorted) {
		return nil, fmt.Errorf("svd: singular values not monotonically non-increasing after sort (numerical loss)")
	}

	if transposed {
		return &Result{U: vSorted, V: uSorted, S: sSorted}, nil
	}
	return &Result{U: uSorted, V: vSorted, S: sSorted}, nil
}

func nonIncreasing(s []hiprec.Real) bool {
	for i := 1; i < len(s); i++ {
		if hiprec.Cmp(s[i], s[i-1]) > 0 {
			return false
		}
	}
	return true
}

func pow2(exp int) float64 {
	r := 1.0
	if exp >= 0 {
		for i := 0; i < exp; i++ {
			r *= 2
		}
		return r
	}
	for i := 0; i < -exp; i++ {
		r /= 2
	}
	return r
}

func columnGram(a [][]hiprec.Real, p, q int) (alpha, beta, gamma hiprec.Real) {
	alpha, beta, gamma = hiprec.Zero(), hiprec.Zero(), hiprec.Zero()
	for i := range a {
		ap, aq := a[i][p], a[i][q]
		alpha = hiprec.Add(alpha, hiprec.Mul(ap, ap))
		beta = hiprec.Add(beta, hiprec.Mul(aq, aq))
		gamma = hiprec.Add(gamma, hiprec.Mul(ap, aq))
	}
	return
}

func columnNormSq(a [][]hiprec.Real, p int) hiprec.Real {
	total := hiprec.Zero()
	for i := range a {
		v := a[i][p]
		total = hiprec.Add(total, hiprec.Mul(v, v))
	}
	return total
}

// rotationAngle solves for the Jacobi rotation (c,s) that annihilates
// the (p,q) off-diagonal entry of the 2x2 Gram submatrix
// [[alpha, gamma], [gamma, beta]].
func rotationAngle(alpha, beta, gamma hiprec.Real) (c, s hiprec.Real) {
	if hiprec.IsZero(gamma) {
		return hiprec.FromFloat64(1), hiprec.Zero()
	}
	two := hiprec.FromFloat64(2)
	zeta := hiprec.Quo(hiprec.Sub(beta, alpha), hiprec.Mul(two, gamma))

	one := hiprec.FromFloat64(1)
	sqrtTerm := hiprec.Sqrt(hiprec.Add(one, hiprec.Mul(zeta, zeta)))
	var denom hiprec.Real
	if hiprec.Sign(zeta) >= 0 {
		denom = hiprec.Add(zeta, sqrtTerm)
	} else {
		denom = hiprec.Sub(zeta, sqrtTerm)
	}
	t := hiprec.Quo(one, denom)
	c = hiprec.Quo(one, hiprec.Sqrt(hiprec.Add(one, hiprec.Mul(t, t))))
	s = hiprec.Mul(c, t)
	return
}

// applyRotation rotates columns p and q of m in place by (c,s):
// col_p' = c*col_p - s*col_q, col_q' = s*col_p + c*col_q.
func applyRotation(m [][]hiprec.Real, p, q int, c, s hiprec.Real) {
	for i := range m {
		ap, aq := m[i][p], m[i][q]
		m[i][p] = hiprec.Sub(hiprec.Mul(c, ap), hiprec.Mul(s, aq))
		m[i][q] = hiprec.Add(hiprec.Mul(s, ap), hiprec.Mul(c, aq))
	}
}

func identity(n int) [][]hiprec.Real {
	m := make([][]hiprec.Real, n)
	for i := range m {
		m[i] = make([]hiprec.Real, n)
		for j := range m[i] {
			if i == j {
				m[i][j] = hiprec.FromFloat64(1)
			} else {
				m[i][j] = hiprec.Zero()
			}
		}
	}
	return m
}

func transpose(a [][]hiprec.Real) [][]hiprec.Real {
	if len(a) == 0 {
		return nil
	}
	rows, cols := len(a), len(a[0])
	out := make([][]hiprec.Real, cols)
	for j := range out {
		out[j] = make([]hiprec.Real, rows)
		for i := 0; i < rows; i++ {
			out[j][i] = a[i][j]
		}
	}
	return out
}
