// Package pp implements piecewise-polynomial representation, evaluation,
// differentiation, inner products and arithmetic — the algebra shared by
// both bases the adaptive generator produces.
//
// A PP lives on a partition S = (S[0] < S[1] < ... < S[N]) of fixed
// polynomial order k. On section s, in [S[s], S[s+1]), the function
// equals sum_{p=0..k} a[s][p] * (x - S[s])^p. PPs are immutable after
// construction: arithmetic always returns a new PP. The in-place
// coefficient accessor is reserved for the adaptive generator, which
// builds a PP's coefficients directly from a lifted singular vector
// before handing the (now frozen) PP to its caller.
package pp

import (
	"sort"

	"irbasis/pkg/hiprec"
	"irbasis/pkg/irerr"
)

// PP is a piecewise polynomial with real (arbitrary-precision) coefficients.
type PP struct {
	section []hiprec.Real   // length N+1, strictly ascending
	order   int             // k
	coeffs  [][]hiprec.Real // shape (N, k+1): coeffs[s][p]
}

// New builds a PP from an explicit partition and coefficient array,
// validating the shape invariants from the data model.
func New(section []hiprec.Real, order int, coeffs [][]hiprec.Real) (*PP, error) {
	if len(section) < 2 {
		return nil, irerr.New(irerr.ConfigError, "partition needs at least 2 edges", len(section))
	}
	for i := 1; i < len(section); i++ {
		if hiprec.Cmp(section[i-1], section[i]) >= 0 {
			return nil, irerr.New(irerr.OrderError, "partition must be strictly ascending", i)
		}
	}
	n := len(section) - 1
	if len(coeffs) != n {
		return nil, irerr.New(irerr.ConfigError, "coefficient rows must equal number of sections", len(coeffs))
	}
	for s, row := range coeffs {
		if len(row) != order+1 {
			return nil, irerr.New(irerr.ConfigError, "coefficient row width must equal order+1", []int{s, len(row)})
		}
	}
	return &PP{section: append([]hiprec.Real(nil), section...), order: order, coeffs: coeffs}, nil
}

// NewZero allocates a PP of the given order on the given partition with
// every coefficient set to zero, ready to be filled in via
// SetCoefficient. The adaptive generator does not use it; it builds each
// coefficient array first and calls New.
func NewZero(section []hiprec.Real, order int) (*PP, error) {
	n := len(section) - 1
	if n < 1 {
		return nil, irerr.New(irerr.ConfigError, "partition needs at least 2 edges", len(section))
	}
	coeffs := make([][]hiprec.Real, n)
	for s := range coeffs {
		row := make([]hiprec.Real, order+1)
		for p := range row {
			row[p] = hiprec.Zero()
		}
		coeffs[s] = row
	}
	return New(section, order, coeffs)
}

// SetCoefficient mutates a[s][p] in place. Reserved for the adaptive
// generator during construction; ordinary callers only ever see PPs
// through arithmetic, which returns new objects.
func (f *PP) SetCoefficient(s, p int, v hiprec.Real) {
	f.coeffs[s][p] = v
}

// Order returns the fixed polynomial order k.
func (f *PP) Order() int { return f.order }

// NumSections returns the number of sections N.
func (f *PP) NumSections() int { return len(f.section) - 1 }

// SectionEdge returns S[i], 0 <= i <= N.
func (f *PP) SectionEdge(i int) hiprec.Real { return f.section[i] }

// Coefficient returns a[s][p].
func (f *PP) Coefficient(s, p int) hiprec.Real { return f.coeffs[s][p] }

// Partition returns the section-edge sequence (read-only; do not mutate
// the returned slice).
func (f *PP) Partition() []hiprec.Real { return f.section }

// sectionIndex finds s such that S[s] <= x <= S[s+1], routing the
// endpoints x=S[0] and x=S[N] to the outer sections. Returns an error if
// x falls outside [S[0], S[N]].
func (f *PP) sectionIndex(x hiprec.Real) (int, error) {
	n := f.NumSections()
	if hiprec.Cmp(x, f.section[0]) < 0 || hiprec.Cmp(x, f.section[n]) > 0 {
		return 0, irerr.New(irerr.RangeError, "x outside PP domain", x.Float64())
	}
	// Binary search for the last section edge <= x.
	s := sort.Search(n, func(i int) bool {
		return hiprec.Cmp(f.section[i+1], x) > 0
	})
	if s == n {
		s = n - 1
	}
	return s, nil
}

// Value evaluates the piecewise polynomial at x by Horner's method in
// (x - S[s]) on the containing section.
func (f *PP) Value(x hiprec.Real) (hiprec.Real, error) {
	s, err := f.sectionIndex(x)
	if err != nil {
		return hiprec.Real{}, err
	}
	dx := hiprec.Sub(x, f.section[s])
	return horner(f.coeffs[s], dx), nil
}

// horner evaluates sum_p coeffs[p]*dx^p via Horner's rule.
func horner(coeffs []hiprec.Real, dx hiprec.Real) hiprec.Real {
	acc := coeffs[len(coeffs)-1]
	for p := len(coeffs) - 2; p >= 0; p-- {
		acc = hiprec.Add(hiprec.Mul(acc, dx), coeffs[p])
	}
	return acc
}

// derivativeCoefficients returns the coefficients, in (x-S[s]), of the
// m-th derivative of section s: differentiating x^p m times multiplies
// its coefficient by the falling factorial p!/(p-m)! and shifts it down
// by m degrees.
func (f *PP) derivativeCoefficients(s, m int) []hiprec.Real {
	row := f.coeffs[s]
	if m > f.order {
		return []hiprec.Real{hiprec.Zero()}
	}
	out := make([]hiprec.Real, f.order+1-m)
	for p := m; p <= f.order; p++ {
		factor := 1
		for j := 0; j < m; j++ {
			factor *= p - j
		}
		out[p-m] = hiprec.MulInt(row[p], factor)
	}
	return out
}

// Derivative evaluates the m-th derivative of f at x. If section >= 0 is
// supplied it is used directly (the caller already knows which section x
// falls in, e.g. a midpoint construction); pass -1 to auto-locate via
// binary search.
func (f *PP) Derivative(x hiprec.Real, m int, section int) (hiprec.Real, error) {
	s := section
	if s < 0 {
		var err error
		s, err = f.sectionIndex(x)
		if err != nil {
			return hiprec.Real{}, err
		}
	} else if s < 0 || s >= f.NumSections() {
		return hiprec.Real{}, irerr.New(irerr.RangeError, "section index out of range", s)
	}
	if m == 0 {
		dx := hiprec.Sub(x, f.section[s])
		return horner(f.coeffs[s], dx), nil
	}
	dCoeffs := f.derivativeCoefficients(s, m)
	dx := hiprec.Sub(x, f.section[s])
	return horner(dCoeffs, dx), nil
}

// samePartition reports whether two partitions are identical edge for
// edge, the precondition every binary PP operation requires.
func samePartition(a, b []hiprec.Real) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if hiprec.Cmp(a[i], b[i]) != 0 {
			return false
		}
	}
	return true
}

// requireSamePartition is the shared guard for Add/Subtract/Multiply/Overlap.
func requireSamePartition(f, g *PP) error {
	if !samePartition(f.section, g.section) {
		return irerr.New(irerr.PartitionMismatch, "PP arithmetic requires identical partitions", nil)
	}
	return nil
}

// Integrate returns the exact integral of f over its full domain:
// sum_s sum_p a[s][p] * Delta_s^(p+1) / (p+1), where Delta_s = S[s+1]-S[s].
func (f *PP) Integrate() hiprec.Real {
	total := hiprec.Zero()
	for s := 0; s < f.NumSections(); s++ {
		delta := hiprec.Sub(f.section[s+1], f.section[s])
		deltaPow := delta // Delta^1
		for p := 0; p <= f.order; p++ {
			term := hiprec.QuoInt(hiprec.Mul(f.coeffs[s][p], deltaPow), p+1)
			total = hiprec.Add(total, term)
			deltaPow = hiprec.Mul(deltaPow, delta)
		}
	}
	return total
}
