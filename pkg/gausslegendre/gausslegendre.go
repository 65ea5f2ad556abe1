// Package gausslegendre computes Gauss-Legendre quadrature nodes and
// weights on [-1,1] at an arbitrary working precision.
package gausslegendre

import (
	"fmt"
	"math"
	"sort"

	"irbasis/pkg/hiprec"
)

// Node is one (node, weight) quadrature pair.
type Node struct {
	X, W hiprec.Real
}

// legendre evaluates P_n(x) and P_n'(x) via the three-term recurrence
//
//	P_0 = 1, P_1 = x, n*P_n = (2n-1)*x*P_{n-1} - (n-1)*P_{n-2}
//
// and the derivative identity P_n'(x) = n/(x^2-1) * (x*P_n(x) - P_{n-1}(x)).
func legendre(n int, x hiprec.Real) (pn, dpn hiprec.Real) {
	pPrev := hiprec.FromFloat64(1) // P_0
	pCur := x                      // P_1
	if n == 0 {
		return pPrev, hiprec.Zero()
	}
	for k := 2; k <= n; k++ {
		a := hiprec.MulInt(hiprec.Mul(x, pCur), 2*k-1)
		b := hiprec.MulInt(pPrev, k-1)
		next := hiprec.QuoInt(hiprec.Sub(a, b), k)
		pPrev, pCur = pCur, next
	}
	x2m1 := hiprec.Sub(hiprec.Mul(x, x), hiprec.FromFloat64(1))
	num := hiprec.MulInt(hiprec.Sub(hiprec.Mul(x, pCur), pPrev), n)
	dpn = hiprec.Quo(num, x2m1)
	return pCur, dpn
}

// Nodes returns the m roots and weights of the degree-m Legendre
// polynomial on [-1,1], computed at the given working precision, in
// ascending order of node position. Exact for polynomials up to degree
// 2m-1.
func Nodes(m int, prec uint) ([]Node, error) {
	if m < 1 {
		return nil, fmt.Errorf("gausslegendre: m must be >= 1, got %d", m)
	}
	restore := hiprec.WithPrecision(prec)
	defer restore()

	pi := hiprec.Pi(prec)
	nodes := make([]Node, 0, m)

	const maxNewtonIters = 200
	for i := 1; i <= m; i++ {
		// Newton seed: cos(pi*(i-1/4)/(m+1/2)).
		num := hiprec.FromFloat64(float64(i) - 0.25)
		den := hiprec.FromFloat64(float64(m) + 0.5)
		theta := hiprec.Mul(pi, hiprec.Quo(num, den))
		x := hiprec.Cos(theta)

		var pn, dpn hiprec.Real
		for iter := 0; iter < maxNewtonIters; iter++ {
			pn, dpn = legendre(m, x)
			if hiprec.IsZero(dpn) {
				break
			}
			delta := hiprec.Quo(pn, dpn)
			x = hiprec.Sub(x, delta)
			if isConverged(delta, prec) {
				break
			}
		}
		pn, dpn = legendre(m, x)
		_ = pn

		one := hiprec.FromFloat64(1)
		oneMinusX2 := hiprec.Sub(one, hiprec.Mul(x, x))
		w := hiprec.Quo(hiprec.FromFloat64(2), hiprec.Mul(oneMinusX2, hiprec.Mul(dpn, dpn)))

		nodes = append(nodes, Node{X: x, W: w})
	}

	sort.Slice(nodes, func(a, b int) bool {
		return hiprec.Cmp(nodes[a].X, nodes[b].X) < 0
	})
	return nodes, nil
}

// isConverged reports whether a Newton step is small enough, relative to
// the working precision, to stop iterating: below 2^-(prec/2), since the
// step just applied squares the error and so leaves about prec bits.
func isConverged(delta hiprec.Real, prec uint) bool {
	f := delta.Float64()
	if f < 0 {
		f = -f
	}
	return f < math.Ldexp(1, -int(prec)/2)
}

// LegendreValue evaluates the (un-normalized) Legendre polynomial P_n at
// x, exported so the adaptive generator's local basis can reuse the same
// three-term recurrence instead of re-deriving it.
func LegendreValue(n int, x hiprec.Real) hiprec.Real {
	pn, _ := legendre(n, x)
	return pn
}

// Composite maps an m-point rule onto every section of a strictly
// ascending partition, returning one node slice per section. The
// affine map for section [a,b] is x -> a + (x+1)/2*(b-a), with weights
// scaled by (b-a)/2.
func Composite(partition []hiprec.Real, m int, prec uint) ([][]Node, error) {
	if len(partition) < 2 {
		return nil, fmt.Errorf("gausslegendre: partition needs at least 2 edges, got %d", len(partition))
	}
	base, err := Nodes(m, prec)
	if err != nil {
		return nil, err
	}
	restore := hiprec.WithPrecision(prec)
	defer restore()

	half := hiprec.FromFloat64(0.5)
	sections := make([][]Node, len(partition)-1)
	for s := 0; s < len(partition)-1; s++ {
		a, b := partition[s], partition[s+1]
		width := hiprec.Sub(b, a)
		halfWidth := hiprec.Mul(half, width)
		mapped := make([]Node, len(base))
		for i, nd := range base {
			x := hiprec.Add(a, hiprec.Mul(halfWidth, hiprec.Add(nd.X, hiprec.FromFloat64(1))))
			w := hiprec.Mul(halfWidth, nd.W)
			mapped[i] = Node{X: x, W: w}
		}
		sections[s] = mapped
	}
	return sections, nil
}

// Cache memoises node tables for a single caller-owned scope. It is never
// a package global: each caller constructs its own and lets it go out of
// scope, so memoization never leaks state across unrelated calls. The
// adaptive basis generator does not use it; it calls Nodes and Composite
// directly.
type Cache struct {
	prec  uint
	table map[int][]Node
}

// NewCache creates an empty per-run memoization cache at the given
// working precision.
func NewCache(prec uint) *Cache {
	return &Cache{prec: prec, table: make(map[int][]Node)}
}

// Get returns the m-point table, computing and storing it on first use.
func (c *Cache) Get(m int) ([]Node, error) {
	if got, ok := c.table[m]; ok {
		return got, nil
	}
	nodes, err := Nodes(m, c.prec)
	if err != nil {
		return nil, err
	}
	c.table[m] = nodes
	return nodes, nil
}
