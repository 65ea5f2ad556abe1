// Package basis implements the adaptive singular-function basis
// generator: it discretizes a kernel onto piecewise Legendre bases in
// the even/odd parity sectors, performs a high-precision SVD, lifts the
// singular vectors to piecewise polynomials, and refines the section
// partitions until the reconstructed basis functions satisfy the
// caller's residual tolerance.
package basis

import (
	"irbasis/pkg/hiprec"
	"irbasis/pkg/irerr"
	"irbasis/pkg/pp"
)

// Options configures Generate. Mirrors the plain-struct, explicit-field
// configuration the ambient stack calls for — no flag or config-file
// parsing library, since the command-line front-end is out of scope.
type Options struct {
	MaxDim       int     // upper bound on basis size
	SVCutoff     float64 // drop singular values once sigma_i/sigma_0 < SVCutoff
	RTol         float64 // relative tolerance for adaptive refinement
	NumLocalPoly int     // local Legendre order per section, >= 2
	NumGLNodes   int     // Gauss-Legendre quadrature order, >= NumLocalPoly
	Precision    uint    // working precision in bits for the SVD/refinement loop
}

// DefaultOptions returns the reference parameterization: 10 local
// polynomials per section, 24-point quadrature, 200 bits (~60 decimal
// digits) of working precision.
func DefaultOptions() Options {
	return Options{
		MaxDim:       30,
		SVCutoff:     1e-10,
		RTol:         1e-8,
		NumLocalPoly: 10,
		NumGLNodes:   24,
		Precision:    200,
	}
}

func (o Options) validate() error {
	if o.NumLocalPoly < 2 {
		return irerr.New(irerr.ConfigError, "num_local_poly must be >= 2", o.NumLocalPoly)
	}
	if o.NumGLNodes < o.NumLocalPoly {
		return irerr.New(irerr.ConfigError, "num_gl_nodes must be >= num_local_poly", o.NumGLNodes)
	}
	if o.MaxDim < 1 {
		return irerr.New(irerr.ConfigError, "max_dim must be >= 1", o.MaxDim)
	}
	if o.SVCutoff <= 0 {
		return irerr.New(irerr.ConfigError, "sv_cutoff must be > 0", o.SVCutoff)
	}
	if o.RTol <= 0 {
		return irerr.New(irerr.ConfigError, "r_tol must be > 0", o.RTol)
	}
	if o.Precision < 53 {
		return irerr.New(irerr.ConfigError, "precision must be >= 53 bits", o.Precision)
	}
	return nil
}

// BasisSet is the core's output: an ordered set of singular values and
// paired basis functions on [0,1], per the data model's invariants
// (sigma non-increasing, U_l/V_l parity (-1)^l, unit L2 norm on [-1,1],
// U_l(1) > 0).
type BasisSet struct {
	Sigma []hiprec.Real
	U     []*pp.PP
	V     []*pp.PP
}

// Dim returns the number of retained basis pairs.
func (b *BasisSet) Dim() int { return len(b.Sigma) }

// Diagnostics reports the refinement state accumulated over the run:
// per-section residual estimates from the final iteration and the
// integral-equation residual for the last retained basis pair.
type Diagnostics struct {
	Iterations             int
	XPartition             []hiprec.Real
	YPartition             []hiprec.Real
	XTailResiduals         []float64
	YTailResiduals         []float64
	IntegralResidualX      float64
	IntegralResidualY      float64
	PartitionSizeHistory   []int // number of x-sections plus y-sections per iteration, for the refinement-monotonicity property
}
