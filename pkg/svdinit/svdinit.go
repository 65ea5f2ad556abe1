// Package svdinit computes the cheap, machine-precision singular value
// decomposition of the kernel on a dense double-exponential mesh, used
// only to seed the adaptive generator's initial section partition
// (step 4.D.1). All later refinement runs at the working precision via
// package svd; this package never touches hiprec.Real.
package svdinit

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"

	"irbasis/pkg/kernel"
)

// meshSize and tCutoff follow the reference implementation's own default
// (N=501) rather than the round number 500 the prose description uses.
const (
	meshSize = 501
	tCutoff  = 2.5
)

// deMesh returns the double-exponential mesh points
// x_i = tanh((pi/2) sinh(t_i)) for t_i in [0, tCutoff], ascending. They
// are spaced almost evenly near x=0 and cluster exponentially near x=1.
func deMesh(size int, tMax float64) []float64 {
	xs := make([]float64, size)
	for i := 0; i < size; i++ {
		t := tMax * float64(i) / float64(size-1)
		xs[i] = math.Tanh((math.Pi / 2) * math.Sinh(t))
	}
	return xs
}

// signChangeMidpoints returns the midpoints between consecutive sign
// changes of v, sampled at the mesh points xs. These approximate the
// zero crossings of the dominant retained singular vector, which is
// where the adaptive generator should place its first interior section
// edges.
func signChangeMidpoints(xs, v []float64) []float64 {
	var mids []float64
	for i := 1; i < len(v); i++ {
		if (v[i-1] >= 0) != (v[i] >= 0) {
			mids = append(mids, 0.5*(xs[i-1]+xs[i]))
		}
	}
	return mids
}

// InitialPartition runs a thin machine-precision SVD of the even
// (symmetrized) kernel on the dense DE mesh, finds the largest
// sufficiently significant singular index d, and returns the sign-change
// midpoints of its left and right singular vectors, together with the
// endpoints 0 and 1, as the seed for the x- and y-partitions.
func InitialPartition(k kernel.Kernel, svCutoff float64) (xPartition, yPartition []float64, err error) {
	if svCutoff <= 0 {
		return nil, nil, fmt.Errorf("svdinit: sv_cutoff must be > 0, got %v", svCutoff)
	}
	xs := deMesh(meshSize, tCutoff)

	data := make([]float64, meshSize*meshSize)
	for i, x := range xs {
		for j, y := range xs {
			data[i*meshSize+j] = k.EvenFloat64(x, y)
		}
	}
	m := mat.NewDense(meshSize, meshSize, data)

	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		return nil, nil, fmt.Errorf("svdinit: SVD factorization failed")
	}
	values := svd.Values(nil)
	if len(values) == 0 {
		return nil, nil, fmt.Errorf("svdinit: SVD produced no singular values")
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	threshold := math.Max(svCutoff, 1e-12)
	d := 0
	for i, s := range values {
		if s/values[0] >= threshold {
			d = i
		}
	}

	uCol := mat.Col(nil, d, &u)
	vCol := mat.Col(nil, d, &v)

	xMids := signChangeMidpoints(xs, uCol)
	yMids := signChangeMidpoints(xs, vCol)

	xPartition = withEndpoints(xMids)
	yPartition = withEndpoints(yMids)
	return xPartition, yPartition, nil
}

// withEndpoints sorts mids, clips them into (0,1), dedups, and adds the
// mandatory endpoints 0 and 1.
func withEndpoints(mids []float64) []float64 {
	out := make([]float64, 0, len(mids)+2)
	out = append(out, 0)
	for _, m := range mids {
		if m > 0 && m < 1 {
			out = append(out, m)
		}
	}
	out = append(out, 1)
	sort.Float64s(out)
	return dedup(out)
}

func dedup(xs []float64) []float64 {
	out := xs[:0:0]
	for i, x := range xs {
		if i == 0 || !scalar.EqualWithinAbs(x, xs[i-1], 1e-13) {
			out = append(out, x)
		}
	}
	return out
}
