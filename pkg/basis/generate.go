package basis

import (
	"irbasis/pkg/hiprec"
	"irbasis/pkg/irerr"
	"irbasis/pkg/kernel"
	"irbasis/pkg/pp"
	"irbasis/pkg/svd"
	"irbasis/pkg/svdinit"
)

// maxRefinements bounds the BUILD/SVD/LIFT/RESIDUAL/REFINE loop as a
// safety net against a partition that never stops growing; the design
// argues termination but a defensive cap keeps a pathological input from
// looping forever, in the same spirit as svd.Jacobi's maxSweeps.
const maxRefinements = 40

// Generate runs the adaptive basis generator's state machine
// (INIT->BUILD->SVD->LIFT->RESIDUAL->(REFINE->BUILD|DONE)) to build the
// singular-function basis of k to the requested tolerances.
func Generate(k kernel.Kernel, opts Options) (*BasisSet, Diagnostics, error) {
	if err := opts.validate(); err != nil {
		return nil, Diagnostics{}, err
	}

	restore := hiprec.WithPrecision(opts.Precision)
	defer restore()

	xInit, yInit, err := svdinit.InitialPartition(k, opts.SVCutoff)
	if err != nil {
		return nil, Diagnostics{}, irerr.New(irerr.ConfigError, "initial partition failed: "+err.Error(), opts.SVCutoff)
	}
	xPartition := toReal(xInit)
	yPartition := toReal(yInit)

	var (
		diag  Diagnostics
		basis *BasisSet
	)

	for iter := 0; ; iter++ {
		if iter >= maxRefinements {
			return nil, diag, irerr.New(irerr.PrecisionError, "refinement did not converge within the iteration cap", iter)
		}
		diag.Iterations = iter + 1
		diag.PartitionSizeHistory = append(diag.PartitionSizeHistory, len(xPartition)-1+len(yPartition)-1)

		xBasis, err := buildLocalBasis(xPartition, opts.NumLocalPoly, opts.NumGLNodes, opts.Precision)
		if err != nil {
			return nil, diag, err
		}
		yBasis, err := buildLocalBasis(yPartition, opts.NumLocalPoly, opts.NumGLNodes, opts.Precision)
		if err != nil {
			return nil, diag, err
		}

		evenMat := assembleBlockMatrix(k, true, xBasis, yBasis, opts.NumLocalPoly, opts.NumGLNodes)
		oddMat := assembleBlockMatrix(k, false, xBasis, yBasis, opts.NumLocalPoly, opts.NumGLNodes)

		evenResult, err := svd.Jacobi(evenMat, opts.Precision)
		if err != nil {
			return nil, diag, irerr.New(irerr.PrecisionError, "even-sector SVD failed: "+err.Error(), nil)
		}
		oddResult, err := svd.Jacobi(oddMat, opts.Precision)
		if err != nil {
			return nil, diag, irerr.New(irerr.PrecisionError, "odd-sector SVD failed: "+err.Error(), nil)
		}
		if len(evenResult.S) == 0 {
			return nil, diag, irerr.New(irerr.BasisError, "even-sector SVD produced no singular values", nil)
		}

		sigmas, us, vs, uCols, vCols, evenLastParity, err := interleave(evenResult, oddResult, opts.SVCutoff, opts.MaxDim, xPartition, yPartition, opts.NumLocalPoly)
		if err != nil {
			return nil, diag, err
		}
		if !nonIncreasingReal(sigmas) {
			return nil, diag, irerr.New(irerr.PrecisionError, "interleaved singular values not monotonically non-increasing", nil)
		}

		basis = &BasisSet{Sigma: sigmas, U: us, V: vs}
		L := basis.Dim()

		lastIdx := L - 1
		uLastCol := uCols[lastIdx]
		vLastCol := vCols[lastIdx]

		xTail := tailResiduals(uLastCol, xPartition, opts.NumLocalPoly)
		yTail := tailResiduals(vLastCol, yPartition, opts.NumLocalPoly)
		diag.XTailResiduals = xTail
		diag.YTailResiduals = yTail
		diag.XPartition = xPartition
		diag.YPartition = yPartition

		one := hiprec.FromFloat64(1)
		zero := hiprec.Zero()
		uLastAt1, err := us[lastIdx].Value(one)
		if err != nil {
			return nil, diag, err
		}
		aTolX := opts.RTol * hiprec.Abs(uLastAt1).Float64()

		yIdx := yToleranceIndex(L)
		if yIdx < 0 {
			yIdx = lastIdx
		}
		vAt1, err := vs[yIdx].Value(one)
		if err != nil {
			return nil, diag, err
		}
		vAt0, err := vs[yIdx].Value(zero)
		if err != nil {
			return nil, diag, err
		}
		aTolY := opts.RTol * maxFloat(hiprec.Abs(vAt1).Float64(), hiprec.Abs(vAt0).Float64())

		residX, err := integralEquationResidual(k, evenLastParity, true, us[lastIdx], vs[lastIdx], sigmas[lastIdx], opts.NumGLNodes, opts.Precision)
		if err != nil {
			return nil, diag, err
		}
		residY, err := integralEquationResidual(k, evenLastParity, false, vs[lastIdx], us[lastIdx], sigmas[lastIdx], opts.NumGLNodes, opts.Precision)
		if err != nil {
			return nil, diag, err
		}
		diag.IntegralResidualX = residX
		diag.IntegralResidualY = residY

		newX, xChanged := refinePartition(xPartition, xTail, aTolX)
		newY, yChanged := refinePartition(yPartition, yTail, aTolY)
		if !xChanged && !yChanged {
			return basis, diag, nil
		}
		xPartition = newX
		yPartition = newY
	}
}

// interleave walks the even and odd singular-value lists in the fixed
// alternating order (even_0, odd_0, even_1, odd_1, ...), stopping once
// the ratio to the first (even_0) value falls below svCutoff, the
// requested dimension is reached, or either list is exhausted, and lifts
// each retained vector to a sign-normalized PP pair. The parity of the
// l-th vector equals l mod 2, so the l-th returned pair's own kernel
// sector is even iff l is even; lastParity reports that for the final
// retained index.
func interleave(evenResult, oddResult *svd.Result, svCutoff float64, maxDim int, xPartition, yPartition []hiprec.Real, numLocalPoly int) (sigmas []hiprec.Real, us, vs []*pp.PP, uCols, vCols [][]hiprec.Real, lastParity bool, err error) {
	sigma0 := evenResult.S[0]
	for l := 0; ; l++ {
		even := l%2 == 0
		idx := l / 2
		var result *svd.Result
		if even {
			result = evenResult
		} else {
			result = oddResult
		}
		if idx >= len(result.S) {
			break
		}
		sigma := result.S[idx]
		if len(sigmas) > 0 && hiprec.Cmp(hiprec.Abs(hiprec.Quo(sigma, sigma0)), hiprec.FromFloat64(svCutoff)) < 0 {
			break
		}
		if len(sigmas) >= maxDim {
			break
		}

		uCol := column(result.U, idx)
		vCol := column(result.V, idx)
		uPP, lerr := liftVector(uCol, xPartition, numLocalPoly)
		if lerr != nil {
			return nil, nil, nil, nil, nil, false, lerr
		}
		vPP, lerr := liftVector(vCol, yPartition, numLocalPoly)
		if lerr != nil {
			return nil, nil, nil, nil, nil, false, lerr
		}
		uPP, vPP, lerr = normalizeSign(uPP, vPP)
		if lerr != nil {
			return nil, nil, nil, nil, nil, false, lerr
		}

		sigmas = append(sigmas, sigma)
		us = append(us, uPP)
		vs = append(vs, vPP)
		uCols = append(uCols, uCol)
		vCols = append(vCols, vCol)
		lastParity = even
	}
	if len(sigmas) == 0 {
		return nil, nil, nil, nil, nil, false, irerr.New(irerr.BasisError, "no singular values survived the cutoff", svCutoff)
	}
	return sigmas, us, vs, uCols, vCols, lastParity, nil
}

// column extracts column j of a row-major matrix.
func column(m [][]hiprec.Real, j int) []hiprec.Real {
	out := make([]hiprec.Real, len(m))
	for i := range m {
		out[i] = m[i][j]
	}
	return out
}

func toReal(xs []float64) []hiprec.Real {
	out := make([]hiprec.Real, len(xs))
	for i, x := range xs {
		out[i] = hiprec.FromFloat64(x)
	}
	return out
}

func nonIncreasingReal(s []hiprec.Real) bool {
	for i := 1; i < len(s); i++ {
		if hiprec.Cmp(s[i], s[i-1]) > 0 {
			return false
		}
	}
	return true
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
