package pp

import "irbasis/pkg/hiprec"

// Add returns f+g. Requires identical partitions; the result order is
// the max of the two input orders, with the narrower operand's missing
// high-order coefficients treated as zero.
func Add(f, g *PP) (*PP, error) {
	return combine(f, g, hiprec.Add)
}

// Subtract returns f-g, under the same rules as Add.
func Subtract(f, g *PP) (*PP, error) {
	return combine(f, g, hiprec.Sub)
}

func combine(f, g *PP, op func(a, b hiprec.Real) hiprec.Real) (*PP, error) {
	if err := requireSamePartition(f, g); err != nil {
		return nil, err
	}
	order := f.order
	if g.order > order {
		order = g.order
	}
	n := f.NumSections()
	coeffs := make([][]hiprec.Real, n)
	for s := 0; s < n; s++ {
		row := make([]hiprec.Real, order+1)
		for p := 0; p <= order; p++ {
			a, b := hiprec.Zero(), hiprec.Zero()
			if p <= f.order {
				a = f.coeffs[s][p]
			}
			if p <= g.order {
				b = g.coeffs[s][p]
			}
			row[p] = op(a, b)
		}
		coeffs[s] = row
	}
	return New(f.section, order, coeffs)
}

// Scale returns alpha*f, elementwise on the coefficients.
func Scale(alpha hiprec.Real, f *PP) *PP {
	n := f.NumSections()
	coeffs := make([][]hiprec.Real, n)
	for s := 0; s < n; s++ {
		row := make([]hiprec.Real, f.order+1)
		for p := 0; p <= f.order; p++ {
			row[p] = hiprec.Mul(alpha, f.coeffs[s][p])
		}
		coeffs[s] = row
	}
	out, _ := New(f.section, f.order, coeffs) // shape is guaranteed valid by construction
	return out
}

// Multiply returns f*g, requiring identical partitions. Per section, the
// result is the polynomial convolution of the two coefficient rows, so
// the result order is f.Order()+g.Order().
func Multiply(f, g *PP) (*PP, error) {
	if err := requireSamePartition(f, g); err != nil {
		return nil, err
	}
	order := f.order + g.order
	n := f.NumSections()
	coeffs := make([][]hiprec.Real, n)
	for s := 0; s < n; s++ {
		row := make([]hiprec.Real, order+1)
		for p := range row {
			row[p] = hiprec.Zero()
		}
		for i := 0; i <= f.order; i++ {
			if hiprec.IsZero(f.coeffs[s][i]) {
				continue
			}
			for j := 0; j <= g.order; j++ {
				row[i+j] = hiprec.Add(row[i+j], hiprec.Mul(f.coeffs[s][i], g.coeffs[s][j]))
			}
		}
		coeffs[s] = row
	}
	return New(f.section, order, coeffs)
}

// Overlap returns the inner product <f,g> = sum_s sum_{p,p'}
// conj(a[s][p])*b[s][p']*Delta_s^(p+p'+1)/(p+p'+1). Coefficients here are
// real, so conjugation is the identity and is not applied; the overlap is
// symmetric in f and g.
func Overlap(f, g *PP) (hiprec.Real, error) {
	if err := requireSamePartition(f, g); err != nil {
		return hiprec.Real{}, err
	}
	total := hiprec.Zero()
	for s := 0; s < f.NumSections(); s++ {
		delta := hiprec.Sub(f.section[s+1], f.section[s])
		for p := 0; p <= f.order; p++ {
			if hiprec.IsZero(f.coeffs[s][p]) {
				continue
			}
			for q := 0; q <= g.order; q++ {
				if hiprec.IsZero(g.coeffs[s][q]) {
					continue
				}
				deltaPow := ipow(delta, p+q+1)
				term := hiprec.QuoInt(hiprec.Mul(f.coeffs[s][p], hiprec.Mul(g.coeffs[s][q], deltaPow)), p+q+1)
				total = hiprec.Add(total, term)
			}
		}
	}
	return total, nil
}

func ipow(base hiprec.Real, n int) hiprec.Real {
	result := hiprec.FromFloat64(1)
	for i := 0; i < n; i++ {
		result = hiprec.Mul(result, base)
	}
	return result
}
