package basis

import (
	"irbasis/pkg/gausslegendre"
	"irbasis/pkg/hiprec"
	"irbasis/pkg/kernel"
)

// localBasis holds, for one partition, the per-section Phi matrix
// (num_local_poly x num_gl_nodes) together with the global quadrature
// x-coordinates each column corresponds to — the two things assemble
// needs to form Phi_x[s] * K_nn * Phi_y[s']^T.
type localBasis struct {
	partition []hiprec.Real
	phi       [][][]hiprec.Real // phi[s][l][n]
	globalX   [][]hiprec.Real   // globalX[s][n]
}

// buildLocalBasis constructs Phi_x[s](l,n) = sqrt(2/Delta_s) *
// tilde-P_l(xi_n) * w'_{s,n} for every section of partition, where
// (xi_n, w_n) are the base Gauss-Legendre nodes on [-1,1] and w'_{s,n}
// is the mapped weight (Delta_s/2)*w_n.
func buildLocalBasis(partition []hiprec.Real, numLocalPoly, numGLNodes int, prec uint) (*localBasis, error) {
	baseNodes, err := gausslegendre.Nodes(numGLNodes, prec)
	if err != nil {
		return nil, err
	}
	n := len(partition) - 1
	phi := make([][][]hiprec.Real, n)
	globalX := make([][]hiprec.Real, n)
	half := hiprec.FromFloat64(0.5)
	two := hiprec.FromFloat64(2)

	for s := 0; s < n; s++ {
		a, b := partition[s], partition[s+1]
		delta := hiprec.Sub(b, a)
		scale := hiprec.Sqrt(hiprec.Quo(two, delta))
		halfDelta := hiprec.Mul(half, delta)

		gx := make([]hiprec.Real, numGLNodes)
		for nIdx, nd := range baseNodes {
			gx[nIdx] = hiprec.Add(a, hiprec.Mul(halfDelta, hiprec.Add(nd.X, hiprec.FromFloat64(1))))
		}
		globalX[s] = gx

		rows := make([][]hiprec.Real, numLocalPoly)
		for l := 0; l < numLocalPoly; l++ {
			row := make([]hiprec.Real, numGLNodes)
			for nIdx, nd := range baseNodes {
				mappedWeight := hiprec.Mul(halfDelta, nd.W)
				row[nIdx] = hiprec.Mul(scale, hiprec.Mul(normalizedLegendreValue(l, nd.X), mappedWeight))
			}
			rows[l] = row
		}
		phi[s] = rows
	}

	return &localBasis{partition: partition, phi: phi, globalX: globalX}, nil
}

// kernelEval selects K(x,y)+K(x,-y) or K(x,y)-K(x,-y) depending on sector.
func kernelEval(k kernel.Kernel, even bool, x, y hiprec.Real) hiprec.Real {
	if even {
		return k.Even(x, y)
	}
	return k.Odd(x, y)
}

// assembleBlockMatrix builds the (Nx*numLocalPoly) x (Ny*numLocalPoly)
// kernel matrix in the composite local-Legendre basis, for one parity
// sector: K_mat[s*L+l, s'*L+l'] = (Phi_x[s] * K_nn(s,s') * Phi_y[s']^T)[l,l'].
func assembleBlockMatrix(k kernel.Kernel, even bool, xb, yb *localBasis, numLocalPoly, numGLNodes int) [][]hiprec.Real {
	nx := len(xb.phi)
	ny := len(yb.phi)
	mat := make([][]hiprec.Real, nx*numLocalPoly)
	for i := range mat {
		mat[i] = make([]hiprec.Real, ny*numLocalPoly)
		for j := range mat[i] {
			mat[i][j] = hiprec.Zero()
		}
	}

	for s := 0; s < nx; s++ {
		for sp := 0; sp < ny; sp++ {
			// K_nn(s,s')[n][n'] = kernel(x_{s,n}, y_{s',n'})
			knn := make([][]hiprec.Real, numGLNodes)
			for n := 0; n < numGLNodes; n++ {
				row := make([]hiprec.Real, numGLNodes)
				for np := 0; np < numGLNodes; np++ {
					row[np] = kernelEval(k, even, xb.globalX[s][n], yb.globalX[sp][np])
				}
				knn[n] = row
			}

			// block[l][l'] = sum_n sum_n' Phi_x[s][l][n]*Knn[n][n']*Phi_y[s'][l'][n']
			// computed as (Phi_x[s] * Knn) then contracted with Phi_y[s'].
			tmp := make([][]hiprec.Real, numLocalPoly)
			for l := 0; l < numLocalPoly; l++ {
				row := make([]hiprec.Real, numGLNodes)
				for np := 0; np < numGLNodes; np++ {
					acc := hiprec.Zero()
					for n := 0; n < numGLNodes; n++ {
						acc = hiprec.Add(acc, hiprec.Mul(xb.phi[s][l][n], knn[n][np]))
					}
					row[np] = acc
				}
				tmp[l] = row
			}

			for l := 0; l < numLocalPoly; l++ {
				for lp := 0; lp < numLocalPoly; lp++ {
					acc := hiprec.Zero()
					for np := 0; np < numGLNodes; np++ {
						acc = hiprec.Add(acc, hiprec.Mul(tmp[l][np], yb.phi[sp][lp][np]))
					}
					mat[s*numLocalPoly+l][sp*numLocalPoly+lp] = acc
				}
			}
		}
	}
	return mat
}
