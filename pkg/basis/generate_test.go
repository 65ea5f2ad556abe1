package basis

import (
	"math"
	"testing"

	"irbasis/pkg/hiprec"
	"irbasis/pkg/kernel"
	"irbasis/pkg/pp"
)

func smallOptions() Options {
	o := DefaultOptions()
	o.MaxDim = 8
	o.NumLocalPoly = 6
	o.NumGLNodes = 12
	o.Precision = 120
	o.SVCutoff = 1e-6
	o.RTol = 1e-4
	return o
}

func TestGenerateSVCutoffAtOneReturnsSingleBasisFunction(t *testing.T) {
	k := kernel.NewFermionic(10)
	o := smallOptions()
	o.SVCutoff = 1

	b, _, err := Generate(k, o)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Dim() != 1 {
		t.Fatalf("expected dim 1 at sv_cutoff=1, got %d", b.Dim())
	}
}

func TestGenerateSingularValuesNonIncreasing(t *testing.T) {
	k := kernel.NewFermionic(10)
	b, _, err := Generate(k, smallOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < b.Dim(); i++ {
		if hiprec.Cmp(b.Sigma[i], b.Sigma[i-1]) > 0 {
			t.Fatalf("sigma not non-increasing at index %d: %v > %v", i, b.Sigma[i].Float64(), b.Sigma[i-1].Float64())
		}
	}
}

func TestGenerateSignConvention(t *testing.T) {
	k := kernel.NewFermionic(10)
	b, _, err := Generate(k, smallOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	one := hiprec.FromFloat64(1)
	for l, u := range b.U {
		v, err := u.Value(one)
		if err != nil {
			t.Fatalf("U[%d](1) failed: %v", l, err)
		}
		if hiprec.Sign(v) < 0 {
			t.Fatalf("U[%d](1) = %v, expected >= 0", l, v.Float64())
		}
	}
}

// TestGenerateBosonicParityPattern checks the parity pattern U_l has when
// extended antisymmetrically/symmetrically about x=0 to the full [-1,1]
// domain. Since U_l is only ever stored on the half-domain [0,1], the
// extension can't be evaluated directly at negative x; but parity forces a
// necessary condition right at the fold point x=0, which the stored PP does
// cover: an odd-extended function must vanish there (f(-0)=-f(0) and
// f(-0)=f(0) force f(0)=0), and an even-extended function must have zero
// slope there (f'(-0)=-f'(0) and f'(-0)=f'(0) force f'(0)=0). U_0 and U_1
// additionally come from separate (even, odd) SVD sectors, so their
// half-domain overlap must vanish too.
func TestGenerateBosonicParityPattern(t *testing.T) {
	k := kernel.NewBosonic(20)
	o := smallOptions()
	o.MaxDim = 6

	b, _, err := Generate(k, o)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Dim() < 2 {
		t.Skip("kernel/options combination produced too few basis functions to check parity ordering")
	}

	zero := hiprec.FromFloat64(0)
	for l, u := range b.U {
		one, err := u.Value(hiprec.FromFloat64(1))
		if err != nil {
			t.Fatalf("U[%d](1) failed: %v", l, err)
		}
		scale := math.Abs(one.Float64())
		if scale == 0 {
			scale = 1
		}
		tol := 1e-2 * scale

		if l%2 == 0 {
			d, err := u.Derivative(zero, 1, 0)
			if err != nil {
				t.Fatalf("U[%d]'(0) failed: %v", l, err)
			}
			if math.Abs(d.Float64()) > tol {
				t.Errorf("U[%d] (even) has U'(0) = %v, want ~0 (tol %v)", l, d.Float64(), tol)
			}
		} else {
			v, err := u.Value(zero)
			if err != nil {
				t.Fatalf("U[%d](0) failed: %v", l, err)
			}
			if math.Abs(v.Float64()) > tol {
				t.Errorf("U[%d] (odd) has U(0) = %v, want ~0 (tol %v)", l, v.Float64(), tol)
			}
		}
	}

	overlap, err := pp.Overlap(b.U[0], b.U[1])
	if err != nil {
		t.Fatalf("Overlap(U[0], U[1]) failed: %v", err)
	}
	if math.Abs(overlap.Float64()) > 1e-2 {
		t.Errorf("<U[0],U[1]> = %v, want ~0 (even/odd sectors are orthogonal)", overlap.Float64())
	}
}

// TestGenerateOrthonormality checks the normalization 2*<U_l,U_l>_[0,1] = 1
// and cross-term <U_l,U_m>_[0,1] = 0 for l != m, on both U and V.
func TestGenerateOrthonormality(t *testing.T) {
	k := kernel.NewFermionic(10)
	b, _, err := Generate(k, smallOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Dim() < 2 {
		t.Skip("kernel/options combination produced too few basis functions to check orthonormality")
	}

	const tol = 5e-2
	check := func(name string, fs []*pp.PP) {
		for l := range fs {
			for m := range fs {
				overlap, err := pp.Overlap(fs[l], fs[m])
				if err != nil {
					t.Fatalf("Overlap(%s[%d], %s[%d]) failed: %v", name, l, name, m, err)
				}
				got := 2 * overlap.Float64()
				want := 0.0
				if l == m {
					want = 1.0
				}
				if math.Abs(got-want) > tol {
					t.Errorf("2*<%s[%d],%s[%d]> = %v, want %v (tol %v)", name, l, name, m, got, want, tol)
				}
			}
		}
	}
	check("U", b.U)
	check("V", b.V)
}

func TestGenerateDiagnosticsPartitionSizeMonotone(t *testing.T) {
	k := kernel.NewFermionic(10)
	_, diag, err := Generate(k, smallOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(diag.PartitionSizeHistory); i++ {
		if diag.PartitionSizeHistory[i] < diag.PartitionSizeHistory[i-1] {
			t.Fatalf("partition size decreased at iteration %d: %d < %d", i, diag.PartitionSizeHistory[i], diag.PartitionSizeHistory[i-1])
		}
	}
}

func TestGenerateRejectsBadOptions(t *testing.T) {
	k := kernel.NewFermionic(10)
	o := smallOptions()
	o.NumLocalPoly = 1
	if _, _, err := Generate(k, o); err == nil {
		t.Fatal("expected ConfigError for num_local_poly < 2")
	}
}

func TestYToleranceIndex(t *testing.T) {
	cases := []struct{ l, want int }{
		{1, -1},
		{2, 1},
		{3, 1},
		{4, 3},
		{5, 3},
	}
	for _, c := range cases {
		if got := yToleranceIndex(c.l); got != c.want {
			t.Errorf("yToleranceIndex(%d) = %d, want %d", c.l, got, c.want)
		}
	}
}
