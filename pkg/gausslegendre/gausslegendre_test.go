package gausslegendre

import (
	"math"
	"testing"

	"irbasis/pkg/hiprec"
)

func TestNodesAscendingAndSymmetric(t *testing.T) {
	nodes, err := Nodes(8, 200)
	if err != nil {
		t.Fatalf("Nodes: %v", err)
	}
	if len(nodes) != 8 {
		t.Fatalf("len(nodes) = %d, want 8", len(nodes))
	}
	for i := 1; i < len(nodes); i++ {
		if hiprec.Cmp(nodes[i-1].X, nodes[i].X) >= 0 {
			t.Fatalf("nodes not strictly ascending at %d", i)
		}
	}
	// symmetric: x_i = -x_{m-1-i}, w_i = w_{m-1-i}
	for i := range nodes {
		j := len(nodes) - 1 - i
		sum := hiprec.Add(nodes[i].X, nodes[j].X).Float64()
		if math.Abs(sum) > 1e-12 {
			t.Errorf("nodes[%d]+nodes[%d] = %v, want ~0", i, j, sum)
		}
		wdiff := hiprec.Sub(nodes[i].W, nodes[j].W).Float64()
		if math.Abs(wdiff) > 1e-12 {
			t.Errorf("weights[%d]-weights[%d] = %v, want ~0", i, j, wdiff)
		}
	}
}

func TestNodesExactForPolynomials(t *testing.T) {
	// An m-point rule is exact up to degree 2m-1. Integrate x^k on [-1,1].
	m := 6
	nodes, err := Nodes(m, 200)
	if err != nil {
		t.Fatalf("Nodes: %v", err)
	}
	for k := 0; k <= 2*m-1; k++ {
		got := 0.0
		for _, nd := range nodes {
			got += nd.W.Float64() * math.Pow(nd.X.Float64(), float64(k))
		}
		want := 0.0
		if k%2 == 0 {
			want = 2.0 / float64(k+1)
		}
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("integral of x^%d = %v, want %v", k, got, want)
		}
	}
}

func TestComposite(t *testing.T) {
	partition := []hiprec.Real{
		hiprec.FromFloat64(0), hiprec.FromFloat64(0.5), hiprec.FromFloat64(1),
	}
	sections, err := Composite(partition, 10, 200)
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("len(sections) = %d, want 2", len(sections))
	}
	// Integrate x^2 over [0,1] using the composite rule: should be 1/3.
	sum := 0.0
	for _, sec := range sections {
		for _, nd := range sec {
			x := nd.X.Float64()
			sum += nd.W.Float64() * x * x
		}
	}
	if math.Abs(sum-1.0/3.0) > 1e-9 {
		t.Errorf("composite integral of x^2 on [0,1] = %v, want 1/3", sum)
	}
}

func TestCacheMemoizes(t *testing.T) {
	c := NewCache(128)
	a, err := c.Get(5)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, err := c.Get(5)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("cached table length changed")
	}
	if &a[0] != &b[0] {
		t.Errorf("second Get(5) recomputed the table instead of returning the memoized one")
	}
}

func TestNodesRejectsNonPositiveOrder(t *testing.T) {
	if _, err := Nodes(0, 100); err == nil {
		t.Error("Nodes(0, ...) should error")
	}
}
