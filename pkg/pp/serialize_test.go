package pp

import (
	"bytes"
	"math"
	"testing"

	"irbasis/pkg/hiprec"
)

func TestSerializeRoundTrip(t *testing.T) {
	restore := hiprec.WithPrecision(200)
	defer restore()

	section := []hiprec.Real{hiprec.FromFloat64(0), hiprec.FromFloat64(0.5), hiprec.FromFloat64(1)}
	coeffs := [][]hiprec.Real{
		{hiprec.FromFloat64(1), hiprec.FromFloat64(2), hiprec.FromFloat64(3)},
		{hiprec.FromFloat64(-1), hiprec.FromFloat64(0.5), hiprec.FromFloat64(-2)},
	}
	f, err := New(section, 2, coeffs)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var buf bytes.Buffer
	if err := f.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	back, err := Deserialize(&buf)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	for _, x := range []float64{0, 0.25, 0.5, 0.75, 1} {
		want, err := f.Value(hiprec.FromFloat64(x))
		if err != nil {
			t.Fatalf("Value: %v", err)
		}
		got, err := back.Value(hiprec.FromFloat64(x))
		if err != nil {
			t.Fatalf("Value: %v", err)
		}
		if math.Abs(got.Float64()-want.Float64()) > 1e-15 {
			t.Errorf("round trip at x=%v: got %v want %v", x, got.Float64(), want.Float64())
		}
	}

	if hiprec.Precision() != 200 {
		t.Errorf("Deserialize leaked precision: got %d, want 200", hiprec.Precision())
	}
}

func TestDeserializeTruncatedStream(t *testing.T) {
	if _, err := Deserialize(bytes.NewBufferString("200\n2\n1\n0\n")); err == nil {
		t.Error("Deserialize on truncated stream should error")
	}
}
