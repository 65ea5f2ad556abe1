// Package fingerprint computes a deterministic digest of a generated
// basis set, the mechanism callers use to confirm that two runs of the
// adaptive generator over identical inputs produced bit-identical
// output (the determinism property the concurrency model guarantees).
// The digest is a SHAKE-128 XOF (golang.org/x/crypto/sha3) over the
// decimal forms of the singular values, section edges and coefficients.
package fingerprint

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"irbasis/pkg/basis"
	"irbasis/pkg/pp"
)

// Size is the digest length in bytes, matching sha3.Sum256's output size
// even though the digest is produced via SHAKE-128 so it can be extended
// later without changing the hashing scheme.
const Size = 32

// Of returns a 32-byte SHAKE-128 digest of b's singular values and basis
// functions. Two calls to basis.Generate with identical kernel and
// Options must produce sets whose fingerprints are equal; any divergence
// in the arbitrary-precision arithmetic path shows up as a differing
// digest.
func Of(b *basis.BasisSet) ([]byte, error) {
	h := sha3.NewShake128()

	writeInt(h, b.Dim())
	for _, s := range b.Sigma {
		writeString(h, s.String())
	}
	for _, f := range b.U {
		if err := writePP(h, f); err != nil {
			return nil, err
		}
	}
	for _, f := range b.V {
		if err := writePP(h, f); err != nil {
			return nil, err
		}
	}

	out := make([]byte, Size)
	if _, err := h.Read(out); err != nil {
		return nil, err
	}
	return out, nil
}

func writePP(h sha3.ShakeHash, f *pp.PP) error {
	writeInt(h, f.Order())
	writeInt(h, f.NumSections())
	for i := 0; i <= f.NumSections(); i++ {
		writeString(h, f.SectionEdge(i).String())
	}
	for s := 0; s < f.NumSections(); s++ {
		for p := 0; p <= f.Order(); p++ {
			writeString(h, f.Coefficient(s, p).String())
		}
	}
	return nil
}

func writeInt(h sha3.ShakeHash, n int) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	h.Write(buf[:])
}

func writeString(h sha3.ShakeHash, s string) {
	writeInt(h, len(s))
	h.Write([]byte(s))
}
