package pp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"irbasis/pkg/hiprec"
)

// Serialize writes f in the persisted PP format defined for callers that
// need to store a basis on disk: precision, order, section count, the
// section edges, then coefficients in row-major (section-major,
// order-minor) order, one line per field. The core does not read or
// write files itself — I/O is the caller's concern — but tests rely on
// this reference implementation to exercise the round-trip invariant.
func (f *PP) Serialize(w io.Writer) error {
	bw := bufio.NewWriter(w)
	prec := hiprec.Precision()
	if _, err := fmt.Fprintln(bw, prec); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(bw, f.order); err != nil {
		return err
	}
	n := f.NumSections()
	if _, err := fmt.Fprintln(bw, n); err != nil {
		return err
	}
	for i := 0; i <= n; i++ {
		if _, err := fmt.Fprintln(bw, f.section[i].String()); err != nil {
			return err
		}
	}
	for s := 0; s < n; s++ {
		for p := 0; p <= f.order; p++ {
			if _, err := fmt.Fprintln(bw, f.coeffs[s][p].String()); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Deserialize reads the format Serialize writes, parsing every decimal
// field at the precision recorded in the stream's own header line. It
// restores the caller's ambient working precision before returning.
func Deserialize(r io.Reader) (*PP, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	readLine := func(what string) (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", fmt.Errorf("pp: reading %s: %w", what, err)
			}
			return "", fmt.Errorf("pp: unexpected end of stream reading %s", what)
		}
		return strings.TrimSpace(sc.Text()), nil
	}

	precLine, err := readLine("precision")
	if err != nil {
		return nil, err
	}
	prec64, err := strconv.ParseUint(precLine, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("pp: invalid precision %q: %w", precLine, err)
	}
	restore := hiprec.WithPrecision(uint(prec64))
	defer restore()

	orderLine, err := readLine("order")
	if err != nil {
		return nil, err
	}
	order, err := strconv.Atoi(orderLine)
	if err != nil {
		return nil, fmt.Errorf("pp: invalid order %q: %w", orderLine, err)
	}

	countLine, err := readLine("section count")
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(countLine)
	if err != nil {
		return nil, fmt.Errorf("pp: invalid section count %q: %w", countLine, err)
	}

	section := make([]hiprec.Real, n+1)
	for i := 0; i <= n; i++ {
		line, err := readLine("section edge")
		if err != nil {
			return nil, err
		}
		v, err := hiprec.FromString(line)
		if err != nil {
			return nil, fmt.Errorf("pp: section edge %d: %w", i, err)
		}
		section[i] = v
	}

	coeffs := make([][]hiprec.Real, n)
	for s := 0; s < n; s++ {
		row := make([]hiprec.Real, order+1)
		for p := 0; p <= order; p++ {
			line, err := readLine("coefficient")
			if err != nil {
				return nil, err
			}
			v, err := hiprec.FromString(line)
			if err != nil {
				return nil, fmt.Errorf("pp: coefficient [%d][%d]: %w", s, p, err)
			}
			row[p] = v
		}
		coeffs[s] = row
	}

	return New(section, order, coeffs)
}
