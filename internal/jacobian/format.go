// Package jacobian describes how Jacobian values are laid out and turns
// sparse layouts into dense row-major matrices.
//
// A [Pattern] couples a [Format] with the index arrays it needs, so a
// format tag can never disagree with its sparsity data. Patterns are
// immutable once built; only the values evaluated against them change.
package jacobian

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownFormat  = errors.New("jacobian: unknown format")
	ErrInvalidPattern = errors.New("jacobian: invalid sparsity pattern")
)

// Format is the value layout a Jacobian callback writes.
type Format int

const (
	// Dense is a row-major n*n matrix.
	Dense Format = iota
	// COO is one value per (row, col) triplet.
	COO
	// CSC is one value per nonzero, grouped by column.
	CSC
)

func (f Format) String() string {
	switch f {
	case Dense:
		return "dense"
	case COO:
		return "coo"
	case CSC:
		return "csc"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Sparse reports whether values are stored per nonzero.
func (f Format) Sparse() bool {
	return f == COO || f == CSC
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dense", "":
		return Dense, nil
	case "coo":
		return COO, nil
	case "csc":
		return CSC, nil
	default:
		return Dense, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

func (f Format) MarshalText() ([]byte, error) {
	switch f {
	case Dense, COO, CSC:
		return []byte(f.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, int(f))
	}
}

func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Formats lists every supported format.
func Formats() []Format {
	return []Format{Dense, COO, CSC}
}
