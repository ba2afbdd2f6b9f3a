package jacobian

import "fmt"

// Pattern is the sparsity structure of a Jacobian. The zero value is the
// dense pattern.
//
// For COO, row and col are parallel triplet index arrays. For CSC, col
// holds n+1 column pointers and row holds one row index per nonzero.
type Pattern struct {
	format Format
	row    []int
	col    []int
}

func DensePattern() Pattern {
	return Pattern{format: Dense}
}

// COOPattern builds a triplet pattern. row and col must have equal length.
func COOPattern(row, col []int) Pattern {
	return Pattern{format: COO, row: row, col: col}
}

// CSCPattern builds a compressed-column pattern from n+1 column pointers
// and nnz row indices.
func CSCPattern(colPtr, row []int) Pattern {
	return Pattern{format: CSC, row: row, col: colPtr}
}

func (p Pattern) Format() Format { return p.format }

// NNZ is the number of stored values for sparse formats and 0 for dense.
func (p Pattern) NNZ() int {
	if p.format.Sparse() {
		return len(p.row)
	}
	return 0
}

// ValueLen is the length of the value buffer a callback writes for an
// n-dimensional system.
func (p Pattern) ValueLen(n int) int {
	if p.format.Sparse() {
		return len(p.row)
	}
	return n * n
}

// Rows returns the row index of every nonzero. Callers must not modify it.
func (p Pattern) Rows() []int { return p.row }

// Cols returns COO column indices or CSC column pointers. Callers must not
// modify it.
func (p Pattern) Cols() []int { return p.col }

// Densify writes values into the row-major n*n matrix out. Cells outside
// the pattern are left untouched; a cell listed twice keeps the later value.
func (p Pattern) Densify(values, out []float64, n int) {
	switch p.format {
	case Dense:
		copy(out[:n*n], values)
	case COO:
		for k := range p.row {
			out[p.row[k]*n+p.col[k]] = values[k]
		}
	case CSC:
		for c := 0; c < n; c++ {
			for k := p.col[c]; k < p.col[c+1]; k++ {
				out[p.row[k]*n+c] = values[k]
			}
		}
	}
}

// Gather is the inverse of Densify: it reads the pattern's cells from the
// row-major matrix dense into values.
func (p Pattern) Gather(dense, values []float64, n int) {
	switch p.format {
	case Dense:
		copy(values, dense[:n*n])
	case COO:
		for k := range p.row {
			values[k] = dense[p.row[k]*n+p.col[k]]
		}
	case CSC:
		for c := 0; c < n; c++ {
			for k := p.col[c]; k < p.col[c+1]; k++ {
				values[k] = dense[p.row[k]*n+c]
			}
		}
	}
}

// Validate checks the pattern against an n-dimensional system. It is meant
// for patterns read from external input, not for the evaluation path.
func (p Pattern) Validate(n int) error {
	switch p.format {
	case Dense:
		return nil
	case COO:
		if len(p.row) != len(p.col) {
			return fmt.Errorf("%w: coo has %d rows and %d cols", ErrInvalidPattern, len(p.row), len(p.col))
		}
		for k := range p.row {
			if p.row[k] < 0 || p.row[k] >= n || p.col[k] < 0 || p.col[k] >= n {
				return fmt.Errorf("%w: coo entry %d at (%d, %d) outside %dx%d", ErrInvalidPattern, k, p.row[k], p.col[k], n, n)
			}
		}
		return nil
	case CSC:
		if len(p.col) != n+1 {
			return fmt.Errorf("%w: csc needs %d column pointers, got %d", ErrInvalidPattern, n+1, len(p.col))
		}
		if p.col[0] != 0 {
			return fmt.Errorf("%w: csc column pointers must start at 0", ErrInvalidPattern)
		}
		for c := 0; c < n; c++ {
			if p.col[c+1] < p.col[c] {
				return fmt.Errorf("%w: csc column pointer %d decreases", ErrInvalidPattern, c+1)
			}
		}
		if p.col[n] != len(p.row) {
			return fmt.Errorf("%w: csc last pointer %d != nnz %d", ErrInvalidPattern, p.col[n], len(p.row))
		}
		for k, r := range p.row {
			if r < 0 || r >= n {
				return fmt.Errorf("%w: csc row %d of nonzero %d outside [0, %d)", ErrInvalidPattern, r, k, n)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnknownFormat, int(p.format))
	}
}
