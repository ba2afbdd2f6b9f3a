package jacobian

import (
	"github.com/san-kum/moosim/internal/dynamo"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// PatternOf returns the structure of the nonzero cells of the row-major
// n*n matrix dense in format f. COO entries are listed row by row.
func PatternOf(dense []float64, n int, f Format) Pattern {
	switch f {
	case COO:
		var row, col []int
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if dense[i*n+j] != 0 {
					row = append(row, i)
					col = append(col, j)
				}
			}
		}
		return COOPattern(row, col)
	case CSC:
		colPtr := make([]int, n+1)
		var row []int
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				if dense[i*n+j] != 0 {
					row = append(row, i)
				}
			}
			colPtr[j+1] = len(row)
		}
		return CSCPattern(colPtr, row)
	default:
		return DensePattern()
	}
}

// ToCSC converts a COO pattern to CSC. perm maps each CSC value slot to the
// COO slot it is read from.
func ToCSC(p Pattern, n int) (csc Pattern, perm []int) {
	nnz := len(p.row)
	colPtr := make([]int, n+1)
	for _, c := range p.col {
		colPtr[c+1]++
	}
	for c := 0; c < n; c++ {
		colPtr[c+1] += colPtr[c]
	}

	next := make([]int, n)
	copy(next, colPtr[:n])
	row := make([]int, nnz)
	perm = make([]int, nnz)
	for k := 0; k < nnz; k++ {
		c := p.col[k]
		slot := next[c]
		row[slot] = p.row[k]
		perm[slot] = k
		next[c]++
	}
	return CSCPattern(colPtr, row), perm
}

// Reorder wraps a sparse callback so its values come out in perm order.
// The returned callback owns a scratch buffer and is not safe for
// concurrent use.
func Reorder(fn dynamo.JacobianFunc, perm []int) dynamo.JacobianFunc {
	scratch := make([]float64, len(perm))
	return func(t float64, x, u, p, out []float64, data any) {
		clear(scratch)
		fn(t, x, u, p, scratch, data)
		for slot, k := range perm {
			out[slot] = scratch[k]
		}
	}
}

// Sparsify wraps a dense Jacobian callback so it writes the values of
// pattern p. The returned callback owns an n*n scratch matrix and is not
// safe for concurrent use.
func Sparsify(p Pattern, fn dynamo.JacobianFunc, n int) dynamo.JacobianFunc {
	if p.Format() == Dense {
		return fn
	}
	scratch := make([]float64, n*n)
	return func(t float64, x, u, par, out []float64, data any) {
		clear(scratch)
		fn(t, x, u, par, scratch, data)
		p.Gather(scratch, out, n)
	}
}

// FiniteDifference approximates the dense Jacobian of rhs by central
// differences.
func FiniteDifference(rhs dynamo.ODEFunc, n int) dynamo.JacobianFunc {
	settings := &fd.JacobianSettings{Formula: fd.Central}
	return func(t float64, x, u, p, out []float64, data any) {
		dst := mat.NewDense(n, n, out[:n*n])
		fd.Jacobian(dst, func(y, xx []float64) {
			rhs(t, xx, u, p, y, data)
		}, x, settings)
	}
}

// AsMatrix views a densified row-major buffer as a gonum matrix without
// copying.
func AsMatrix(out []float64, n int) *mat.Dense {
	return mat.NewDense(n, n, out[:n*n])
}
