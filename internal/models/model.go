package models

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/moosim/internal/control"
	"github.com/san-kum/moosim/internal/dynamo"
	"github.com/san-kum/moosim/internal/jacobian"
)

var ErrUnknownModel = errors.New("models: unknown model")

type Model struct {
	Name        string
	Description string

	X0         []float64
	Params     []float64
	ParamNames []string
	ControlDim int

	Start float64
	Stop  float64
	// Stepper names the driver the model is usually run with.
	Stepper string

	RHS dynamo.ODEFunc
	// DenseJac writes the full row-major Jacobian.
	DenseJac dynamo.JacobianFunc
	// SparseJac, if set, writes the values of the structural nonzeros in
	// rows/cols order directly.
	SparseJac dynamo.JacobianFunc

	rows []int
	cols []int
}

func (m *Model) XSize() int { return len(m.X0) }
func (m *Model) PSize() int { return len(m.Params) }

// State returns a fresh copy of the default start state.
func (m *Model) State() []float64 {
	return append([]float64(nil), m.X0...)
}

// ParamVector returns a fresh copy of the default parameters.
func (m *Model) ParamVector() []float64 {
	return append([]float64(nil), m.Params...)
}

// ParamIndex returns the position of a named parameter.
func (m *Model) ParamIndex(name string) (int, error) {
	for i, n := range m.ParamNames {
		if n == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("models: %s has no parameter %q", m.Name, name)
}

// Controls returns the default open-loop input: zero force for controlled
// models, nil for autonomous ones.
func (m *Model) Controls() dynamo.ControlTrajectory {
	if m.ControlDim == 0 {
		return nil
	}
	return control.Zero(m.ControlDim)
}

// Pattern returns the structural sparsity of the Jacobian in format f.
func (m *Model) Pattern(f jacobian.Format) jacobian.Pattern {
	coo := jacobian.COOPattern(m.rows, m.cols)
	switch f {
	case jacobian.COO:
		return coo
	case jacobian.CSC:
		csc, _ := jacobian.ToCSC(coo, m.XSize())
		return csc
	default:
		return jacobian.DensePattern()
	}
}

// Jacobian returns a callback writing the Jacobian in format f together
// with its pattern. Every call builds new callbacks.
func (m *Model) Jacobian(f jacobian.Format) (dynamo.JacobianFunc, jacobian.Pattern) {
	n := m.XSize()
	coo := jacobian.COOPattern(m.rows, m.cols)

	switch f {
	case jacobian.COO:
		if m.SparseJac != nil {
			return m.SparseJac, coo
		}
		return jacobian.Sparsify(coo, m.DenseJac, n), coo
	case jacobian.CSC:
		csc, perm := jacobian.ToCSC(coo, n)
		if m.SparseJac != nil {
			return jacobian.Reorder(m.SparseJac, perm), csc
		}
		return jacobian.Sparsify(csc, m.DenseJac, n), csc
	default:
		return m.DenseJac, jacobian.DensePattern()
	}
}

var constructors = map[string]func() *Model{
	"mwe":         NewMWE,
	"vanderpol":   NewVanDerPol,
	"lorenz":      NewLorenz,
	"spring_mass": NewSpringMass,
	"robertson":   NewRobertson,
}

// Get builds the model registered under name.
func Get(name string) (*Model, error) {
	fn, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return fn(), nil
}

// Names lists the registered models in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
