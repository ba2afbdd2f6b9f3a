package metrics

import "math"

// EnergyDrift is the largest relative deviation of an energy function from
// its value at the first sample.
type EnergyDrift struct {
	name          string
	energy        func(x []float64) float64
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(energy func(x []float64) float64) *EnergyDrift {
	return &EnergyDrift{
		name:   "energy_drift",
		energy: energy,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(_ float64, x, _ []float64) {
	energy := e.energy(x)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
