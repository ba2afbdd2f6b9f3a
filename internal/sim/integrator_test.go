package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/moosim/internal/dynamo"
	"github.com/san-kum/moosim/internal/jacobian"
	"github.com/san-kum/moosim/internal/sim"
)

var _ = Describe("Integrator", func() {
	var (
		ctx  context.Context
		grid []float64
	)

	BeforeEach(func() {
		ctx = context.Background()
		grid = []float64{0, 0.5, 1, 1.5, 2}
	})

	Describe("construction", func() {
		It("derives sizes from the borrowed buffers", func() {
			in := sim.New(decay, grid, []float64{1.5}, []float64{0.025, 1}, &scriptedStepper{})

			Expect(in.XSize()).To(Equal(1))
			Expect(in.PSize()).To(Equal(2))
			Expect(in.USize()).To(BeZero())
			Expect(in.Controls()).To(BeEmpty())
			Expect(in.NNZ()).To(BeZero())
			Expect(in.HasJacobian()).To(BeFalse())
			Expect(math.IsInf(in.LastT(), -1)).To(BeTrue())
		})

		It("takes the control dimension from the trajectory", func() {
			ctrl := &countingControls{dim: 2}
			in := sim.New(coupledRHS, grid, make([]float64, 3), []float64{1, 1}, &scriptedStepper{},
				sim.WithControls(ctrl))

			Expect(in.USize()).To(Equal(2))
			Expect(in.Controls()).To(HaveLen(2))
			Expect(ctrl.calls).To(BeZero())
		})

		It("sizes the sparse scratch from the pattern", func() {
			in := sim.New(coupledRHS, grid, make([]float64, 3), []float64{1, 1}, &scriptedStepper{},
				sim.WithJacobian(coupledJacCOO, jacobian.COOPattern(coupledRows, coupledCols)))

			Expect(in.NNZ()).To(Equal(6))
			Expect(in.Format()).To(Equal(jacobian.COO))
		})
	})

	Describe("SetControls", func() {
		It("interpolates once for repeated times", func() {
			ctrl := &countingControls{dim: 1}
			in := sim.New(decay, grid, []float64{1}, []float64{0}, &scriptedStepper{}, sim.WithControls(ctrl))

			in.SetControls(0.25)
			in.SetControls(0.25)

			Expect(ctrl.calls).To(Equal(1))
			Expect(in.Controls()).To(Equal([]float64{0.25}))
			Expect(in.LastT()).To(Equal(0.25))
		})

		It("re-interpolates when the time changes", func() {
			ctrl := &countingControls{dim: 2}
			in := sim.New(decay, grid, []float64{1}, []float64{0}, &scriptedStepper{}, sim.WithControls(ctrl))

			in.SetControls(1)
			in.SetControls(2)
			in.SetControls(1)

			Expect(ctrl.calls).To(Equal(3))
			Expect(in.Controls()).To(Equal([]float64{1, 2}))
		})

		It("advances the time marker without a control trajectory", func() {
			in := sim.New(decay, grid, []float64{1}, []float64{0}, &scriptedStepper{})

			in.SetControls(3.5)

			Expect(in.LastT()).To(Equal(3.5))
		})
	})

	Describe("ODE", func() {
		It("passes cached controls, parameters and user data", func() {
			var gotU, gotP []float64
			var gotData any
			rhs := func(_ float64, x, u, p, out []float64, data any) {
				gotU, gotP, gotData = u, p, data
				out[0] = x[0] * 2
			}
			ctrl := &countingControls{dim: 1}
			params := []float64{7}
			in := sim.New(rhs, grid, []float64{1}, params, &scriptedStepper{},
				sim.WithControls(ctrl), sim.WithUserData("model"))

			out := make([]float64, 1)
			in.ODE(0.75, []float64{3}, out)
			in.ODE(0.75, []float64{4}, out)

			Expect(out).To(Equal([]float64{8}))
			Expect(gotU).To(Equal([]float64{0.75}))
			Expect(&gotP[0]).To(BeIdenticalTo(&params[0]))
			Expect(gotData).To(Equal("model"))
			Expect(ctrl.calls).To(Equal(1))
		})
	})

	Describe("DenseJacobian", func() {
		var (
			x      []float64
			params []float64
		)

		BeforeEach(func() {
			x = []float64{0.3, -1.2, 2.0}
			params = []float64{1.5, 0.25}
		})

		build := func(f jacobian.Format, ctrl dynamo.ControlTrajectory) *sim.Integrator {
			opts := []sim.Option{sim.WithControls(ctrl)}
			switch f {
			case jacobian.Dense:
				opts = append(opts, sim.WithJacobian(coupledJacDense, jacobian.DensePattern()))
			case jacobian.COO:
				opts = append(opts, sim.WithJacobian(coupledJacCOO, jacobian.COOPattern(coupledRows, coupledCols)))
			case jacobian.CSC:
				opts = append(opts, sim.WithJacobian(coupledJacCSC, jacobian.CSCPattern(coupledColPtr, coupledCSCRows)))
			}
			return sim.New(coupledRHS, grid, make([]float64, 3), params, &scriptedStepper{}, opts...)
		}

		It("is repeatable on a warm cache without re-interpolating", func() {
			ctrl := &countingControls{dim: 2}
			in := build(jacobian.Dense, ctrl)

			first := make([]float64, 9)
			in.DenseJacobian(0.4, x, first)
			Expect(ctrl.calls).To(Equal(1))

			second := make([]float64, 9)
			in.DenseJacobian(0.4, x, second)

			Expect(second).To(Equal(first))
			Expect(ctrl.calls).To(Equal(1))
		})

		It("densifies every format to the same matrix", func() {
			want := make([]float64, 9)
			coupledJacDense(0.4, x, []float64{0.4, 1.4}, params, want, nil)

			for _, f := range jacobian.Formats() {
				in := build(f, &countingControls{dim: 2})
				got := make([]float64, 9)
				in.DenseJacobian(0.4, x, got)

				for i := range want {
					Expect(got[i]).To(BeNumerically("~", want[i], 1e-12), "format %s cell %d", f, i)
				}
			}
		})

		It("accepts CSC callbacks with the legacy argument order", func() {
			want := make([]float64, 9)
			build(jacobian.CSC, &countingControls{dim: 2}).DenseJacobian(1.1, x, want)

			in := sim.New(coupledRHS, grid, make([]float64, 3), params, &scriptedStepper{},
				sim.WithControls(&countingControls{dim: 2}),
				sim.WithLegacyCSCJacobian(coupledJacCSCLegacy, coupledColPtr, coupledCSCRows))
			got := make([]float64, 9)
			in.DenseJacobian(1.1, x, got)

			Expect(got).To(Equal(want))
		})

		It("scatters COO triplets row-major", func() {
			jac := func(_ float64, _, _, _, out []float64, _ any) {
				out[0], out[1] = 3.0, 5.0
			}
			in := sim.New(decay, grid, make([]float64, 2), nil, &scriptedStepper{},
				sim.WithJacobian(jac, jacobian.COOPattern([]int{0, 1}, []int{1, 0})))

			out := make([]float64, 4)
			in.DenseJacobian(0, []float64{0, 0}, out)

			Expect(out).To(Equal([]float64{0, 3, 5, 0}))
		})

		It("scatters CSC columns row-major", func() {
			jac := func(_ float64, _, _, _, out []float64, _ any) {
				out[0], out[1] = 5.0, 3.0
			}
			in := sim.New(decay, grid, make([]float64, 2), nil, &scriptedStepper{},
				sim.WithJacobian(jac, jacobian.CSCPattern([]int{0, 1, 2}, []int{1, 0})))

			out := make([]float64, 4)
			in.DenseJacobian(0, []float64{0, 0}, out)

			Expect(out).To(Equal([]float64{0, 3, 5, 0}))
		})

		It("zero-fills the sparse scratch before each evaluation", func() {
			calls := 0
			jac := func(_ float64, _, _, _, out []float64, _ any) {
				calls++
				if calls == 1 {
					out[0], out[1] = 3.0, 5.0
				}
			}
			in := sim.New(decay, grid, make([]float64, 2), nil, &scriptedStepper{},
				sim.WithJacobian(jac, jacobian.COOPattern([]int{0, 1}, []int{1, 0})))

			out := make([]float64, 4)
			in.DenseJacobian(0, []float64{0, 0}, out)
			in.DenseJacobian(1, []float64{0, 0}, out)

			Expect(out).To(Equal([]float64{0, 0, 0, 0}))
		})

		It("leaves the output untouched without a Jacobian", func() {
			ctrl := &countingControls{dim: 1}
			in := sim.New(decay, grid, []float64{1, 2}, []float64{0}, &scriptedStepper{}, sim.WithControls(ctrl))

			sentinel := math.Float64frombits(0x7ff8dead00beef01)
			out := []float64{sentinel, sentinel, sentinel, sentinel}
			in.DenseJacobian(0.5, []float64{1, 2}, out)

			for i := range out {
				Expect(math.Float64bits(out[i])).To(Equal(uint64(0x7ff8dead00beef01)))
			}
			Expect(ctrl.calls).To(BeZero())
		})
	})

	Describe("Simulate", func() {
		It("returns one sample per grid time and snapshots the parameters", func() {
			params := []float64{0.025}
			ctrl := &countingControls{dim: 1}
			in := sim.New(decay, grid, []float64{1.5}, params, &scriptedStepper{}, sim.WithControls(ctrl))

			tr, err := in.Simulate(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr).NotTo(BeNil())

			Expect(tr.T).To(Equal(grid))
			Expect(tr.X).To(HaveLen(1))
			Expect(tr.X[0]).To(HaveLen(len(grid)))
			Expect(tr.U).To(HaveLen(1))
			Expect(tr.U[0]).To(Equal(grid))
			Expect(tr.P).To(Equal(params))

			params[0] = 99
			Expect(tr.P[0]).To(Equal(0.025))
		})

		It("forces the first interpolation at the first grid time", func() {
			ctrl := &countingControls{dim: 1}
			stepper := &scriptedStepper{}
			in := sim.New(decay, grid, []float64{1}, []float64{0}, stepper, sim.WithControls(ctrl))

			_, err := in.Simulate(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ctrl.times[0]).To(Equal(grid[0]))
		})

		It("returns no trajectory when the stepper fails", func() {
			stepper := &scriptedStepper{status: sim.StatusStepTooSmall}
			in := sim.New(decay, grid, []float64{1}, []float64{0}, stepper)

			tr, err := in.Simulate(ctx)

			Expect(tr).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrIntegrationFailed)).To(BeTrue())
			var ierr *dynamo.IntegrationError
			Expect(errors.As(err, &ierr)).To(BeTrue())
			Expect(ierr.Status).To(Equal(int(sim.StatusStepTooSmall)))
			Expect(ierr.Stepper).To(Equal("scripted"))
		})

		It("treats positive statuses as success", func() {
			in := sim.New(decay, grid, []float64{1}, []float64{0}, &scriptedStepper{status: 3})

			tr, err := in.Simulate(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Len()).To(Equal(len(grid)))
		})

		It("re-initialises the output on repeated runs", func() {
			stepper := &scriptedStepper{}
			x := []float64{1}
			in := sim.New(decay, grid, x, []float64{0}, stepper)

			first, err := in.Simulate(ctx)
			Expect(err).NotTo(HaveOccurred())
			second, err := in.Simulate(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(stepper.calls).To(Equal(2))
			Expect(second).NotTo(BeIdenticalTo(first))
			Expect(second.Len()).To(Equal(len(grid)))
			Expect(second.X[0][0]).To(Equal(first.X[0][len(grid)-1]))
		})
	})
})

var _ = Describe("Status", func() {
	DescribeTable("Failed",
		func(s sim.Status, failed bool) {
			Expect(s.Failed()).To(Equal(failed))
		},
		Entry("ok", sim.StatusOK, false),
		Entry("positive", sim.Status(2), false),
		Entry("step too small", sim.StatusStepTooSmall, true),
		Entry("custom negative", sim.Status(-42), true),
	)

	It("describes known and unknown codes", func() {
		Expect(sim.StatusNewtonDiverged.String()).To(Equal("newton iteration diverged"))
		Expect(sim.Status(-42).String()).To(Equal("failed(-42)"))
		Expect(sim.Status(7).String()).To(Equal("ok(7)"))
	})
})
