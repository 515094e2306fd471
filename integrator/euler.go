package integrator

import "math"

// Euler defines an explicit (forward) Euler integrator.
type Euler struct {
	X0         float64    // The initial x0.
	StepSize   float64    // The step size.
	Integrator Integrable // What is to be integrated.
}

// NewEuler returns a new Euler integrator instance.
func NewEuler(x0 float64, stepSize float64, inte Integrable) (e *Euler) {
	if stepSize <= 0 {
		panic("config StepSize must be positive")
	}
	if inte == nil {
		panic("config Integrator may not be nil")
	}
	e = &Euler{X0: x0, StepSize: stepSize, Integrator: inte}
	return
}

// Solve solves the configured Euler.
// Returns the number of iterations performed and the last X_i.
func (e *Euler) Solve() (uint64, float64) {
	iterNum := uint64(0)
	xi := e.X0
	for !e.Integrator.Stop(iterNum) {
		state := e.Integrator.GetState()
		e.Integrator.SetState(iterNum, Step(state, e.Integrator.Func(xi, state), e.StepSize))
		xi += e.StepSize
		iterNum++
	}
	return iterNum, xi
}

// Step performs a single explicit Euler step: x_{n+1} = x_n + h * f(x_n).
// All the components use the same state x_n, i.e. the update is simultaneous.
func Step(state, fDot []float64, h float64) []float64 {
	if len(state) != len(fDot) {
		panic("state and derivative sizes differ")
	}
	next := make([]float64, len(state))
	for i, x := range state {
		next[i] = x + h*fDot[i]
	}
	return next
}

// Finite returns the index of the first NaN or infinite component, and whether the state is entirely finite.
func Finite(state []float64) (int, bool) {
	for i, x := range state {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return i, false
		}
	}
	return -1, true
}
