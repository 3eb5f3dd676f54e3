package dynamo

import (
	"math"
)

// Slots of the rigid-body state vector.
const (
	U = iota
	V
	W
	P
	Q
	R
	Phi
	Theta
	Psi
	North
	East
	Down

	StateDim
)

var stateNames = [StateDim]string{"u", "v", "w", "p", "q", "r", "phi", "theta", "psi", "north", "east", "down"}

// StateName returns the short name of slot i.
func StateName(i int) string {
	if i < 0 || i >= StateDim {
		return "?"
	}
	return stateNames[i]
}

type State []float64

// NewState returns a zeroed 12-element state.
func NewState() State {
	return make(State, StateDim)
}

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Altitude is the height above the NED origin (positive up).
func (s State) Altitude() float64 {
	return -s[Down]
}

// Control is a flattened control vector; see controls.Values.Vector for the layout.
type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}
