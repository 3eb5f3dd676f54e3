// Package controls holds the pilot's control deflections.
//
// A State is written by the control-input side (keyboard, scripted
// scenarios, trim) and read once per tick by the simulation goroutine. Each
// channel is stored as a single atomic word so a reader never observes a
// torn value; every write is clamped to the channel's range.
package controls

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/san-kum/flightdyn/internal/dynamo"
)

type Channel int

const (
	Elevator Channel = iota
	Aileron
	Rudder
	Flaps
	Gear
	Brakes

	numSurfaceChannels
)

const deg = math.Pi / 180

// Range is a closed channel interval.
type Range struct {
	Min, Max float64
}

func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return r.Min
	}
	return math.Max(r.Min, math.Min(r.Max, v))
}

// Limits gives the range of every surface channel plus the shared engine
// lever ranges. Angles are radians.
type Limits struct {
	Elevator, Aileron, Rudder, Flaps, Gear, Brakes Range
	Throttle, Propeller, Mixture                   Range
}

// DefaultLimits are typical light-aircraft deflection limits.
func DefaultLimits() Limits {
	return Limits{
		Elevator:  Range{-25 * deg, 25 * deg},
		Aileron:   Range{-15 * deg, 15 * deg},
		Rudder:    Range{-20 * deg, 20 * deg},
		Flaps:     Range{0, 30 * deg},
		Gear:      Range{0, 1},
		Brakes:    Range{0, 1},
		Throttle:  Range{0, 1},
		Propeller: Range{0, 1},
		Mixture:   Range{0, 1},
	}
}

func (l Limits) surface(ch Channel) Range {
	switch ch {
	case Elevator:
		return l.Elevator
	case Aileron:
		return l.Aileron
	case Rudder:
		return l.Rudder
	case Flaps:
		return l.Flaps
	case Gear:
		return l.Gear
	default:
		return l.Brakes
	}
}

// Values is an immutable snapshot of all channels.
type Values struct {
	Elevator, Aileron, Rudder, Flaps, Gear, Brakes float64
	Throttle, Propeller, Mixture                   []float64
}

// Engines returns the number of engine lever sets in the snapshot.
func (v Values) Engines() int { return len(v.Throttle) }

// Vector flattens the snapshot as
// [elevator aileron rudder flaps gear brakes throttle... propeller... mixture...].
func (v Values) Vector() dynamo.Control {
	n := v.Engines()
	u := make(dynamo.Control, int(numSurfaceChannels)+3*n)
	u[Elevator], u[Aileron], u[Rudder] = v.Elevator, v.Aileron, v.Rudder
	u[Flaps], u[Gear], u[Brakes] = v.Flaps, v.Gear, v.Brakes
	base := int(numSurfaceChannels)
	copy(u[base:], v.Throttle)
	copy(u[base+n:], v.Propeller)
	copy(u[base+2*n:], v.Mixture)
	return u
}

// FromVector is the inverse of Values.Vector.
func FromVector(u dynamo.Control) (Values, error) {
	base := int(numSurfaceChannels)
	if len(u) < base || (len(u)-base)%3 != 0 {
		return Values{}, fmt.Errorf("%w: control vector of length %d", dynamo.ErrDimensionMismatch, len(u))
	}
	n := (len(u) - base) / 3
	v := Values{
		Elevator: u[Elevator], Aileron: u[Aileron], Rudder: u[Rudder],
		Flaps: u[Flaps], Gear: u[Gear], Brakes: u[Brakes],
		Throttle:  append([]float64(nil), u[base:base+n]...),
		Propeller: append([]float64(nil), u[base+n:base+2*n]...),
		Mixture:   append([]float64(nil), u[base+2*n:base+3*n]...),
	}
	return v, nil
}

// VectorDim is the flattened control dimension for n engines.
func VectorDim(engines int) int {
	return int(numSurfaceChannels) + 3*engines
}

type word struct{ bits atomic.Uint64 }

func (w *word) load() float64   { return math.Float64frombits(w.bits.Load()) }
func (w *word) store(v float64) { w.bits.Store(math.Float64bits(v)) }

// State is the shared, concurrently written control state.
type State struct {
	limits    Limits
	surfaces  [numSurfaceChannels]word
	throttle  []word
	propeller []word
	mixture   []word
}

// New returns a control state for the given engine count with surfaces
// centred, gear down, throttle idle and propeller/mixture full forward.
func New(engines int, limits Limits) *State {
	s := &State{
		limits:    limits,
		throttle:  make([]word, engines),
		propeller: make([]word, engines),
		mixture:   make([]word, engines),
	}
	s.Set(Gear, 1)
	for i := 0; i < engines; i++ {
		s.SetThrottle(i, 0)
		s.SetPropeller(i, 1)
		s.SetMixture(i, 1)
	}
	return s
}

func (s *State) Limits() Limits { return s.limits }

func (s *State) Engines() int { return len(s.throttle) }

// Set stores a surface channel value clamped to its range and returns the
// stored value.
func (s *State) Set(ch Channel, v float64) float64 {
	if ch < 0 || ch >= numSurfaceChannels {
		return 0
	}
	v = s.limits.surface(ch).Clamp(v)
	s.surfaces[ch].store(v)
	return v
}

// Nudge adds delta to a surface channel.
func (s *State) Nudge(ch Channel, delta float64) float64 {
	return s.Set(ch, s.Get(ch)+delta)
}

func (s *State) Get(ch Channel) float64 {
	if ch < 0 || ch >= numSurfaceChannels {
		return 0
	}
	return s.surfaces[ch].load()
}

func (s *State) SetThrottle(engine int, v float64) float64 {
	return setEngine(s.throttle, engine, s.limits.Throttle.Clamp(v))
}

func (s *State) SetPropeller(engine int, v float64) float64 {
	return setEngine(s.propeller, engine, s.limits.Propeller.Clamp(v))
}

func (s *State) SetMixture(engine int, v float64) float64 {
	return setEngine(s.mixture, engine, s.limits.Mixture.Clamp(v))
}

// SetAllThrottles moves every throttle lever together.
func (s *State) SetAllThrottles(v float64) {
	for i := range s.throttle {
		s.SetThrottle(i, v)
	}
}

func setEngine(words []word, engine int, v float64) float64 {
	if engine < 0 || engine >= len(words) {
		return 0
	}
	words[engine].store(v)
	return v
}

// Snapshot reads every channel once.
func (s *State) Snapshot() Values {
	n := len(s.throttle)
	v := Values{
		Elevator:  s.surfaces[Elevator].load(),
		Aileron:   s.surfaces[Aileron].load(),
		Rudder:    s.surfaces[Rudder].load(),
		Flaps:     s.surfaces[Flaps].load(),
		Gear:      s.surfaces[Gear].load(),
		Brakes:    s.surfaces[Brakes].load(),
		Throttle:  make([]float64, n),
		Propeller: make([]float64, n),
		Mixture:   make([]float64, n),
	}
	for i := 0; i < n; i++ {
		v.Throttle[i] = s.throttle[i].load()
		v.Propeller[i] = s.propeller[i].load()
		v.Mixture[i] = s.mixture[i].load()
	}
	return v
}

// Apply writes a whole snapshot, clamping each channel. Engines beyond the
// state's engine count are ignored.
func (s *State) Apply(v Values) {
	s.Set(Elevator, v.Elevator)
	s.Set(Aileron, v.Aileron)
	s.Set(Rudder, v.Rudder)
	s.Set(Flaps, v.Flaps)
	s.Set(Gear, v.Gear)
	s.Set(Brakes, v.Brakes)
	for i := range s.throttle {
		if i < len(v.Throttle) {
			s.SetThrottle(i, v.Throttle[i])
		}
		if i < len(v.Propeller) {
			s.SetPropeller(i, v.Propeller[i])
		}
		if i < len(v.Mixture) {
			s.SetMixture(i, v.Mixture[i])
		}
	}
}
