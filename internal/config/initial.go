package config

import (
	"fmt"
	"math"

	"github.com/san-kum/flightdyn/internal/controls"
	"github.com/san-kum/flightdyn/internal/dynamo"
	"github.com/san-kum/flightdyn/internal/log"
)

const deg = math.Pi / 180

// InitialConditionFields is the positional layout of an initial-condition
// file: body velocities (m/s), body rates (deg/s), Euler angles (deg),
// north/east (m), altitude (m, positive up), latitude and longitude (deg).
var InitialConditionFields = []string{
	"u", "v", "w", "p", "q", "r", "phi", "theta", "psi",
	"north", "east", "altitude", "latitude", "longitude",
}

type InitialConditions struct {
	State     dynamo.State
	Latitude  float64
	Longitude float64
}

// DefaultInitialConditions is straight flight at 50 m/s and 1500 m heading north.
func DefaultInitialConditions() InitialConditions {
	x := dynamo.NewState()
	x[dynamo.U] = DefaultAirspeed
	x[dynamo.Down] = -DefaultAltitude
	return InitialConditions{State: x}
}

// ReadInitialConditions parses an initial-condition file positionally. Keys
// are informational only. A missing, short or malformed file yields the
// defaults and a warning; ok reports whether the file was used.
func ReadInitialConditions(path string, logger *log.Logger) (ic InitialConditions, ok bool) {
	values, err := readFloats(path)
	if err == nil && len(values) < len(InitialConditionFields) {
		err = fmt.Errorf("%w: %d of %d values", ErrMalformed, len(values), len(InitialConditionFields))
	}
	if err != nil {
		logger.Warn("using default initial conditions", "path", path, "error", err)
		return DefaultInitialConditions(), false
	}

	x := dynamo.NewState()
	for i := dynamo.U; i <= dynamo.East; i++ {
		v := values[i]
		if i >= dynamo.P && i <= dynamo.Psi {
			v *= deg
		}
		x[i] = v
	}
	x[dynamo.Down] = -values[dynamo.Down]
	if len(values) > len(InitialConditionFields) {
		logger.Warn("ignoring extra initial-condition values", "path", path, "extra", len(values)-len(InitialConditionFields))
	}
	return InitialConditions{
		State:     x,
		Latitude:  values[12],
		Longitude: values[13],
	}, true
}

// ReadInitialControls parses an initial-control file laid out like
// controls.Values.Vector, with surface deflections in degrees. ok is false,
// with a warning, when the file is unusable for the given engine count.
func ReadInitialControls(path string, engines int, logger *log.Logger) (v controls.Values, ok bool) {
	values, err := readFloats(path)
	if err == nil && len(values) != controls.VectorDim(engines) {
		err = fmt.Errorf("%w: %d values, want %d", ErrMalformed, len(values), controls.VectorDim(engines))
	}
	if err == nil {
		for _, ch := range []controls.Channel{controls.Elevator, controls.Aileron, controls.Rudder, controls.Flaps} {
			values[ch] *= deg
		}
		v, err = controls.FromVector(values)
	}
	if err != nil {
		logger.Warn("ignoring initial controls file", "path", path, "error", err)
		return controls.Values{}, false
	}
	return v, true
}

func readFloats(path string) ([]float64, error) {
	m, err := ReadKeyValueFile(path)
	if err != nil {
		return nil, err
	}
	return Floats(m)
}
