package optim

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/flightdyn/internal/aircraft"
	"github.com/san-kum/flightdyn/internal/log"
	"github.com/san-kum/flightdyn/internal/trim"
)

var errNotTrimmable = errors.New("optim: condition does not trim")

// Trim objectives over the "airspeed" parameter. Drag is minimal at the
// best glide (and, for props, best range) speed; drag times airspeed is
// minimal at the best endurance speed.
var trimObjectives = map[string]func(trim.Result) float64{
	"drag":     func(r trim.Result) float64 { return r.Drag },
	"power":    func(r trim.Result) float64 { return r.Drag * r.Airspeed },
	"throttle": func(r trim.Result) float64 { return r.Throttle[0] },
}

func ObjectiveNames() []string {
	names := make([]string, 0, len(trimObjectives))
	for n := range trimObjectives {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TrimObjective trims spec at the given altitude for each candidate
// airspeed and scores the result. Singular or clamped trims are skipped.
func TrimObjective(spec *aircraft.Spec, altitude float64, name string, logger *log.Logger) (Objective, error) {
	score, ok := trimObjectives[name]
	if !ok {
		return nil, fmt.Errorf("unknown objective: %s (available: %v)", name, ObjectiveNames())
	}
	solver := trim.NewSolver(spec, logger)
	return func(_ context.Context, params map[string]float64) (float64, error) {
		r, err := solver.Solve(trim.Condition{Airspeed: params["airspeed"], Altitude: altitude, Gear: 1})
		if err != nil {
			return 0, err
		}
		if r.Singular || r.Clamped {
			return 0, errNotTrimmable
		}
		return score(r), nil
	}, nil
}
