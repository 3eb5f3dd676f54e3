package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/flightdyn/internal/aircraft"
	"github.com/san-kum/flightdyn/internal/dynamo"
	"github.com/san-kum/flightdyn/internal/integrators"
	"github.com/san-kum/flightdyn/internal/log"
	"github.com/san-kum/flightdyn/internal/metrics"
)

// envelopeLimit is the bank/pitch bound counted by the envelope metric.
const envelopeLimit = 60 * math.Pi / 180

type Registry struct {
	aircraft    map[string]func() *aircraft.Spec
	integrators map[string]func() (dynamo.Integrator, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		aircraft:    make(map[string]func() *aircraft.Spec),
		integrators: make(map[string]func() (dynamo.Integrator, error)),
	}

	r.aircraft["trainer"] = aircraft.Trainer
	r.aircraft["twin"] = aircraft.Twin

	for _, name := range integrators.Names() {
		r.integrators[name] = func() (dynamo.Integrator, error) { return integrators.New(name) }
	}
	return r
}

// RegisterAircraft adds or replaces a named aircraft.
func (r *Registry) RegisterAircraft(name string, fn func() *aircraft.Spec) {
	r.aircraft[name] = fn
}

// GetAircraft returns a registered aircraft by name, or loads nameOrPath as
// an aircraft file. Unreadable files fall back to the trainer.
func (r *Registry) GetAircraft(nameOrPath string, logger *log.Logger) (*aircraft.Spec, error) {
	if fn, ok := r.aircraft[nameOrPath]; ok {
		return fn(), nil
	}
	return aircraft.Resolve(nameOrPath, logger)
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn()
}

func (r *Registry) ListAircraft() []string {
	return sortedKeys(r.aircraft)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func (r *Registry) DefaultMetrics(dyn dynamo.System) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewPeakLoadFactor(dyn),
		metrics.NewVerticalSpeedDeviation(),
		metrics.NewEnvelope(envelopeLimit),
		metrics.NewControlEffort(),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
