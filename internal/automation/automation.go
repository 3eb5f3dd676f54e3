package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/flightdyn/internal/config"
	"github.com/san-kum/flightdyn/internal/dynamo"
	"github.com/san-kum/flightdyn/internal/experiment"
	"github.com/san-kum/flightdyn/internal/log"
	"github.com/san-kum/flightdyn/internal/storage"
	"github.com/san-kum/flightdyn/internal/trim"
)

// Scenario defines a scripted sequence of flights
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep overrides a preset (or the default config) for one flight.
// Zero values keep the base setting.
type ScenarioStep struct {
	Preset            string  `yaml:"preset"`
	Aircraft          string  `yaml:"aircraft"`
	Integrator        string  `yaml:"integrator"`
	Airspeed          float64 `yaml:"airspeed"`
	Altitude          float64 `yaml:"altitude"`
	Heading           float64 `yaml:"heading"`
	Dt                float64 `yaml:"dt"`
	EndTime           float64 `yaml:"end_time"`
	InitialConditions string  `yaml:"initial_conditions"`
	InitialControls   string  `yaml:"initial_controls"`
	SaveAs            string  `yaml:"save_as"`
}

// Config returns the flight config for this step.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		if cfg = config.GetPreset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	setString(&cfg.Aircraft, s.Aircraft)
	setString(&cfg.Integrator.Method, s.Integrator)
	setString(&cfg.Files.InitialConditions, s.InitialConditions)
	setString(&cfg.Files.InitialControls, s.InitialControls)
	setFloat(&cfg.Trim.Airspeed, s.Airspeed)
	setFloat(&cfg.Trim.Altitude, s.Altitude)
	setFloat(&cfg.Trim.Heading, s.Heading)
	setFloat(&cfg.Integrator.Dt, s.Dt)
	setFloat(&cfg.Integrator.EndTime, s.EndTime)
	return cfg, cfg.Validate()
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

type StepResult struct {
	Config *config.Config
	Result *experiment.Result
	RunID  string
}

// RunScenario flies every step in order. Steps with save_as are persisted
// to store when it is non-nil.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, store *storage.Store, logger *log.Logger) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "aircraft", cfg.Aircraft)

		exp := experiment.New(cfg, registry, logger)
		if err := exp.Setup(); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Config: cfg, Result: result}
		if step.SaveAs != "" && store != nil {
			sr.RunID, err = store.Save(Metadata(step.SaveAs, cfg, result), result.Records)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// Metadata describes a finished run for storage.
func Metadata(id string, cfg *config.Config, res *experiment.Result) storage.RunMetadata {
	meta := storage.RunMetadata{
		ID:         id,
		Aircraft:   cfg.Aircraft,
		Integrator: cfg.Integrator.Method,
		Dt:         cfg.Integrator.Dt,
		StartTime:  cfg.Integrator.StartTime,
		EndTime:    cfg.Integrator.EndTime,
		Engines:    res.Engines,
		Metrics:    res.Metrics,
		Trim: &storage.TrimSummary{
			Airspeed: res.Trim.Airspeed,
			Altitude: res.Trim.Altitude,
			Alpha:    res.Trim.Alpha,
			Elevator: res.Trim.Elevator,
			Throttle: res.Trim.Throttle,
		},
	}
	if res.Err != nil {
		meta.Error = res.Err.Error()
	}
	return meta
}

// TrimSweep trims one aircraft across an airspeed range.
type TrimSweep struct {
	Aircraft    string
	Altitude    float64
	MinAirspeed float64
	MaxAirspeed float64
	NumSteps    int
	// Workers bounds concurrent solves; 0 means one per step.
	Workers int
}

// RunTrimSweep solves every airspeed concurrently. Results are ordered by
// airspeed.
func RunTrimSweep(ctx context.Context, sweep *TrimSweep, registry *experiment.Registry, logger *log.Logger) ([]trim.Result, error) {
	if sweep.NumSteps < 1 || sweep.MinAirspeed <= 0 || sweep.MaxAirspeed < sweep.MinAirspeed {
		return nil, fmt.Errorf("%w: sweep %.1f..%.1f m/s in %d steps", dynamo.ErrParameterBounds, sweep.MinAirspeed, sweep.MaxAirspeed, sweep.NumSteps)
	}

	step := 0.0
	if sweep.NumSteps > 1 {
		step = (sweep.MaxAirspeed - sweep.MinAirspeed) / float64(sweep.NumSteps-1)
	}

	results := make([]trim.Result, sweep.NumSteps)
	g, ctx := errgroup.WithContext(ctx)
	if sweep.Workers > 0 {
		g.SetLimit(sweep.Workers)
	}
	for i := 0; i < sweep.NumSteps; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			spec, err := registry.GetAircraft(sweep.Aircraft, logger)
			if err != nil {
				return err
			}
			res, err := trim.NewSolver(spec, logger).Solve(trim.Condition{
				Airspeed: sweep.MinAirspeed + float64(i)*step,
				Altitude: sweep.Altitude,
				Gear:     1,
			})
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloConfig perturbs the trimmed initial body rates and attitude.
type MonteCarloConfig struct {
	Base *config.Config
	// Perturbation is the largest rate (rad/s) and angle (rad) offset.
	Perturbation float64
	NumTrials    int
	Workers      int
	Seed         int64
}

// MonteCarloResult holds the outcome of one perturbed flight
type MonteCarloResult struct {
	TrialID    int
	InitState  dynamo.State
	FinalState dynamo.State
	PeakLoad   float64
	// Stable is false when the run diverged or left the bank/pitch envelope.
	Stable bool
}

// RunMonteCarlo flies NumTrials perturbed copies of the base flight
// concurrently.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry, logger *log.Logger) ([]MonteCarloResult, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	offsets := make([][]float64, cfg.NumTrials)
	for i := range offsets {
		o := make([]float64, 5)
		for j := range o {
			o[j] = (rng.Float64() - 0.5) * 2 * cfg.Perturbation
		}
		offsets[i] = o
	}

	results := make([]MonteCarloResult, cfg.NumTrials)
	g, ctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for trial := 0; trial < cfg.NumTrials; trial++ {
		g.Go(func() error {
			res, err := runTrial(ctx, cfg.Base, offsets[trial], registry, logger)
			if err != nil {
				return fmt.Errorf("trial %d: %w", trial, err)
			}
			res.TrialID = trial
			results[trial] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runTrial(ctx context.Context, base *config.Config, offset []float64, registry *experiment.Registry, logger *log.Logger) (MonteCarloResult, error) {
	cfg := *base
	res := MonteCarloResult{Stable: true}
	exp := experiment.New(&cfg, registry, logger).WithInitialState(func(x dynamo.State) {
		x[dynamo.P] += offset[0]
		x[dynamo.Q] += offset[1]
		x[dynamo.R] += offset[2]
		x[dynamo.Phi] += offset[3]
		x[dynamo.Theta] += offset[4]
	})
	if err := exp.Setup(); err != nil {
		return res, err
	}
	res.InitState = exp.Stepper().InitialState()

	out, err := exp.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return res, err
		}
		res.Stable = false
	}
	if n := len(out.Records); n > 0 {
		res.FinalState = out.Records[n-1].State
	}
	res.PeakLoad = out.Metrics["peak_load_factor"]
	if out.Metrics["envelope"] < 1 {
		res.Stable = false
	}
	return res, nil
}

// MonteCarloStats summarizes trial outcomes.
func MonteCarloStats(results []MonteCarloResult) (stableCount, unstableCount int, medianPeakLoad float64) {
	loads := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
		if !math.IsNaN(r.PeakLoad) {
			loads = append(loads, r.PeakLoad)
		}
	}
	if len(loads) > 0 {
		sort.Float64s(loads)
		medianPeakLoad = loads[len(loads)/2]
	}
	return
}
