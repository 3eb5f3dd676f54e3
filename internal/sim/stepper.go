package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/brunoga/deep"

	"github.com/san-kum/flightdyn/internal/controls"
	"github.com/san-kum/flightdyn/internal/dynamo"
	"github.com/san-kum/flightdyn/internal/frames"
	"github.com/san-kum/flightdyn/internal/log"
	"github.com/san-kum/flightdyn/internal/metrics"
)

var ErrAlreadyRunning = errors.New("sim: stepper already running")

type Options struct {
	StartTime float64
	Dt        float64
	EndTime   float64
	// Unlimited ignores EndTime and bounds the output log by Retention.
	Unlimited bool
	Retention float64 // seconds

	// Realtime paces ticks at TickHz; otherwise the loop runs as fast as
	// it can.
	Realtime bool
	TickHz   float64

	Geo GeoRef
}

func (o Options) validate() error {
	switch {
	case o.Dt <= 0:
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrParameterBounds, o.Dt)
	case !o.Unlimited && o.EndTime <= o.StartTime:
		return fmt.Errorf("%w: end time %g not after start time %g", dynamo.ErrParameterBounds, o.EndTime, o.StartTime)
	case o.Realtime && o.TickHz < 0:
		return fmt.Errorf("%w: tick rate must be positive, got %g", dynamo.ErrParameterBounds, o.TickHz)
	}
	return nil
}

// Stepper drives a Flight forward one fixed step per tick on its own
// goroutine. Control-plane calls may come from any goroutine and take
// effect at the next tick boundary.
type Stepper struct {
	flight   *Flight
	integ    dynamo.Integrator
	controls *controls.State
	opts     Options
	logger   *log.Logger

	initial         dynamo.State
	initialControls controls.Values

	rc   RunControl
	out  *OutputLog
	wake chan struct{}

	mu     sync.Mutex
	active bool
	done   chan struct{}
	err    error

	// loop-owned
	x         dynamo.State
	t         float64
	steps     int
	alphaDot  float64
	published bool
	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

// NewStepper captures x0 and the current control positions as the state
// Reset returns to.
func NewStepper(flight *Flight, integ dynamo.Integrator, ctl *controls.State, x0 dynamo.State, opts Options, logger *log.Logger) (*Stepper, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(x0) != dynamo.StateDim {
		return nil, fmt.Errorf("%w: initial state has %d elements", dynamo.ErrDimensionMismatch, len(x0))
	}
	if ctl.Engines() != len(flight.Spec().Engines) {
		return nil, fmt.Errorf("%w: %d engine levers for %d engines", dynamo.ErrDimensionMismatch, ctl.Engines(), len(flight.Spec().Engines))
	}
	if !x0.IsValid() {
		return nil, fmt.Errorf("initial state: %w", dynamo.ErrInvalidState)
	}
	if opts.Realtime && opts.TickHz == 0 {
		opts.TickHz = 1 / opts.Dt
	}
	retention := 0.0
	if opts.Unlimited {
		retention = opts.Retention
	}
	s := &Stepper{
		flight:          flight,
		integ:           integ,
		controls:        ctl,
		opts:            opts,
		logger:          logger.With("component", "stepper"),
		initial:         x0.Clone(),
		initialControls: ctl.Snapshot(),
		out:             NewOutputLog(retention),
		wake:            make(chan struct{}, 1),
		x:               x0.Clone(),
		t:               opts.StartTime,
	}
	return s, nil
}

func (s *Stepper) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Stepper) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Stepper) Flight() *Flight            { return s.flight }
func (s *Stepper) Controls() *controls.State  { return s.controls }
func (s *Stepper) Options() Options           { return s.opts }
func (s *Stepper) Phase() Phase               { return s.rc.Phase() }
func (s *Stepper) Latest() (Record, bool)     { return s.out.Latest() }
func (s *Stepper) OutputLog() []Record        { return s.out.Snapshot() }
func (s *Stepper) InitialState() dynamo.State { return s.initial.Clone() }

// Metrics returns the current value of every registered metric. Call it
// after Wait.
func (s *Stepper) Metrics() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Running reports whether the loop goroutine is alive.
func (s *Stepper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Start launches the loop, or resumes stepping after a reset. Starting a
// stepper that is already stepping or paused only logs a warning.
func (s *Stepper) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		if !s.rc.stopRequested() && s.rc.Start() {
			s.notify()
			return true
		}
		s.logger.Warn("start ignored", "phase", s.rc.Phase(), "error", ErrAlreadyRunning)
		return false
	}
	if !s.rc.Start() {
		s.logger.Warn("start ignored", "phase", s.rc.Phase())
		return false
	}
	if !s.published {
		s.publish(s.controls.Snapshot())
		s.published = true
	}
	s.active = true
	s.err = nil
	s.done = make(chan struct{})
	s.logger.Info("stepper started", "t", s.t, "dt", s.opts.Dt, "realtime", s.opts.Realtime, "unlimited", s.opts.Unlimited)
	go s.loop(ctx, s.done)
	return true
}

// Stop ends the run at the next tick boundary.
func (s *Stepper) Stop() {
	if !s.Running() {
		return
	}
	s.rc.RequestStop()
	s.notify()
}

func (s *Stepper) Pause() bool {
	ok := s.rc.Pause()
	if !ok {
		s.logger.Warn("pause ignored", "phase", s.rc.Phase())
	}
	return ok
}

func (s *Stepper) Resume() bool {
	ok := s.rc.Resume()
	if ok {
		s.notify()
	} else {
		s.logger.Warn("resume ignored", "phase", s.rc.Phase())
	}
	return ok
}

// Reset restores the initial state and controls. It is accepted only
// while paused and leaves the stepper Idle until the next Start.
func (s *Stepper) Reset() bool {
	ok := s.rc.Reset()
	if ok {
		s.notify()
	} else {
		s.logger.Warn("reset ignored", "phase", s.rc.Phase())
	}
	return ok
}

// ClearOutputLog empties the log. It fails when the stepper is not running.
func (s *Stepper) ClearOutputLog() bool {
	if !s.Running() {
		return false
	}
	s.out.Clear()
	return true
}

// Wait blocks until the loop exits and returns the error that ended it:
// nil after Stop or end time, a *dynamo.SimulationError on state
// corruption, or the context error.
func (s *Stepper) Wait() error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
	return s.Err()
}

func (s *Stepper) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Run starts the stepper and waits for it to finish.
func (s *Stepper) Run(ctx context.Context) error {
	if !s.Start(ctx) {
		return ErrAlreadyRunning
	}
	return s.Wait()
}

func (s *Stepper) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Stepper) loop(ctx context.Context, done chan struct{}) {
	var err error
	defer func() {
		s.mu.Lock()
		s.rc.finish()
		s.active = false
		s.err = err
		s.mu.Unlock()
		close(done)
	}()

	var tick <-chan time.Time
	period := time.Duration(0)
	if s.opts.Realtime {
		period = time.Duration(float64(time.Second) / s.opts.TickHz)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if s.rc.stopRequested() {
			s.logger.Info("stepper stopped", "t", s.t, "steps", s.steps)
			return
		}
		if s.rc.takeReset() {
			s.restore()
		}

		if s.rc.Phase() != Stepping {
			select {
			case <-ctx.Done():
				err = ctx.Err()
				return
			case <-s.wake:
			}
			continue
		}

		if s.finished() {
			s.logger.Info("end time reached", "t", s.t, "steps", s.steps)
			return
		}
		started := time.Now()
		if _, err = s.step(); err != nil {
			return
		}

		if tick == nil {
			select {
			case <-ctx.Done():
				err = ctx.Err()
				return
			default:
			}
			continue
		}
		if time.Since(started) > period {
			metrics.TickOverruns.Inc()
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case <-tick:
		case <-s.wake:
		}
	}
}

func (s *Stepper) finished() bool {
	return !s.opts.Unlimited && s.t >= s.opts.EndTime-s.opts.Dt/2
}

func (s *Stepper) step() (Record, error) {
	started := time.Now()
	vals := s.controls.Snapshot()
	u := vals.Vector()

	s.flight.SetAlphaDot(s.alphaDot)
	next := s.integ.Step(s.flight, s.x, u, s.t, s.opts.Dt)
	t := s.opts.StartTime + float64(s.steps+1)*s.opts.Dt
	if !next.IsValid() {
		metrics.StateCorruptions.Inc()
		err := &dynamo.SimulationError{Step: s.steps + 1, Time: t, State: next, Wrapped: dynamo.ErrInvalidState}
		s.logger.Error("state corrupted, halting run", "step", err.Step, "t", t, "error", err)
		return Record{}, err
	}

	s.x = next
	s.t = t
	s.steps++
	ev := s.flight.Evaluate(s.x, vals)
	s.alphaDot = frames.AlphaDot(s.x[dynamo.U], s.x[dynamo.W], ev.Deriv[dynamo.U], ev.Deriv[dynamo.W])

	rec := newRecord(s.t, s.x, vals, ev, s.opts.Geo)
	s.out.Append(rec)
	for _, m := range s.metrics {
		m.Observe(s.x, u, s.t)
	}
	for _, o := range s.observers {
		o.OnStep(s.x, u, s.t)
	}

	metrics.Ticks.Inc()
	metrics.TickDuration.Observe(time.Since(started).Seconds())
	return rec, nil
}

func (s *Stepper) publish(vals controls.Values) {
	s.flight.SetAlphaDot(s.alphaDot)
	ev := s.flight.Evaluate(s.x, vals)
	s.out.Append(newRecord(s.t, s.x, vals, ev, s.opts.Geo))
}

func (s *Stepper) restore() {
	s.x = s.initial.Clone()
	s.t = s.opts.StartTime
	s.steps = 0
	s.alphaDot = 0
	s.controls.Apply(deep.MustCopy(s.initialControls))
	for _, m := range s.metrics {
		m.Reset()
	}
	for _, o := range s.observers {
		if r, ok := o.(interface{ Reset() }); ok {
			r.Reset()
		}
	}
	s.out.Clear()
	s.publish(s.controls.Snapshot())
	s.logger.Info("reset to initial state")
}
