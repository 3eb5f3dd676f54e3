package sim

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"testing"

	"github.com/san-kum/flightdyn/internal/aircraft"
	"github.com/san-kum/flightdyn/internal/dynamo"
	"github.com/san-kum/flightdyn/internal/log"
)

func TestTrimmedFlightHoldsAltitude(t *testing.T) {
	f := trimmedTrainer(t)
	if f.trim.Elevator < f.spec.Limits.Elevator.Min || f.trim.Elevator > f.spec.Limits.Elevator.Max {
		t.Fatalf("elevator %v outside limits", f.trim.Elevator)
	}
	if deg := f.trim.Theta * 180 / math.Pi; deg < 0 || deg > 10 {
		t.Fatalf("theta %v deg outside [0, 10]", deg)
	}

	s := f.stepper(t, Options{Dt: 0.05, EndTime: 5}, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	recs := s.OutputLog()
	if len(recs) != 101 {
		t.Fatalf("expected initial record plus 100 ticks, got %d", len(recs))
	}
	for _, r := range recs {
		if vs := r.Get(VerticalSpeed); math.Abs(vs) > 1 {
			t.Fatalf("vertical speed %v m/s at t=%v", vs, r.Time())
		}
	}
	last := recs[len(recs)-1]
	if math.Abs(last.Time()-5) > 1e-9 {
		t.Errorf("final time %v", last.Time())
	}
	if math.Abs(last.Get(Altitude)-1500) > 5 {
		t.Errorf("altitude drifted to %v", last.Get(Altitude))
	}
	if math.Abs(last.Get(LoadFactor)-1) > 0.1 {
		t.Errorf("load factor %v in level flight", last.Get(LoadFactor))
	}
}

func TestTrimmedTwinHoldsAltitude(t *testing.T) {
	// the twin's aerodynamic centre sits aft of the CG
	for _, v := range []float64{45, 60, 80} {
		t.Run(fmt.Sprintf("%.0f m/s", v), func(t *testing.T) {
			f := trimmed(t, aircraft.Twin(), v)
			if f.trim.Singular || f.trim.Clamped {
				t.Fatalf("twin did not trim at %v m/s: %+v", v, f.trim)
			}

			s := f.stepper(t, Options{Dt: 0.05, EndTime: 5}, nil)
			if err := s.Run(context.Background()); err != nil {
				t.Fatal(err)
			}
			for _, r := range s.OutputLog() {
				if vs := r.Get(VerticalSpeed); math.Abs(vs) > 1 {
					t.Fatalf("vertical speed %v m/s at t=%v", vs, r.Time())
				}
			}
		})
	}
}

type nanIntegrator struct{ after int }

func (n *nanIntegrator) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	next := x.Clone()
	n.after--
	if n.after < 0 {
		next[dynamo.Q] = math.NaN()
	}
	return next
}

func TestStateCorruptionIsFatal(t *testing.T) {
	f := trimmedTrainer(t)
	rec := log.NewRecorder()
	s, err := NewStepper(f.flight, &nanIntegrator{after: 3}, f.controls, f.x0, Options{Dt: 0.01, EndTime: 1}, log.NewWithHandler(rec))
	if err != nil {
		t.Fatal(err)
	}

	err = s.Run(context.Background())
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) || simErr.Step != 4 {
		t.Errorf("expected failure on step 4, got %v", err)
	}
	if s.Running() || s.Phase() != Idle {
		t.Error("stepper should halt after corruption")
	}
	if n := len(s.OutputLog()); n != 4 {
		t.Errorf("corrupt state must not be published: %d records", n)
	}
	if rec.Count(slog.LevelError) != 1 {
		t.Errorf("expected one error log, got %d", rec.Count(slog.LevelError))
	}
}

func TestStartTwiceWarns(t *testing.T) {
	f := trimmedTrainer(t)
	rec := log.NewRecorder()
	s := f.stepper(t, Options{Dt: 0.01, Unlimited: true}, log.NewWithHandler(rec))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if !s.Start(ctx) {
		t.Fatal("first start failed")
	}
	if s.Start(ctx) {
		t.Error("second start should be rejected")
	}
	if rec.Count(slog.LevelWarn) != 1 {
		t.Errorf("expected one warning, got %d", rec.Count(slog.LevelWarn))
	}
	if !s.ClearOutputLog() {
		t.Error("ClearOutputLog should succeed while running")
	}
	cancel()
	if err := s.Wait(); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait = %v, want context.Canceled", err)
	}
	if s.ClearOutputLog() {
		t.Error("ClearOutputLog should fail once stopped")
	}
}

func TestNewStepperValidates(t *testing.T) {
	f := trimmedTrainer(t)
	tests := []struct {
		name string
		opts Options
		x0   dynamo.State
	}{
		{"zero dt", Options{EndTime: 1}, f.x0},
		{"end before start", Options{Dt: 0.01, StartTime: 2, EndTime: 1}, f.x0},
		{"short state", Options{Dt: 0.01, EndTime: 1}, dynamo.State{1, 2}},
		{"NaN state", Options{Dt: 0.01, EndTime: 1}, append(f.x0.Clone()[:11], math.NaN())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewStepper(f.flight, nil, f.controls, tt.x0, tt.opts, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteCSV(t *testing.T) {
	f := trimmedTrainer(t)
	s := f.stepper(t, Options{Dt: 0.05, EndTime: 0.2, Geo: GeoRef{Lat0: 47.5, Lon0: 8.5}}, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, s.OutputLog(), 1); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 6 {
		t.Fatalf("expected header plus 5 rows, got %d", len(rows))
	}
	header := rows[0]
	if header[0] != "TIME" || header[len(header)-2] != "THROTTLE_1" || header[len(header)-1] != "RPM_1" {
		t.Errorf("unexpected header %v", header)
	}
	for _, row := range rows[1:] {
		if len(row) != len(header) {
			t.Errorf("row has %d fields, header %d", len(row), len(header))
		}
	}

	last := s.OutputLog()[4]
	if last.Get(Latitude) <= 47.5 || math.Abs(last.Get(Longitude)-8.5) > 1e-9 {
		t.Errorf("flying north should raise latitude only: %v %v", last.Get(Latitude), last.Get(Longitude))
	}
	if last.Engines() != 1 || last.Throttle(0) != f.trim.Throttle[0] || last.RPM(0) <= 0 {
		t.Errorf("engine columns: throttle %v rpm %v", last.Throttle(0), last.RPM(0))
	}
}

func TestQuantityNames(t *testing.T) {
	if Time.String() != "TIME" || Gear.String() != "GEAR" || VerticalSpeed.String() != "VERTICAL_SPEED" {
		t.Error("unexpected quantity names")
	}
	q, ok := ParseQuantity("ALPHA_DOT")
	if !ok || q != AlphaDot {
		t.Errorf("ParseQuantity(ALPHA_DOT) = %v, %v", q, ok)
	}
	if got := len(Columns(2)); got != int(numFixed)+4 {
		t.Errorf("Columns(2) has %d entries", got)
	}
}
