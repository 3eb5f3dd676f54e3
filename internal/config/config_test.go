package config

import (
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/flightdyn/internal/dynamo"
	"github.com/san-kum/flightdyn/internal/log"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Aircraft != "trainer" {
		t.Errorf("expected aircraft trainer, got %s", cfg.Aircraft)
	}
	if cfg.Integrator.Method != "rk4" {
		t.Errorf("expected rk4, got %s", cfg.Integrator.Method)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
	if cfg.Ticks() != 6000 {
		t.Errorf("expected 6000 ticks, got %d", cfg.Ticks())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Integrator.Dt = 0 }},
		{"end before start", func(c *Config) { c.Integrator.StartTime = 10; c.Integrator.EndTime = 5 }},
		{"realtime without rate", func(c *Config) { c.Integrator.Realtime = true; c.Integrator.TickHz = 0 }},
		{"negative airspeed", func(c *Config) { c.Trim.Airspeed = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Integrator.Unlimited = true
	cfg.Integrator.EndTime = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("unlimited flight ignores end time: %v", err)
	}
	if cfg.Ticks() != 0 {
		t.Error("unlimited flight has no tick count")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.yaml")
	cfg := DefaultConfig()
	cfg.Aircraft = "twin"
	cfg.Trim.Heading = 90
	cfg.Integrator.Realtime = true
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Aircraft != "twin" || got.Trim.Heading != 90 || !got.Integrator.Realtime {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.yaml")
	if err := os.WriteFile(path, []byte("trim:\n  airspeed: 42\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Trim.Airspeed != 42 {
		t.Errorf("airspeed = %v, want 42", cfg.Trim.Airspeed)
	}
	if cfg.Integrator.Dt != DefaultDt || cfg.Trim.Altitude != DefaultAltitude {
		t.Errorf("unset keys lost their defaults: dt %v altitude %v", cfg.Integrator.Dt, cfg.Trim.Altitude)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("approach")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Trim.Airspeed != 35 {
		t.Errorf("expected airspeed 35, got %v", cfg.Trim.Airspeed)
	}
	if cfg.Integrator.Method != "rk4" {
		t.Error("presets should start from the default config")
	}
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if strings.Join(names, ",") != "approach,climb,cruise,fast" {
		t.Errorf("unexpected presets %v", names)
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestReadKeyValues(t *testing.T) {
	m, err := ReadKeyValues(strings.NewReader("# comment\nb = 2\n\na=1\nb = 3\n"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(m.Keys(), ",") != "b,a" {
		t.Errorf("order not preserved: %v", m.Keys())
	}
	if v, ok, err := Float(m, "b"); !ok || err != nil || v != 3 {
		t.Errorf("b = %v %v %v", v, ok, err)
	}
	if _, ok, _ := Float(m, "missing"); ok {
		t.Error("missing key reported present")
	}

	if _, err := ReadKeyValues(strings.NewReader("novalue\n")); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadInitialConditions(t *testing.T) {
	rec := log.NewRecorder()
	logger := log.NewWithHandler(rec)

	body := "u=60\nv=0\nw=2\np=0\nq=0\nr=0\nphi=0\ntheta=2\npsi=90\nnorth=10\neast=20\naltitude=800\nlat=37.5\nlon=-122.25\n"
	ic, ok := ReadInitialConditions(writeFile(t, body), logger)
	if !ok {
		t.Fatal("expected file to be used")
	}
	if ic.State[dynamo.U] != 60 || ic.State[dynamo.Down] != -800 || ic.State[dynamo.East] != 20 {
		t.Errorf("unexpected state %v", ic.State)
	}
	if math.Abs(ic.State[dynamo.Psi]-math.Pi/2) > 1e-12 {
		t.Errorf("psi = %v, want pi/2", ic.State[dynamo.Psi])
	}
	if ic.Latitude != 37.5 || ic.Longitude != -122.25 {
		t.Errorf("lat/lon = %v/%v", ic.Latitude, ic.Longitude)
	}
	if rec.Count(slog.LevelWarn) != 0 {
		t.Error("unexpected warning")
	}

	for name, path := range map[string]string{
		"short":     writeFile(t, "u=60\nv=0\n"),
		"malformed": writeFile(t, strings.Replace(body, "w=2", "w=abc", 1)),
		"missing":   filepath.Join(t.TempDir(), "nope.txt"),
	} {
		t.Run(name, func(t *testing.T) {
			rec.Reset()
			ic, ok := ReadInitialConditions(path, logger)
			if ok {
				t.Error("expected fallback")
			}
			if ic.State[dynamo.U] != DefaultAirspeed || ic.State.Altitude() != DefaultAltitude {
				t.Errorf("fallback state %v", ic.State)
			}
			if rec.Count(slog.LevelWarn) != 1 {
				t.Errorf("expected one warning, got %d", rec.Count(slog.LevelWarn))
			}
		})
	}
}

func TestReadInitialControls(t *testing.T) {
	logger := log.NewWithHandler(log.NewRecorder())
	path := writeFile(t, "elevator=-2\naileron=0\nrudder=1\nflaps=10\ngear=1\nbrakes=0\nthrottle_1=0.6\npropeller_1=1\nmixture_1=0.9\n")

	v, ok := ReadInitialControls(path, 1, logger)
	if !ok {
		t.Fatal("expected controls file to be used")
	}
	if math.Abs(v.Elevator+2*deg) > 1e-12 || math.Abs(v.Flaps-10*deg) > 1e-12 {
		t.Errorf("surfaces not converted to radians: %+v", v)
	}
	if v.Throttle[0] != 0.6 || v.Mixture[0] != 0.9 {
		t.Errorf("engine levers %+v", v)
	}

	if _, ok := ReadInitialControls(path, 2, logger); ok {
		t.Error("two-engine read of a one-engine file should fall back")
	}
}
