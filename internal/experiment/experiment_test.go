package experiment

import (
	"context"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/flightdyn/internal/config"
	"github.com/san-kum/flightdyn/internal/dynamo"
	"github.com/san-kum/flightdyn/internal/log"
	"github.com/san-kum/flightdyn/internal/sim"
)

func shortFlight() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Integrator.Dt = 0.05
	cfg.Integrator.EndTime = 5
	return cfg
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if got := strings.Join(r.ListAircraft(), ","); got != "trainer,twin" {
		t.Errorf("aircraft = %s", got)
	}
	if got := strings.Join(r.ListIntegrators(), ","); got != "euler,rk4" {
		t.Errorf("integrators = %s", got)
	}
	if _, err := r.GetIntegrator("verlet"); err == nil {
		t.Error("expected error for unknown integrator")
	}

	a, _ := r.GetAircraft("trainer", nil)
	b, _ := r.GetAircraft("trainer", nil)
	if a == b {
		t.Error("registry should hand out fresh aircraft")
	}
}

func TestRunTrimmedTrainer(t *testing.T) {
	exp := New(shortFlight(), NewRegistry(), log.NewWithHandler(log.NewRecorder()))
	if err := exp.Setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if alpha := exp.Trim().Alpha * 180 / math.Pi; math.Abs(alpha-3.04) > 0.05 {
		t.Errorf("trim alpha = %.3f deg", alpha)
	}

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.Records) != 101 {
		t.Fatalf("expected 101 records, got %d", len(res.Records))
	}
	for _, name := range []string{"peak_load_factor", "vertical_speed_rms", "envelope", "control_effort"} {
		if _, ok := res.Metrics[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
	if res.Metrics["vertical_speed_rms"] > 1 {
		t.Errorf("trimmed flight should hold altitude, vs rms %v", res.Metrics["vertical_speed_rms"])
	}
	last := res.Records[len(res.Records)-1]
	if math.Abs(last.Get(sim.Altitude)-config.DefaultAltitude) > 5 {
		t.Errorf("altitude drifted to %v", last.Get(sim.Altitude))
	}
}

func TestAutopilotLevelsWings(t *testing.T) {
	cfg := shortFlight()
	cfg.Autopilot.AltitudeHold = true
	cfg.Autopilot.HeadingHold = true
	exp := New(cfg, NewRegistry(), nil).WithInitialState(func(x dynamo.State) {
		x[dynamo.Phi] = 0.2
	})
	if err := exp.Setup(); err != nil {
		t.Fatal(err)
	}

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	last := res.Records[len(res.Records)-1]
	if phi := last.Get(sim.OutPhi); math.Abs(phi) >= 0.2 {
		t.Errorf("heading hold should roll out of the bank, phi = %v", phi)
	}
	if math.Abs(last.Get(sim.Altitude)-config.DefaultAltitude) > 10 {
		t.Errorf("altitude drifted to %v", last.Get(sim.Altitude))
	}
}

func TestRunTwin(t *testing.T) {
	cfg := shortFlight()
	cfg.Aircraft = "twin"
	cfg.Trim.Airspeed = 60
	exp := New(cfg, NewRegistry(), log.NewWithHandler(log.NewRecorder()))
	if err := exp.Setup(); err != nil {
		t.Fatal(err)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Engines != 2 || res.Records[0].Engines() != 2 {
		t.Errorf("expected two engines in output")
	}
	if res.Trim.Throttle[0] != res.Trim.Throttle[1] {
		t.Error("symmetric twin should trim to equal throttles")
	}
}

func TestSetupFiles(t *testing.T) {
	dir := t.TempDir()
	icPath := filepath.Join(dir, "ic.txt")
	ic := "u=45\nv=0\nw=0\np=0\nq=0\nr=0\nphi=0\ntheta=0\npsi=0\nnorth=0\neast=0\naltitude=900\nlat=10\nlon=20\n"
	if err := os.WriteFile(icPath, []byte(ic), 0644); err != nil {
		t.Fatal(err)
	}

	rec := log.NewRecorder()
	cfg := shortFlight()
	cfg.Files.InitialConditions = icPath
	cfg.Files.Aircraft = filepath.Join(dir, "missing.txt")
	exp := New(cfg, NewRegistry(), log.NewWithHandler(rec))
	if err := exp.Setup(); err != nil {
		t.Fatal(err)
	}

	x0 := exp.Stepper().InitialState()
	if x0[dynamo.U] != 45 || x0.Altitude() != 900 {
		t.Errorf("initial-condition file ignored: %v", x0)
	}
	if exp.Spec().Name != "trainer" {
		t.Errorf("missing aircraft file should fall back to trainer, got %s", exp.Spec().Name)
	}
	if rec.Count(slog.LevelWarn) != 1 {
		t.Errorf("expected one warning, got %v", rec.Messages(slog.LevelWarn))
	}
}

func TestSetupErrors(t *testing.T) {
	cfg := shortFlight()
	cfg.Integrator.Method = "verlet"
	if err := New(cfg, NewRegistry(), nil).Setup(); err == nil {
		t.Error("expected unknown integrator error")
	}

	if _, err := New(shortFlight(), NewRegistry(), nil).Run(context.Background()); err == nil {
		t.Error("Run before Setup should fail")
	}
}
