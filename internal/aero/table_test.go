package aero

import (
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/interp"

	"github.com/san-kum/flightdyn/internal/log"
)

func deg(d float64) float64 { return d * (math.Pi / 180) }

func TestNewTableRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name     string
		angles   []float64
		controls []float64
		grid     [][]float64
		want     error
	}{
		{"non-monotonic angles", []float64{0, 0.2, 0.1}, []float64{0}, [][]float64{{1}, {2}, {3}}, ErrNonMonotonic},
		{"repeated control", []float64{0, 0.1}, []float64{0.1, 0.1}, [][]float64{{1, 1}, {2, 2}}, ErrNonMonotonic},
		{"missing row", []float64{0, 0.1}, []float64{0}, [][]float64{{1}}, ErrShapeMismatch},
		{"short row", []float64{0, 0.1}, []float64{0, 0.1}, [][]float64{{1, 2}, {3}}, ErrShapeMismatch},
		{"empty axis", nil, []float64{0}, nil, ErrShapeMismatch},
		{"NaN value", []float64{0, 0.1}, []float64{0}, [][]float64{{1}, {math.NaN()}}, ErrCorruptData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable("CL_alpha", tt.angles, tt.controls, tt.grid, nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var tbe *TableBuildError
			if !errors.As(err, &tbe) || tbe.Derivative != "CL_alpha" {
				t.Errorf("expected TableBuildError for CL_alpha, got %T", err)
			}
		})
	}
}

func TestConstantGridIsExact(t *testing.T) {
	const k = 0.37
	angles := []float64{deg(-10), deg(-5), deg(0), deg(5), deg(10), deg(15)}
	controls := []float64{deg(-20), deg(0), deg(10), deg(20)}
	grid := make([][]float64, len(angles))
	for i := range grid {
		grid[i] = []float64{k, k, k, k}
	}
	tbl, err := NewTable("CM_de", angles, controls, grid, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, a := range []float64{deg(-10), deg(-7.3), deg(0), deg(2.2), deg(14.99), deg(15)} {
		for _, c := range []float64{deg(-20), deg(-3), deg(0), deg(17), deg(20)} {
			if got := tbl.Value(a, c); got != k {
				t.Errorf("Value(%v, %v) = %v, want exactly %v", a, c, got, k)
			}
		}
	}
}

func TestLinearSurfaceIsReproduced(t *testing.T) {
	angles := []float64{-0.2, -0.1, 0, 0.1, 0.2}
	controls := []float64{-0.3, 0, 0.3}
	f := func(a, c float64) float64 { return 0.1 + 2*a - 0.5*c }
	grid := make([][]float64, len(angles))
	for i, a := range angles {
		for _, c := range controls {
			grid[i] = append(grid[i], f(a, c))
		}
	}
	tbl, err := NewTable("CL_alpha", angles, controls, grid, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range [][2]float64{{0.05, 0.1}, {-0.17, -0.25}, {0.2, 0.3}} {
		got, err := tbl.Lookup(q[0], q[1])
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-f(q[0], q[1])) > 1e-9 {
			t.Errorf("Lookup(%v) = %v, want %v", q, got, f(q[0], q[1]))
		}
	}
}

func curvedTable(tb testing.TB) (*Table, []float64, []float64, [][]float64) {
	tb.Helper()
	angles := []float64{deg(-8), deg(-4), deg(0), deg(4), deg(8), deg(12), deg(16)}
	controls := []float64{deg(-20), deg(-10), deg(0), deg(10), deg(25)}
	grid := make([][]float64, len(angles))
	for i, a := range angles {
		for _, c := range controls {
			grid[i] = append(grid[i], 0.2+5.1*a-9*a*a*a+0.8*math.Sin(2*c)+a*c)
		}
	}
	tbl, err := NewTable("CL_0", angles, controls, grid, nil)
	if err != nil {
		tb.Fatal(err)
	}
	return tbl, angles, controls, grid
}

func TestCurvedSurfaceFollowsAkima(t *testing.T) {
	tbl, angles, controls, grid := curvedTable(t)

	t.Run("nodes", func(t *testing.T) {
		for i, a := range angles {
			for j, c := range controls {
				if got := tbl.Value(a, c); math.Abs(got-grid[i][j]) > 1e-12 {
					t.Errorf("Value(%v, %v) = %v, want %v", a, c, got, grid[i][j])
				}
			}
		}
	})

	t.Run("along angle breakpoints", func(t *testing.T) {
		var sp interp.AkimaSpline
		for i, a := range angles {
			if err := sp.Fit(controls, grid[i]); err != nil {
				t.Fatal(err)
			}
			for _, c := range []float64{deg(-17), deg(-2.5), deg(7), deg(21)} {
				if got, want := tbl.Value(a, c), sp.Predict(c); math.Abs(got-want) > 1e-12 {
					t.Errorf("Value(%v, %v) = %v, Akima %v", a, c, got, want)
				}
			}
		}
	})

	t.Run("continuous across cells", func(t *testing.T) {
		const h = 1e-9
		for _, a := range angles[1 : len(angles)-1] {
			lo, hi := tbl.Value(a-h, deg(3)), tbl.Value(a+h, deg(3))
			if math.Abs(hi-lo) > 1e-6 {
				t.Errorf("jump of %v at angle %v", hi-lo, a)
			}
		}
	})
}

func TestLookupDoesNotAllocate(t *testing.T) {
	tbl, _, _, _ := curvedTable(t)
	var sink float64
	allocs := testing.AllocsPerRun(100, func() {
		v, _ := tbl.Lookup(deg(5.5), deg(-3))
		sink += v
	})
	if allocs != 0 {
		t.Errorf("Lookup allocated %v times per call", allocs)
	}
	_ = sink
}

func TestOutOfDomainWarnsOncePerCall(t *testing.T) {
	rec := log.NewRecorder()
	logger := log.NewWithHandler(rec)
	tbl, err := NewTable("CD_alpha", []float64{0, 0.1, 0.2}, []float64{0, 0.1}, [][]float64{{1, 1}, {2, 2}, {3, 3}}, logger)
	if err != nil {
		t.Fatal(err)
	}

	queries := [][2]float64{{-0.5, 0}, {0.3, 0.05}, {0.1, 1}, {math.NaN(), 0}, {math.Inf(1), 0}}
	for i, q := range queries {
		got := tbl.Value(q[0], q[1])
		if got != 0 || math.IsNaN(got) {
			t.Errorf("Value(%v) = %v, want 0", q, got)
		}
		if n := rec.Count(slog.LevelWarn); n != i+1 {
			t.Errorf("after %d queries saw %d warnings", i+1, n)
		}
	}

	if _, err := tbl.Lookup(-0.5, 0); !errors.Is(err, ErrOutOfDomain) {
		t.Errorf("Lookup should report ErrOutOfDomain, got %v", err)
	}
}

func TestConstantTable(t *testing.T) {
	tbl := NewConstantTable("CL_de", 0.43)
	for _, q := range [][2]float64{{0, 0}, {1.2, -0.4}, {-3, 3}} {
		if got := tbl.Value(q[0], q[1]); got != 0.43 {
			t.Errorf("Value(%v) = %v", q, got)
		}
	}
}

func TestParseTable(t *testing.T) {
	src := `# CL vs alpha and flap
-10, 0, 10
0, 20
-0.5, -0.2
0.2, 0.6

0.9, 1.3
`
	tbl, err := ParseTable("CL_0", strings.NewReader(src), nil)
	if err != nil {
		t.Fatal(err)
	}
	aMin, aMax, cMin, cMax := tbl.Domain()
	if math.Abs(aMin-deg(-10)) > 1e-12 || math.Abs(aMax-deg(10)) > 1e-12 || cMin != 0 || math.Abs(cMax-deg(20)) > 1e-12 {
		t.Errorf("breakpoints not converted to radians: %v %v %v %v", aMin, aMax, cMin, cMax)
	}
	if got := tbl.Value(0, 0); math.Abs(got-0.2) > 1e-12 {
		t.Errorf("Value(0,0) = %v, want 0.2", got)
	}
	if got := tbl.Value(deg(10), deg(20)); math.Abs(got-1.3) > 1e-12 {
		t.Errorf("Value at corner = %v, want 1.3", got)
	}

	tabbed := "0\t5\n0\n1.5\n1.5\n"
	if _, err := ParseTable("CM_0", strings.NewReader(tabbed), nil); err != nil {
		t.Errorf("tab separated table: %v", err)
	}
}

func TestParseTableErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"too few rows", "0, 1\n0\n", ErrShapeMismatch},
		{"garbage", "0, 1\n0\nabc\n1\n", ErrCorruptData},
		{"non-monotonic", "5, 0\n0\n1\n2\n", ErrNonMonotonic},
		{"row count", "0, 5, 10\n0\n1\n2\n", ErrShapeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable("CL_0", strings.NewReader(tt.src), nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
