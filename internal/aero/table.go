package aero

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/interp"

	"github.com/san-kum/flightdyn/internal/log"
	"github.com/san-kum/flightdyn/internal/metrics"
)

var (
	ErrShapeMismatch = errors.New("aero: table shape mismatch")
	ErrNonMonotonic  = errors.New("aero: breakpoints not strictly increasing")
	ErrCorruptData   = errors.New("aero: corrupt table data")
	ErrOutOfDomain   = errors.New("aero: query outside table domain")
)

// TableBuildError reports why a derivative table could not be built.
type TableBuildError struct {
	Derivative string
	Path       string
	Err        error
}

func (e *TableBuildError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("derivative %s (%s): %v", e.Derivative, e.Path, e.Err)
	}
	return fmt.Sprintf("derivative %s: %v", e.Derivative, e.Err)
}

func (e *TableBuildError) Unwrap() error { return e.Err }

// Table is a bicubic Hermite surface over (angle, control-surface
// deflection) built from tabulated values. Node slopes along each axis and
// the cross slope come from Akima splines fitted once at construction, so
// every grid line reproduces its Akima spline and a query only evaluates
// one cell. An axis with a single breakpoint is constant along that axis.
//
// A Table is read-only after construction and safe for concurrent use.
type Table struct {
	name     string
	angles   []float64
	controls []float64
	// node values and slopes, indexed [angle][control]
	f, fa, fc, fac [][]float64
	logger         *log.Logger
}

// NewTable builds a table from breakpoints in radians and a grid indexed
// [angle][control].
func NewTable(name string, angles, controls []float64, grid [][]float64, logger *log.Logger) (*Table, error) {
	if len(angles) == 0 || len(controls) == 0 {
		return nil, &TableBuildError{Derivative: name, Err: fmt.Errorf("%w: empty breakpoint axis", ErrShapeMismatch)}
	}
	if len(grid) != len(angles) {
		return nil, &TableBuildError{Derivative: name,
			Err: fmt.Errorf("%w: %d rows for %d angle breakpoints", ErrShapeMismatch, len(grid), len(angles))}
	}
	for i, row := range grid {
		if len(row) != len(controls) {
			return nil, &TableBuildError{Derivative: name,
				Err: fmt.Errorf("%w: row %d has %d values for %d control breakpoints", ErrShapeMismatch, i, len(row), len(controls))}
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &TableBuildError{Derivative: name, Err: fmt.Errorf("%w: non-finite value in row %d", ErrCorruptData, i)}
			}
		}
	}
	if err := checkIncreasing(angles); err != nil {
		return nil, &TableBuildError{Derivative: name, Err: fmt.Errorf("angle axis: %w", err)}
	}
	if err := checkIncreasing(controls); err != nil {
		return nil, &TableBuildError{Derivative: name, Err: fmt.Errorf("control axis: %w", err)}
	}

	t := &Table{
		name:     name,
		angles:   append([]float64(nil), angles...),
		controls: append([]float64(nil), controls...),
		logger:   logger,
	}
	t.f = make([][]float64, len(grid))
	for i, row := range grid {
		t.f[i] = append([]float64(nil), row...)
	}

	var err error
	if t.fa, err = slopesAlongAngle(t.angles, t.f); err == nil {
		if t.fc, err = slopesAlongControl(t.controls, t.f); err == nil {
			t.fac, err = slopesAlongControl(t.controls, t.fa)
		}
	}
	if err != nil {
		return nil, &TableBuildError{Derivative: name, Err: fmt.Errorf("%w: %v", ErrCorruptData, err)}
	}
	return t, nil
}

// slopesAlongAngle returns d/dangle at every node from an Akima spline
// through each control column.
func slopesAlongAngle(angles []float64, f [][]float64) ([][]float64, error) {
	out := zeros(len(f), len(f[0]))
	if len(angles) < 2 {
		return out, nil
	}
	ys := make([]float64, len(angles))
	var sp interp.AkimaSpline
	for j := range f[0] {
		for i := range angles {
			ys[i] = f[i][j]
		}
		if err := sp.Fit(angles, ys); err != nil {
			return nil, err
		}
		for i, a := range angles {
			out[i][j] = sp.PredictDerivative(a)
		}
	}
	return out, nil
}

// slopesAlongControl returns d/dcontrol at every node from an Akima spline
// through each angle row.
func slopesAlongControl(controls []float64, f [][]float64) ([][]float64, error) {
	out := zeros(len(f), len(f[0]))
	if len(controls) < 2 {
		return out, nil
	}
	var sp interp.AkimaSpline
	for i, row := range f {
		if err := sp.Fit(controls, row); err != nil {
			return nil, err
		}
		for j, c := range controls {
			out[i][j] = sp.PredictDerivative(c)
		}
	}
	return out, nil
}

func zeros(rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
	}
	return out
}

// NewConstantTable returns a table that yields v for every query.
func NewConstantTable(name string, v float64) *Table {
	t, _ := NewTable(name, []float64{0}, []float64{0}, [][]float64{{v}}, nil)
	return t
}

func checkIncreasing(xs []float64) error {
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: breakpoint %d is not finite", ErrCorruptData, i)
		}
		if i > 0 && x <= xs[i-1] {
			return fmt.Errorf("%w: breakpoint %d (%g) <= %g", ErrNonMonotonic, i, x, xs[i-1])
		}
	}
	return nil
}

func (t *Table) Name() string { return t.name }

// Domain returns the breakpoint ranges in radians.
func (t *Table) Domain() (angleMin, angleMax, controlMin, controlMax float64) {
	return t.angles[0], t.angles[len(t.angles)-1], t.controls[0], t.controls[len(t.controls)-1]
}

func inRange(xs []float64, x float64) bool {
	if len(xs) == 1 {
		return !math.IsNaN(x)
	}
	return x >= xs[0] && x <= xs[len(xs)-1]
}

// Lookup interpolates the surface, returning ErrOutOfDomain outside the grid.
func (t *Table) Lookup(angle, control float64) (float64, error) {
	if !inRange(t.angles, angle) || !inRange(t.controls, control) {
		return 0, fmt.Errorf("%w: %s at angle=%.4f control=%.4f", ErrOutOfDomain, t.name, angle, control)
	}

	i, a0, da := cell(t.angles, angle)
	j, c0, dc := cell(t.controls, control)
	if dc == 0 {
		// single control breakpoint
		if da == 0 {
			return t.f[0][0], nil
		}
		return hermite(t.f[i][0], t.f[i+1][0], t.fa[i][0], t.fa[i+1][0], angle-a0, da), nil
	}

	x := control - c0
	g0 := hermite(t.f[i][j], t.f[i][j+1], t.fc[i][j], t.fc[i][j+1], x, dc)
	if da == 0 {
		return g0, nil
	}
	g1 := hermite(t.f[i+1][j], t.f[i+1][j+1], t.fc[i+1][j], t.fc[i+1][j+1], x, dc)
	s0 := hermite(t.fa[i][j], t.fa[i][j+1], t.fac[i][j], t.fac[i][j+1], x, dc)
	s1 := hermite(t.fa[i+1][j], t.fa[i+1][j+1], t.fac[i+1][j], t.fac[i+1][j+1], x, dc)
	return hermite(g0, g1, s0, s1, angle-a0, da), nil
}

// cell returns the index of the interval holding x, its left breakpoint
// and its width. The width is 0 for a single-breakpoint axis.
func cell(xs []float64, x float64) (int, float64, float64) {
	n := len(xs)
	if n == 1 {
		return 0, xs[0], 0
	}
	i := sort.SearchFloat64s(xs, x) - 1
	i = max(0, min(n-2, i))
	return i, xs[i], xs[i+1] - xs[i]
}

// hermite evaluates the cubic through (0, y0) and (dx, y1) with end slopes
// d0 and d1 at offset x. Flat data returns y0 exactly.
func hermite(y0, y1, d0, d1, x, dx float64) float64 {
	dy := y1 - y0
	a2 := (3*dy - (2*d0+d1)*dx) / (dx * dx)
	a3 := (-2*dy + (d0+d1)*dx) / (dx * dx * dx)
	return y0 + x*(d0+x*(a2+x*a3))
}

// Value is Lookup with the lossy fallback: failures yield 0 and one warning.
func (t *Table) Value(angle, control float64) float64 {
	v, err := t.Lookup(angle, control)
	if err != nil {
		metrics.TableOutOfDomain.WithLabelValues(t.name).Inc()
		t.logger.Warn("derivative lookup failed, using 0",
			"derivative", t.name, "angle", angle, "control", control, "error", err)
		return 0
	}
	return v
}

// ParseTable reads a breakpoint table: the first row holds the angle
// breakpoints, the second the control breakpoints (both in degrees),
// followed by one row of values per angle breakpoint. Fields may be comma
// or tab separated; blank lines and lines starting with '#' are skipped.
func ParseTable(name string, r io.Reader, logger *log.Logger) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &TableBuildError{Derivative: name, Err: err}
	}
	text := string(data)

	cr := csv.NewReader(strings.NewReader(text))
	if strings.Contains(text, "\t") {
		cr.Comma = '\t'
	}
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, &TableBuildError{Derivative: name, Err: fmt.Errorf("%w: %v", ErrCorruptData, err)}
	}
	if len(records) < 3 {
		return nil, &TableBuildError{Derivative: name,
			Err: fmt.Errorf("%w: need two breakpoint rows and at least one value row, got %d rows", ErrShapeMismatch, len(records))}
	}

	angles, err := parseRow(records[0], math.Pi/180)
	if err != nil {
		return nil, &TableBuildError{Derivative: name, Err: err}
	}
	controls, err := parseRow(records[1], math.Pi/180)
	if err != nil {
		return nil, &TableBuildError{Derivative: name, Err: err}
	}
	grid := make([][]float64, 0, len(records)-2)
	for _, rec := range records[2:] {
		row, err := parseRow(rec, 1)
		if err != nil {
			return nil, &TableBuildError{Derivative: name, Err: err}
		}
		grid = append(grid, row)
	}
	return NewTable(name, angles, controls, grid, logger)
}

func parseRow(fields []string, scale float64) ([]float64, error) {
	row := make([]float64, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptData, err)
		}
		row = append(row, v*scale)
	}
	return row, nil
}
