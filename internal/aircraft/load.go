package aircraft

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/iancoleman/orderedmap"

	"github.com/san-kum/flightdyn/internal/aero"
	"github.com/san-kum/flightdyn/internal/config"
	"github.com/san-kum/flightdyn/internal/controls"
	"github.com/san-kum/flightdyn/internal/log"
	"github.com/san-kum/flightdyn/internal/metrics"
)

// TablePrefix marks a derivative value that names a breakpoint table file,
// e.g. "CL_alpha = table:tables/cl_alpha.csv". Paths are relative to the
// aircraft file.
const TablePrefix = "table:"

// Load reads an aircraft file. Keys the file omits keep the trainer's
// values; malformed values and unreadable tables are replaced by defaults
// with a warning. Only a spec the dynamics cannot use is an error.
func Load(path string, logger *log.Logger) (*Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, filepath.Dir(path), logger.With("aircraft", path))
}

// Resolve accepts a built-in name or a file path. A file that cannot be
// read degrades to the trainer.
func Resolve(nameOrPath string, logger *log.Logger) (*Spec, error) {
	if s, ok := Builtin(nameOrPath); ok {
		return s, nil
	}
	s, err := Load(nameOrPath, logger)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		logger.Warn("aircraft file unavailable, using built-in trainer", "path", nameOrPath, "error", err)
		return Trainer(), nil
	}
	return s, err
}

func Parse(r io.Reader, baseDir string, logger *log.Logger) (*Spec, error) {
	kv, err := config.ReadKeyValues(r)
	if err != nil {
		return nil, err
	}
	p := &parser{kv: kv, baseDir: baseDir, logger: logger, used: map[string]bool{}}
	spec := p.build()
	p.reportUnused()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

type parser struct {
	kv      *orderedmap.OrderedMap
	baseDir string
	logger  *log.Logger
	used    map[string]bool
}

func (p *parser) num(key string, dst *float64) {
	p.used[key] = true
	v, ok, err := config.Float(p.kv, key)
	if !ok {
		return
	}
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.logger.Warn("ignoring malformed aircraft value", "key", key, "error", err)
		return
	}
	*dst = v
}

// degRange overrides a channel range given in degrees.
func (p *parser) degRange(name string, r *controls.Range) {
	lo, hi := r.Min*180/math.Pi, r.Max*180/math.Pi
	p.num(name+"_min", &lo)
	p.num(name+"_max", &hi)
	if lo >= hi {
		p.logger.Warn("ignoring inverted control range", "channel", name, "min", lo, "max", hi)
		return
	}
	r.Min, r.Max = lo*math.Pi/180, hi*math.Pi/180
}

func (p *parser) build() *Spec {
	spec := Trainer()
	spec.Name = "custom"
	if name, ok := config.String(p.kv, "name"); ok && name != "" {
		spec.Name = name
	}
	p.used["name"] = true

	p.num("mass", &spec.Mass)
	p.num("ix", &spec.Ix)
	p.num("iy", &spec.Iy)
	p.num("iz", &spec.Iz)
	p.num("ixz", &spec.Ixz)

	g := &spec.Geometry
	p.num("chord", &g.Chord)
	p.num("span", &g.Span)
	p.num("area", &g.Area)
	for i, axis := range []string{"x", "y", "z"} {
		p.num("ac_"+axis, &g.AeroCenter[i])
		p.num("cg_"+axis, &g.CG[i])
	}

	count := float64(len(spec.Engines))
	p.num("engines", &count)
	if n := int(count); n >= 1 && n != len(spec.Engines) {
		proto := spec.Engines[0]
		spec.Engines = make([]Engine, n)
		for i := range spec.Engines {
			spec.Engines[i] = proto
		}
	}
	for i := range spec.Engines {
		e := &spec.Engines[i]
		prefix := fmt.Sprintf("engine%d_", i+1)
		for j, axis := range []string{"x", "y", "z"} {
			p.num(prefix+axis, &e.Position[j])
		}
		p.num(prefix+"max_thrust", &e.MaxThrust)
		p.num(prefix+"idle_rpm", &e.IdleRPM)
		p.num(prefix+"max_rpm", &e.MaxRPM)
	}

	stiffness, damping := spec.Gear[0].Stiffness, spec.Gear[0].Damping
	p.num("gear_stiffness", &stiffness)
	p.num("gear_damping", &damping)
	for i := range spec.Gear {
		gp := &spec.Gear[i]
		gp.Stiffness, gp.Damping = stiffness, damping
		for j, axis := range []string{"x", "y", "z"} {
			p.num("gear_"+gp.Name+"_"+axis, &gp.Position[j])
		}
	}
	p.num("rolling_friction", &spec.RollingFriction)
	p.num("brake_friction", &spec.BrakeFriction)

	p.degRange("elevator", &spec.Limits.Elevator)
	p.degRange("aileron", &spec.Limits.Aileron)
	p.degRange("rudder", &spec.Limits.Rudder)
	p.degRange("flaps", &spec.Limits.Flaps)

	spec.Derivatives = p.derivatives()
	return spec
}

func (p *parser) derivatives() aero.Set {
	defaults := DefaultDerivatives()
	set := make(aero.Set, len(defaults))
	for _, name := range aero.Names() {
		fallback := defaults[name]
		p.num(name+"_default", &fallback)
		p.used[name] = true

		raw, ok := config.String(p.kv, name)
		if !ok {
			set[name] = aero.Constant(fallback)
			continue
		}
		if ref, isTable := strings.CutPrefix(raw, TablePrefix); isTable {
			set[name] = p.table(name, strings.TrimSpace(ref), fallback)
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			p.logger.Warn("malformed derivative, using default", "derivative", name, "value", raw, "default", fallback)
			v = fallback
		}
		set[name] = aero.Constant(v)
	}
	return set
}

// table loads a breakpoint table, substituting a constant table holding
// fallback when the file is missing or cannot be built.
func (p *parser) table(name, ref string, fallback float64) aero.Derivative {
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.baseDir, path)
	}
	tbl, err := readTable(name, path, p.logger)
	if err != nil {
		metrics.TableFallbacks.WithLabelValues(name).Inc()
		p.logger.Warn("derivative table unusable, using constant", "derivative", name,
			"path", path, "default", fallback, "error", err)
		return aero.NewConstantTable(name, fallback)
	}
	return tbl
}

func readTable(name, path string, logger *log.Logger) (*aero.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &aero.TableBuildError{Derivative: name, Path: path, Err: err}
	}
	defer f.Close()
	tbl, err := aero.ParseTable(name, f, logger)
	if err != nil {
		var tbe *aero.TableBuildError
		if errors.As(err, &tbe) {
			tbe.Path = path
		}
		return nil, err
	}
	return tbl, nil
}

func (p *parser) reportUnused() {
	var unknown []string
	for _, k := range p.kv.Keys() {
		if p.used[k] {
			continue
		}
		if known := derivativeFor(strings.TrimSuffix(k, "_default")); known != "" {
			p.logger.Warn("derivative name is case sensitive, key ignored", "key", k, "derivative", known)
			continue
		}
		unknown = append(unknown, k)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		p.logger.Warn("unknown aircraft keys ignored", "keys", strings.Join(unknown, ","))
	}
}

// derivativeFor returns the derivative that name spells with different
// case, or "" when there is none.
func derivativeFor(name string) string {
	if aero.IsKnown(name) {
		return ""
	}
	for _, n := range aero.Names() {
		if strings.EqualFold(n, name) {
			return n
		}
	}
	return ""
}
