package aero

import (
	"sort"
	"strings"
)

// Derivative is a stability or control derivative resolved at load time.
// Both variants answer Value(angle, control); a Constant ignores its
// arguments and a *Table interpolates.
type Derivative interface {
	Value(angle, control float64) float64
}

type Constant float64

func (c Constant) Value(float64, float64) float64 { return float64(c) }

// Derivative names understood by the model.
const (
	CL0        = "CL_0"
	CLAlpha    = "CL_alpha"
	CLQ        = "CL_q"
	CLAlphaDot = "CL_alphadot"
	CLDe       = "CL_de"
	CLDf       = "CL_df"

	CD0     = "CD_0"
	CDAlpha = "CD_alpha"
	CDDe    = "CD_de"
	CDDf    = "CD_df"
	CDDg    = "CD_dg"

	CYBeta = "CY_beta"
	CYP    = "CY_p"
	CYR    = "CY_r"
	CYDr   = "CY_dr"

	ClBeta = "Cl_beta"
	ClP    = "Cl_p"
	ClR    = "Cl_r"
	ClDa   = "Cl_da"
	ClDr   = "Cl_dr"

	CM0        = "CM_0"
	CMAlpha    = "CM_alpha"
	CMQ        = "CM_q"
	CMAlphaDot = "CM_alphadot"
	CMDe       = "CM_de"
	CMDf       = "CM_df"

	CNBeta = "CN_beta"
	CNP    = "CN_p"
	CNR    = "CN_r"
	CNDa   = "CN_da"
	CNDr   = "CN_dr"
)

// Names lists every derivative in a stable order.
func Names() []string {
	names := make([]string, 0, len(knownNames))
	for n := range knownNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var knownNames = map[string]bool{
	CL0: true, CLAlpha: true, CLQ: true, CLAlphaDot: true, CLDe: true, CLDf: true,
	CD0: true, CDAlpha: true, CDDe: true, CDDf: true, CDDg: true,
	CYBeta: true, CYP: true, CYR: true, CYDr: true,
	ClBeta: true, ClP: true, ClR: true, ClDa: true, ClDr: true,
	CM0: true, CMAlpha: true, CMQ: true, CMAlphaDot: true, CMDe: true, CMDf: true,
	CNBeta: true, CNP: true, CNR: true, CNDa: true, CNDr: true,
}

// IsKnown reports whether name is a derivative the model consumes.
func IsKnown(name string) bool { return knownNames[name] }

// Axis selects which flow angle and control surface index a derivative.
type Axis int

const (
	// AlphaFlaps: longitudinal derivatives, indexed by (alpha, flaps).
	AlphaFlaps Axis = iota
	// BetaRudder: side force and yaw derivatives, indexed by (beta, rudder).
	BetaRudder
	// BetaAileron: roll derivatives, indexed by (beta, aileron).
	BetaAileron
)

// AxisOf returns the table axes used for the named derivative.
func AxisOf(name string) Axis {
	switch {
	case strings.HasPrefix(name, "Cl_"):
		return BetaAileron
	case strings.HasPrefix(name, "CY_"), strings.HasPrefix(name, "CN_"):
		return BetaRudder
	default:
		return AlphaFlaps
	}
}

// Set maps derivative names to their resolved values. Missing entries
// read as zero.
type Set map[string]Derivative

func (s Set) Get(name string) Derivative {
	if d, ok := s[name]; ok && d != nil {
		return d
	}
	return Constant(0)
}

// Scalar returns the value of a derivative at zero angle and deflection,
// which for a Constant is the constant itself.
func (s Set) Scalar(name string) float64 {
	return s.Get(name).Value(0, 0)
}
