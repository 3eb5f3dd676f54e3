package controllers

import (
	"math"

	"github.com/san-kum/flightdyn/internal/controls"
	"github.com/san-kum/flightdyn/internal/dynamo"
	"github.com/san-kum/flightdyn/internal/frames"
)

// AltitudeHold trims the elevator about its value at construction to hold
// a target altitude. It runs as a stepper observer: the command it writes
// after tick k is read by tick k+1.
type AltitudeHold struct {
	Target float64
	// PitchDamping feeds pitch rate back to the elevator (rad per rad/s).
	PitchDamping float64

	ctl  *controls.State
	trim float64
	pid  *PID
}

func NewAltitudeHold(ctl *controls.State, target float64) *AltitudeHold {
	pid := NewPID(0.001, 0.00005, 0.004)
	pid.IntegralLimit = 200
	return &AltitudeHold{
		Target:       target,
		PitchDamping: 0.1,
		ctl:          ctl,
		trim:         ctl.Get(controls.Elevator),
		pid:          pid,
	}
}

// OnStep writes the elevator command. Positive elevator is trailing edge
// down, so a climb demand lowers it.
func (h *AltitudeHold) OnStep(x dynamo.State, _ dynamo.Control, t float64) {
	err := h.Target - x.Altitude()
	cmd := h.trim - h.pid.Update(err, t) + h.PitchDamping*x[dynamo.Q]
	h.ctl.Set(controls.Elevator, cmd)
}

func (h *AltitudeHold) Reset() { h.pid.Reset() }

// HeadingHold banks toward a target heading with the ailerons.
type HeadingHold struct {
	Target float64
	// MaxBank limits the commanded bank angle (rad).
	MaxBank     float64
	HeadingGain float64
	RollGain    float64
	RollDamping float64

	ctl *controls.State
}

func NewHeadingHold(ctl *controls.State, target float64) *HeadingHold {
	return &HeadingHold{
		Target:      target,
		MaxBank:     20 * math.Pi / 180,
		HeadingGain: 1.0,
		RollGain:    0.5,
		RollDamping: 0.1,
		ctl:         ctl,
	}
}

// BankCommand returns the bank angle the hold flies for heading psi.
func (h *HeadingHold) BankCommand(psi float64) float64 {
	bank := h.HeadingGain * frames.WrapPi(h.Target-psi)
	return math.Max(-h.MaxBank, math.Min(h.MaxBank, bank))
}

func (h *HeadingHold) OnStep(x dynamo.State, _ dynamo.Control, _ float64) {
	bank := h.BankCommand(x[dynamo.Psi])
	cmd := h.RollGain*(bank-x[dynamo.Phi]) - h.RollDamping*x[dynamo.P]
	h.ctl.Set(controls.Aileron, cmd)
}
