package sim

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/san-kum/flightdyn/internal/atmosphere"
	"github.com/san-kum/flightdyn/internal/controls"
	"github.com/san-kum/flightdyn/internal/dynamo"
	"github.com/san-kum/flightdyn/internal/frames"
)

// Quantity indexes the fixed part of an output record. Per-engine
// THROTTLE_n and RPM_n columns follow the fixed columns.
type Quantity int

const (
	Time Quantity = iota
	OutU
	OutV
	OutW
	OutP
	OutQ
	OutR
	OutPhi
	OutTheta
	OutPsi
	OutNorth
	OutEast
	Altitude
	Latitude
	Longitude
	TAS
	Alpha
	Beta
	AlphaDot
	Mach
	DynamicPressure
	LoadFactor
	VerticalSpeed
	Heading
	HeightAGL
	CL
	CD
	Elevator
	Aileron
	Rudder
	Flaps
	Gear

	numFixed
)

var quantityNames = [numFixed]string{
	"TIME", "U", "V", "W", "P", "Q", "R", "PHI", "THETA", "PSI", "NORTH", "EAST",
	"ALTITUDE", "LATITUDE", "LONGITUDE", "TAS", "ALPHA", "BETA", "ALPHA_DOT", "MACH",
	"DYNAMIC_PRESSURE", "LOAD_FACTOR", "VERTICAL_SPEED", "HEADING", "HEIGHT_AGL", "CL", "CD",
	"ELEVATOR", "AILERON", "RUDDER", "FLAPS", "GEAR",
}

func (q Quantity) String() string {
	if q < 0 || q >= numFixed {
		return fmt.Sprintf("Quantity(%d)", int(q))
	}
	return quantityNames[q]
}

// ParseQuantity looks a fixed quantity up by its column name.
func ParseQuantity(name string) (Quantity, bool) {
	for i, n := range quantityNames {
		if n == name {
			return Quantity(i), true
		}
	}
	return 0, false
}

// Columns returns the CSV header for an aircraft with the given number of
// engines.
func Columns(engines int) []string {
	cols := append([]string(nil), quantityNames[:]...)
	for i := 1; i <= engines; i++ {
		cols = append(cols, fmt.Sprintf("THROTTLE_%d", i))
	}
	for i := 1; i <= engines; i++ {
		cols = append(cols, fmt.Sprintf("RPM_%d", i))
	}
	return cols
}

// Record is one published tick. Records are never modified after they
// are appended to an OutputLog.
type Record struct {
	State  dynamo.State
	Values []float64
}

func (r Record) Time() float64 { return r.Values[Time] }

func (r Record) Get(q Quantity) float64 { return r.Values[q] }

func (r Record) Engines() int { return (len(r.Values) - int(numFixed)) / 2 }

func (r Record) Throttle(engine int) float64 { return r.Values[int(numFixed)+engine] }

func (r Record) RPM(engine int) float64 { return r.Values[int(numFixed)+r.Engines()+engine] }

// GeoRef places the NED origin on a flat earth.
type GeoRef struct {
	Lat0, Lon0 float64 // degrees
}

const metersPerDegLat = 111320.0

func (g GeoRef) LatLon(north, east float64) (lat, lon float64) {
	lat = g.Lat0 + north/metersPerDegLat
	cos := math.Cos(g.Lat0 * math.Pi / 180)
	if math.Abs(cos) < 1e-9 {
		return lat, g.Lon0
	}
	return lat, g.Lon0 + east/(metersPerDegLat*cos)
}

// newRecord assembles the published values for state x at time t.
func newRecord(t float64, x dynamo.State, c controls.Values, ev Evaluation, geo GeoRef) Record {
	n := len(ev.Engines)
	vals := make([]float64, int(numFixed)+2*n)

	vals[Time] = t
	for i := dynamo.U; i <= dynamo.East; i++ {
		vals[OutU+Quantity(i)] = x[i]
	}
	vals[Altitude] = x.Altitude()
	vals[Latitude], vals[Longitude] = geo.LatLon(x[dynamo.North], x[dynamo.East])
	vals[TAS] = ev.Wind.TrueAirspeed
	vals[Alpha] = ev.Wind.Alpha
	vals[Beta] = ev.Wind.Beta
	vals[AlphaDot] = frames.AlphaDot(x[dynamo.U], x[dynamo.W], ev.Deriv[dynamo.U], ev.Deriv[dynamo.W])
	if ev.Env.SpeedOfSound > 0 {
		vals[Mach] = ev.Wind.TrueAirspeed / ev.Env.SpeedOfSound
	}
	vals[DynamicPressure] = ev.Aero.DynamicPressure
	vals[LoadFactor] = -ev.Net.Accel[2] / atmosphere.StandardGravity
	vals[VerticalSpeed] = -ev.Deriv[dynamo.Down]
	hdg := math.Mod(x[dynamo.Psi]*180/math.Pi, 360)
	if hdg < 0 {
		hdg += 360
	}
	vals[Heading] = hdg
	vals[HeightAGL] = ev.HeightAGL
	vals[CL] = ev.Aero.CL
	vals[CD] = ev.Aero.CD
	vals[Elevator] = c.Elevator
	vals[Aileron] = c.Aileron
	vals[Rudder] = c.Rudder
	vals[Flaps] = c.Flaps
	vals[Gear] = c.Gear
	for i := 0; i < n; i++ {
		if i < len(c.Throttle) {
			vals[int(numFixed)+i] = c.Throttle[i]
		}
		vals[int(numFixed)+n+i] = ev.Engines[i].RPM
	}
	return Record{State: x.Clone(), Values: vals}
}

// WriteCSV writes the header row followed by one row per record.
func WriteCSV(w io.Writer, records []Record, engines int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns(engines)); err != nil {
		return err
	}
	row := make([]string, 0, int(numFixed)+2*engines)
	for _, r := range records {
		row = row[:0]
		for _, v := range r.Values {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
