package metrics

import (
	"math"

	"github.com/san-kum/flightdyn/internal/dynamo"
)

// ControlEffort is the mean summed deflection of the elevator, aileron
// and rudder, the first three control channels.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	for i := 0; i < 3 && i < len(u); i++ {
		c.sum += math.Abs(u[i])
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
