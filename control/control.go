// Package control holds reference FlightController implementations. The
// interesting strategies are expected to be supplied by users; the ones here
// are baselines.
package control

import (
	"context"

	"github.com/signalsfoundry/airspace-simulator/core"
	"github.com/signalsfoundry/airspace-simulator/internal/logging"
)

// Func adapts an ordinary function to core.FlightController.
type Func func(ctx context.Context, fleet []core.Track) error

// ExecuteControl calls f.
func (f Func) ExecuteControl(ctx context.Context, fleet []core.Track) error {
	return f(ctx, fleet)
}

// DesiredStateController re-sends every controllable aircraft its own
// desired heading, altitude and speed. It performs no conflict avoidance.
type DesiredStateController struct{}

// NewDesiredStateController returns the baseline controller.
func NewDesiredStateController() *DesiredStateController {
	return &DesiredStateController{}
}

// ExecuteControl implements core.FlightController. Uncontrollable members of
// fleet are skipped. A logger on ctx gets a debug line per cycle.
func (c *DesiredStateController) ExecuteControl(ctx context.Context, fleet []core.Track) error {
	sent := 0
	for _, t := range fleet {
		if err := ctx.Err(); err != nil {
			return err
		}
		a, ok := t.(core.Controllable)
		if !ok {
			continue
		}
		a.SendHeading(a.DesiredHeading())
		a.SendAltitude(a.DesiredAltitude())
		a.SendSpeed(a.DesiredSpeed())
		sent++
	}
	if log := logging.LoggerFromContext(ctx); log != nil {
		log.Debug(ctx, "desired state resent", logging.Int("aircraft", sent))
	}
	return nil
}

// Chain runs each controller in order, stopping at the first error. Later
// controllers see, and may override, the commands of earlier ones.
func Chain(controllers ...core.FlightController) core.FlightController {
	return Func(func(ctx context.Context, fleet []core.Track) error {
		for _, c := range controllers {
			if c == nil {
				continue
			}
			if err := c.ExecuteControl(ctx, fleet); err != nil {
				return err
			}
		}
		return nil
	})
}
