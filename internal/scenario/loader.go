package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/signalsfoundry/airspace-simulator/core"
	"github.com/signalsfoundry/airspace-simulator/vector"
)

// ErrInvalidScenario indicates a scenario file that decodes but can not be
// flown.
var ErrInvalidScenario = errors.New("invalid scenario")

// internal JSON shapes, unexported so the file format can evolve.
type scenarioJSON struct {
	Aircraft []aircraftJSON `json:"aircraft"`
}

type aircraftJSON struct {
	Name string `json:"name"`
	// Controllable defaults to true.
	Controllable *bool      `json:"controllable"`
	Position     vectorJSON `json:"position"`
	Velocity     vectorJSON `json:"velocity"`
}

type vectorJSON struct {
	Frame  string    `json:"frame"` // rectangular (default) | cylindrical | spherical
	Coords []float64 `json:"coords"`
}

func (v vectorJSON) vector() (vector.Vector3, error) {
	frame, err := vector.ParseFrame(v.Frame)
	if err != nil {
		return vector.Vector3{}, err
	}
	return vector.Parse(frame, v.Coords)
}

// Load decodes a JSON scenario from r. Controllable aircraft fly with
// limits. Names must be unique.
func Load(r io.Reader, limits core.Limits) ([]core.Aircraft, error) {
	var payload scenarioJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("load scenario: decode failed: %w", err)
	}
	if len(payload.Aircraft) == 0 {
		return nil, fmt.Errorf("%w: no aircraft", ErrInvalidScenario)
	}

	seen := make(map[string]struct{}, len(payload.Aircraft))
	fleet := make([]core.Aircraft, 0, len(payload.Aircraft))
	for i, a := range payload.Aircraft {
		if _, dup := seen[a.Name]; dup {
			return nil, fmt.Errorf("%w: aircraft %d: duplicate name %q", ErrInvalidScenario, i, a.Name)
		}
		seen[a.Name] = struct{}{}

		pos, err := a.Position.vector()
		if err != nil {
			return nil, fmt.Errorf("%w: aircraft %q position: %w", ErrInvalidScenario, a.Name, err)
		}
		vel, err := a.Velocity.vector()
		if err != nil {
			return nil, fmt.Errorf("%w: aircraft %q velocity: %w", ErrInvalidScenario, a.Name, err)
		}

		var ac core.Aircraft
		if a.Controllable == nil || *a.Controllable {
			ac, err = core.NewControllableAircraft(a.Name, pos, vel, limits)
		} else {
			ac, err = core.NewFlyingObject(a.Name, pos, vel)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: aircraft %d: %w", ErrInvalidScenario, i, err)
		}
		fleet = append(fleet, ac)
	}
	return fleet, nil
}
