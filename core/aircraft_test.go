package core

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/airspace-simulator/vector"
)

func TestFlyingObjectAdvance(t *testing.T) {
	o, err := NewFlyingObject("balloon", vector.Rec(10, 20, 3000), vector.Rec(1, -2, 0.5))
	if err != nil {
		t.Fatalf("NewFlyingObject: %v", err)
	}
	if err := o.Advance(2); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got := o.Position(); !got.Equal(vector.Rec(12, 16, 3001)) {
		t.Fatalf("position = %v, want (12,16,3001)", got)
	}
	if got := o.Velocity(); !got.Equal(vector.Rec(1, -2, 0.5)) {
		t.Fatalf("velocity changed to %v", got)
	}
	if err := o.Advance(-1); !errors.Is(err, ErrInvalidTimestep) {
		t.Fatalf("Advance(-1) err = %v", err)
	}
	if IsControllable(o) {
		t.Fatalf("FlyingObject reported as controllable")
	}
}

func TestNewFlyingObjectEmptyName(t *testing.T) {
	if _, err := NewFlyingObject("", vector.Vector3{}, vector.Vector3{}); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("err = %v, want ErrEmptyName", err)
	}
}

func TestControlViewHidesAdvance(t *testing.T) {
	a := mustAircraft(t, "United5", vector.Rec(0, 0, 8000), vector.Rec(230, 0, 0))
	o, _ := NewFlyingObject("meteor", vector.Rec(0, 0, 9000), vector.Rec(0, 0, -100))

	views := ControlViews([]Aircraft{a, o})
	if len(views) != 2 {
		t.Fatalf("ControlViews len = %d", len(views))
	}
	for _, v := range views {
		if _, ok := v.(Aircraft); ok {
			t.Fatalf("view of %s exposes Advance", v.Name())
		}
	}
	c, ok := views[0].(Controllable)
	if !ok {
		t.Fatalf("view of controllable aircraft lost the command capability")
	}
	if IsControllable(views[1]) {
		t.Fatalf("view of uncontrolled object reported as controllable")
	}

	c.SendHeading(math.Pi)
	if got := a.Command().Heading; got != math.Pi {
		t.Fatalf("command through view = %v, want π", got)
	}
	if views[0].Position() != a.Position() || views[0].Heading() != a.Heading() {
		t.Fatalf("view does not mirror aircraft state")
	}
}

type recordingController struct {
	seen int
}

func (r *recordingController) ExecuteControl(_ context.Context, fleet []Track) error {
	r.seen = len(fleet)
	return nil
}

func TestFlightControllerInterface(t *testing.T) {
	var fc FlightController = &recordingController{}
	a := mustAircraft(t, "N3", vector.Rec(0, 0, 8000), vector.Rec(230, 0, 0))
	if err := fc.ExecuteControl(context.Background(), ControlViews([]Aircraft{a})); err != nil {
		t.Fatalf("ExecuteControl: %v", err)
	}
	if got := fc.(*recordingController).seen; got != 1 {
		t.Fatalf("controller saw %d aircraft, want 1", got)
	}
}
