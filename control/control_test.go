package control

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/signalsfoundry/airspace-simulator/core"
	"github.com/signalsfoundry/airspace-simulator/internal/logging"
	"github.com/signalsfoundry/airspace-simulator/vector"
)

func newAircraft(t *testing.T, name string) *core.ControllableAircraft {
	t.Helper()
	a, err := core.NewControllableAircraft(name, vector.Rec(0, 0, 6500), vector.Rec(0, 220, 0), core.DefaultLimits())
	if err != nil {
		t.Fatalf("NewControllableAircraft: %v", err)
	}
	return a
}

func TestDesiredStateControllerResendsGoal(t *testing.T) {
	a := newAircraft(t, "United1")
	a.SendHeading(math.Pi)
	a.SendAltitude(9000)
	a.SendSpeed(249)

	ballistic, err := core.NewFlyingObject("debris", vector.Rec(0, 0, 7000), vector.Rec(10, 0, 0))
	if err != nil {
		t.Fatalf("NewFlyingObject: %v", err)
	}

	fleet := core.ControlViews([]core.Aircraft{a, ballistic})
	if err := NewDesiredStateController().ExecuteControl(context.Background(), fleet); err != nil {
		t.Fatalf("ExecuteControl: %v", err)
	}

	want := core.Command{Heading: a.DesiredHeading(), Altitude: 8000, Speed: 230}
	if got := a.Command(); got != want {
		t.Fatalf("command = %+v, want %+v", got, want)
	}
}

func TestDesiredStateControllerLogsToContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.ContextWithLogger(context.Background(),
		logging.New(logging.Config{Level: "debug", Format: "json", Output: &buf}))

	fleet := core.ControlViews([]core.Aircraft{newAircraft(t, "Delta4")})
	if err := NewDesiredStateController().ExecuteControl(ctx, fleet); err != nil {
		t.Fatalf("ExecuteControl: %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "desired state resent") || !strings.Contains(out, `"aircraft":1`) {
		t.Fatalf("log output = %q", out)
	}
}

func TestDesiredStateControllerHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fleet := core.ControlViews([]core.Aircraft{newAircraft(t, "N1")})
	if err := NewDesiredStateController().ExecuteControl(ctx, fleet); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestChainOrderAndErrors(t *testing.T) {
	a := newAircraft(t, "Delta2")
	fleet := core.ControlViews([]core.Aircraft{a})

	climb := Func(func(_ context.Context, fleet []core.Track) error {
		for _, tr := range fleet {
			if c, ok := tr.(core.Controllable); ok {
				c.SendAltitude(9500)
			}
		}
		return nil
	})
	if err := Chain(NewDesiredStateController(), nil, climb).ExecuteControl(context.Background(), fleet); err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if got := a.Command().Altitude; got != 9500 {
		t.Fatalf("altitude = %v, want later controller to win (9500)", got)
	}

	boom := errors.New("boom")
	calls := 0
	failing := Func(func(context.Context, []core.Track) error { return boom })
	counting := Func(func(context.Context, []core.Track) error { calls++; return nil })
	if err := Chain(failing, counting).ExecuteControl(context.Background(), fleet); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if calls != 0 {
		t.Fatalf("controller after failure ran %d times", calls)
	}
}
