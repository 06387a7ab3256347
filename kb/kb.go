package kb

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/brunoga/deep"

	"github.com/signalsfoundry/airspace-simulator/core"
	"github.com/signalsfoundry/airspace-simulator/model"
)

var (
	// ErrAircraftExists indicates an aircraft with the same name is already
	// in the fleet.
	ErrAircraftExists = errors.New("aircraft already exists")
	// ErrAircraftNotFound indicates a requested aircraft is not in the fleet.
	ErrAircraftNotFound = errors.New("aircraft not found")
	// ErrNilAircraft indicates a nil aircraft, including a nil pointer held
	// in a non-nil interface.
	ErrNilAircraft = errors.New("nil aircraft")
)

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	EventAircraftAdded EventType = iota
	EventAircraftRemoved
)

func (t EventType) String() string {
	switch t {
	case EventAircraftAdded:
		return "added"
	case EventAircraftRemoved:
		return "removed"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is emitted to subscribers when the fleet changes.
type Event struct {
	Type     EventType
	Aircraft model.AircraftState
	// Reason is free-form context for removals, e.g. "collision".
	Reason string
}

// KnowledgeBase is the in-memory, thread-safe fleet of aircraft keyed by
// unique name.
type KnowledgeBase struct {
	mu sync.RWMutex

	aircraft map[string]core.Aircraft

	subs   map[int]func(Event)
	nextID int
}

// NewKnowledgeBase constructs an empty KB.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		aircraft: make(map[string]core.Aircraft),
		subs:     make(map[int]func(Event)),
	}
}

// AddAircraft adds a to the fleet. Same-named aircraft are never merged.
func (kb *KnowledgeBase) AddAircraft(a core.Aircraft) error {
	if isNil(a) {
		return ErrNilAircraft
	}
	kb.mu.Lock()
	if _, exists := kb.aircraft[a.Name()]; exists {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrAircraftExists, a.Name())
	}
	kb.aircraft[a.Name()] = a
	subs := kb.subscribers()
	kb.mu.Unlock()

	kb.notify(subs, Event{Type: EventAircraftAdded, Aircraft: Snapshot(a)})
	return nil
}

func isNil(a core.Aircraft) bool {
	if a == nil {
		return true
	}
	v := reflect.ValueOf(a)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// GetAircraft returns the aircraft with the given name, or nil.
func (kb *KnowledgeBase) GetAircraft(name string) core.Aircraft {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.aircraft[name]
}

// RemoveAircraft drops the named aircraft and notifies subscribers.
func (kb *KnowledgeBase) RemoveAircraft(name, reason string) error {
	notify, err := kb.Detach(name, reason)
	if err != nil {
		return err
	}
	notify()
	return nil
}

// Detach drops the named aircraft and returns a function that notifies
// subscribers of the removal. Callers holding their own locks run it once
// those are released, so subscribers may call back into them.
func (kb *KnowledgeBase) Detach(name, reason string) (notify func(), err error) {
	kb.mu.Lock()
	a, ok := kb.aircraft[name]
	if !ok {
		kb.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrAircraftNotFound, name)
	}
	delete(kb.aircraft, name)
	subs := kb.subscribers()
	kb.mu.Unlock()

	e := Event{Type: EventAircraftRemoved, Aircraft: Snapshot(a), Reason: reason}
	return func() { kb.notify(subs, e) }, nil
}

// ListAircraft returns the fleet ordered by name. The slice is a fresh copy;
// the aircraft are shared.
func (kb *KnowledgeBase) ListAircraft() []core.Aircraft {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	res := make([]core.Aircraft, 0, len(kb.aircraft))
	for _, a := range kb.aircraft {
		res = append(res, a)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name() < res[j].Name() })
	return res
}

// Len returns the number of aircraft in the fleet.
func (kb *KnowledgeBase) Len() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.aircraft)
}

// Snapshots returns a copy of every aircraft's state, ordered by name.
func (kb *KnowledgeBase) Snapshots() []model.AircraftState {
	fleet := kb.ListAircraft()
	res := make([]model.AircraftState, 0, len(fleet))
	for _, a := range fleet {
		res = append(res, Snapshot(a))
	}
	return res
}

// Subscribe registers a callback for KB events. It returns an unsubscribe
// function. Callbacks run synchronously, outside the KB lock, and each
// receives its own copy of the event.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	id := kb.nextID
	kb.nextID++
	kb.subs[id] = fn

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, id)
	}
}

// subscribers must be called with kb.mu held.
func (kb *KnowledgeBase) subscribers() []func(Event) {
	ids := make([]int, 0, len(kb.subs))
	for id := range kb.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, kb.subs[id])
	}
	return subs
}

func (kb *KnowledgeBase) notify(subs []func(Event), e Event) {
	for _, sub := range subs {
		sub(deep.MustCopy(e))
	}
}

// Snapshot copies t's observable state.
func Snapshot(t core.Track) model.AircraftState {
	s := model.AircraftState{
		Name:     t.Name(),
		Position: t.Position(),
		Velocity: t.Velocity(),
		Heading:  t.Heading(),
	}
	if c, ok := t.(core.Controllable); ok {
		s.Goal = &model.Goal{
			Heading:  c.DesiredHeading(),
			Altitude: c.DesiredAltitude(),
			Speed:    c.DesiredSpeed(),
		}
	}
	return s
}
