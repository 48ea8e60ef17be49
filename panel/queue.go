package panel

import "sync"

// EventKind names a panel action.
type EventKind int

const (
	// ApplySettings replaces the renderer's settings with Event.Settings.
	ApplySettings EventKind = iota
	// Spin starts a full turn of the scene plane.
	Spin
	// ToggleVisibility flips Settings.Visible.
	ToggleVisibility
	// RetargetColor picks a new random persist color target now.
	RetargetColor
)

func (k EventKind) String() string {
	switch k {
	case ApplySettings:
		return "apply-settings"
	case Spin:
		return "spin"
	case ToggleVisibility:
		return "toggle-visibility"
	case RetargetColor:
		return "retarget-color"
	default:
		return "unknown"
	}
}

// Event is one queued action.
type Event struct {
	Kind     EventKind
	Settings Settings
}

// Queue carries events from input callbacks and the watcher to the render
// loop, which drains it once per tick. Push is safe from any goroutine.
type Queue struct {
	mu     sync.Mutex
	events []Event
}

// Push appends an event.
func (q *Queue) Push(e Event) {
	q.mu.Lock()
	q.events = append(q.events, e)
	q.mu.Unlock()
}

// Trigger pushes an event with no payload.
func (q *Queue) Trigger(kind EventKind) { q.Push(Event{Kind: kind}) }

// Apply pushes a settings replacement.
func (q *Queue) Apply(s Settings) { q.Push(Event{Kind: ApplySettings, Settings: s}) }

// Drain returns the queued events in push order and empties the queue.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = nil
	return out
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
