package cloudvar_client

import "sync"

// EventKind identifies one of the session's notification streams.
type EventKind int

const (
	// EventOpen fires after a connection opens and the handshake plus
	// any queued packets have been written.
	EventOpen EventKind = iota
	// EventClose fires when the transport closes. Err carries the
	// cause; it is nil when the session was closed deliberately.
	EventClose
	// EventError reports a transport fault. It does not change
	// connection state by itself; a close follows when the transport
	// drops.
	EventError
	// EventSetup fires once per session, after the first non-empty
	// inbound frame has been applied to an empty variable store.
	EventSetup
	// EventSet reports a remote update to an already known variable.
	EventSet
	// EventAddVariable reports the first observation of a variable.
	EventAddVariable
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventClose:
		return "close"
	case EventError:
		return "error"
	case EventSetup:
		return "setup"
	case EventSet:
		return "set"
	case EventAddVariable:
		return "addvariable"
	}
	return "unknown"
}

// Event is the payload delivered to listeners. Name and Value are set
// for EventSet and EventAddVariable; Err for EventError and EventClose.
type Event struct {
	Kind  EventKind
	Name  string
	Value string
	Err   error
}

// Subscription identifies one registered listener for later removal.
type Subscription struct {
	kind EventKind
	id   uint64
}

type listenerEntry struct {
	id   uint64
	once bool
	fn   func(Event)
}

// emitter dispatches events to per-kind listener lists in registration
// order. Its lock is independent of the session mutex so listeners may
// call back into the session.
type emitter struct {
	mu     sync.Mutex
	nextID uint64
	lists  map[EventKind][]listenerEntry
}

func newEmitter() *emitter {
	return &emitter{lists: make(map[EventKind][]listenerEntry)}
}

func (e *emitter) on(kind EventKind, fn func(Event), once bool) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.lists[kind] = append(e.lists[kind], listenerEntry{id: e.nextID, once: once, fn: fn})
	return Subscription{kind: kind, id: e.nextID}
}

func (e *emitter) off(sub Subscription) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	list := e.lists[sub.kind]
	for i, entry := range list {
		if entry.id == sub.id {
			e.lists[sub.kind] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// emit invokes every listener registered for the event's kind, in
// registration order. Once-listeners are dropped from the list before
// their callback runs so they cannot fire twice even if the callback
// re-emits.
func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	list := e.lists[ev.Kind]
	fns := make([]func(Event), len(list))
	for i, entry := range list {
		fns[i] = entry.fn
	}
	kept := list[:0]
	for _, entry := range list {
		if !entry.once {
			kept = append(kept, entry)
		}
	}
	e.lists[ev.Kind] = kept
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
