// Package conversion keeps model and view trees in sync. Downcast turns model
// changes into view changes, upcast turns view trees into model fragments.
// Both directions fire events which registered handlers process in priority
// order, competing handlers arbitrate through consumables.
package conversion

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// EventKind is the family of conversion event.
type EventKind int

const (
	EventInsert EventKind = iota
	EventRemove
	EventAttribute
	EventAddMarker
	EventRemoveMarker
	EventSelection
	EventSelectionAttribute
	EventSelectionMarker
	EventElement
	EventText
	EventFragment
)

var eventKindNames = map[EventKind]string{
	EventInsert:             "insert",
	EventRemove:             "remove",
	EventAttribute:          "attribute",
	EventAddMarker:          "addMarker",
	EventRemoveMarker:       "removeMarker",
	EventSelection:          "selection",
	EventSelectionAttribute: "selectionAttribute",
	EventSelectionMarker:    "selectionMarker",
	EventElement:            "element",
	EventText:               "text",
	EventFragment:           "documentFragment",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// EventName is event kind with optional qualifier made of ":" separated
// segments, for example insert + "paragraph" or addMarker + "search:1".
// Handler registered with a qualifier receives events whose qualifier
// starts with the same segments.
type EventName struct {
	Kind      EventKind
	Qualifier string
}

// Event creates event name from kind and qualifier segments.
func Event(kind EventKind, segments ...string) EventName {
	return EventName{Kind: kind, Qualifier: strings.Join(segments, ":")}
}

// ParseEventName parses "kind[:qualifier]" form.
func ParseEventName(s string) (EventName, error) {
	kind, qualifier, _ := strings.Cut(s, ":")
	for k, name := range eventKindNames {
		if name == kind {
			return EventName{Kind: k, Qualifier: qualifier}, nil
		}
	}
	return EventName{}, fmt.Errorf("unknown event kind %q", kind)
}

func (n EventName) String() string {
	if n.Qualifier == "" {
		return n.Kind.String()
	}
	return n.Kind.String() + ":" + n.Qualifier
}

func (n EventName) segments() int {
	if n.Qualifier == "" {
		return 0
	}
	return strings.Count(n.Qualifier, ":") + 1
}

// matches reports whether handler registered under n receives fired event.
func (n EventName) matches(fired EventName) bool {
	if n.Kind != fired.Kind {
		return false
	}
	return n.Qualifier == "" || fired.Qualifier == n.Qualifier || strings.HasPrefix(fired.Qualifier, n.Qualifier+":")
}

// ConsumableName returns capability name handlers of the event consume:
// attribute families keep the attribute key, marker families keep the whole
// marker name, other kinds use kind alone.
func (n EventName) ConsumableName() string {
	switch n.Kind {
	case EventAttribute, EventSelectionAttribute:
		key, _, _ := strings.Cut(n.Qualifier, ":")
		return n.Kind.String() + ":" + key
	case EventAddMarker, EventRemoveMarker, EventSelectionMarker:
		return n.String()
	}
	return n.Kind.String()
}

// Priority orders handlers, lower values run first.
type Priority int

const (
	PriorityHighest Priority = -100000
	PriorityHigh    Priority = -1000
	PriorityNormal  Priority = 0
	PriorityLow     Priority = 1000
	PriorityLowest  Priority = 100000
)

var priorityNames = map[string]Priority{
	"highest": PriorityHighest,
	"high":    PriorityHigh,
	"normal":  PriorityNormal,
	"low":     PriorityLow,
	"lowest":  PriorityLowest,
}

// ParsePriority accepts symbolic band name or integer. Empty string is
// normal priority.
func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityNormal, nil
	}
	if p, ok := priorityNames[strings.ToLower(s)]; ok {
		return p, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad priority %q: %w", s, err)
	}
	return Priority(n), nil
}

// EventInfo is passed to every handler. Stop prevents the remaining handlers
// of this firing from running.
type EventInfo struct {
	Name    EventName
	stopped bool
}

func (e *EventInfo) Stop()         { e.stopped = true }
func (e *EventInfo) Stopped() bool { return e.stopped }

type listener[D, A any] struct {
	name     EventName
	priority Priority
	seq      int
	fn       func(evt *EventInfo, data D, api A) error
}

// emitter keeps listeners ordered by priority, then by qualifier
// specificity (more segments first), then by registration order.
type emitter[D, A any] struct {
	listeners []*listener[D, A]
	seq       int
}

func (em *emitter[D, A]) on(name EventName, fn func(*EventInfo, D, A) error, priority Priority) func() {
	em.seq++
	l := &listener[D, A]{name: name, priority: priority, seq: em.seq, fn: fn}
	em.listeners = append(em.listeners, l)
	slices.SortStableFunc(em.listeners, func(a, b *listener[D, A]) int {
		if a.priority != b.priority {
			return int(a.priority) - int(b.priority)
		}
		if sa, sb := a.name.segments(), b.name.segments(); sa != sb {
			return sb - sa
		}
		return a.seq - b.seq
	})
	return func() {
		em.listeners = slices.DeleteFunc(em.listeners, func(x *listener[D, A]) bool { return x == l })
	}
}

func (em *emitter[D, A]) has(name EventName) bool {
	return slices.ContainsFunc(em.listeners, func(l *listener[D, A]) bool { return l.name.matches(name) })
}

// fire calls matching listeners, first error aborts the firing.
func (em *emitter[D, A]) fire(name EventName, data D, api A) (*EventInfo, error) {
	evt := &EventInfo{Name: name}
	for _, l := range slices.Clone(em.listeners) {
		if !l.name.matches(name) {
			continue
		}
		if err := l.fn(evt, data, api); err != nil {
			return evt, fmt.Errorf("%s: %w", name, err)
		}
		if evt.stopped {
			break
		}
	}
	return evt, nil
}
