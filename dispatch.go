package ircstate

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// HandlerFunc handles one dispatched message. A non-nil error is logged
// and counted against the handler; it never stops the other handlers or
// the event loop.
type HandlerFunc func(msg *Message) error

// Priority tiers. Any int works; these three cover the usual needs.
// Lower values run first, like Unix nice.
const (
	PriorityFirst   = -100
	PriorityDefault = 0
	PriorityLast    = 100
)

type handlerEntry struct {
	id       string
	priority int
	seq      int
	fn       HandlerFunc
}

// Dispatcher routes parsed messages to registered handlers by command
// name. Execution is synchronous and single-file: handlers for one event
// run to completion, in ascending priority (registration order within a
// tier), before the next event is looked at. No two handlers ever run
// concurrently, so handlers need no locking among themselves.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]handlerEntry
	seq      int
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]handlerEntry),
	}
}

// On registers a handler for an event at default priority and returns its
// id for Off. Event names are case-insensitive command or numeric
// strings; EventAll subscribes to everything.
func (d *Dispatcher) On(event string, fn HandlerFunc) string {
	return d.OnPriority(event, PriorityDefault, fn)
}

// OnPriority registers a handler at an explicit priority tier.
func (d *Dispatcher) OnPriority(event string, priority int, fn HandlerFunc) string {
	id := uuid.New().String()
	event = strings.ToUpper(event)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	d.handlers[event] = append(d.handlers[event], handlerEntry{
		id:       id,
		priority: priority,
		seq:      d.seq,
		fn:       fn,
	})
	return id
}

// Off removes a handler by id, reporting whether it was registered.
func (d *Dispatcher) Off(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for event, entries := range d.handlers {
		for i, entry := range entries {
			if entry.id != id {
				continue
			}
			d.handlers[event] = append(entries[:i], entries[i+1:]...)
			if len(d.handlers[event]) == 0 {
				delete(d.handlers, event)
			}
			return true
		}
	}
	return false
}

// Count returns the number of handlers registered for an event, not
// counting wildcard handlers.
func (d *Dispatcher) Count(event string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[strings.ToUpper(event)])
}

// Clear removes all handlers.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = make(map[string][]handlerEntry)
}

// Dispatch runs the handlers for msg's command, plus any wildcard
// handlers, in priority order. Handler errors and panics are logged and
// returned keyed by handler id; nil means every handler succeeded.
func (d *Dispatcher) Dispatch(msg *Message) map[string]error {
	if msg == nil {
		return nil
	}
	command := strings.ToUpper(msg.Command)

	d.mu.RLock()
	named := d.handlers[command]
	wild := d.handlers[EventAll]
	entries := make([]handlerEntry, 0, len(named)+len(wild))
	entries = append(entries, named...)
	entries = append(entries, wild...)
	d.mu.RUnlock()

	if len(entries) == 0 {
		return nil
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority < entries[j].priority
		}
		return entries[i].seq < entries[j].seq
	})

	var errs map[string]error
	fail := func(id string, err error) {
		if errs == nil {
			errs = make(map[string]error)
		}
		errs[id] = err
	}

	for _, entry := range entries {
		err := func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[dispatch] PANIC in handler %s for %s: %v", entry.id, msg.Command, r)
					fail(entry.id, fmt.Errorf("panic in handler for %s: %v", msg.Command, r))
				}
			}()
			return entry.fn(msg)
		}()

		if err != nil {
			fail(entry.id, err)
			log.Printf("[dispatch] handler %s for %s: %v", entry.id, msg.Command, err)
		}
	}

	return errs
}
