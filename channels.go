package ircstate

import (
	"sync"
	"time"
)

// Channel is one channel the client is currently on. The tracker creates
// it when our own JOIN is confirmed and drops it on our PART, KICK, or
// disconnect; a channel entity never outlives our membership.
//
// Mutation happens only inside dispatch handlers, which run one at a
// time. The lock exists for readers outside the dispatch loop, such as
// the admind HTTP surface.
type Channel struct {
	sync.RWMutex
	name   string
	joined time.Time
	lists  *ListModes
}

func newChannel(name string, joined time.Time) *Channel {
	return &Channel{name: name, joined: joined}
}

// GetName returns the channel name as the server spelled it at join time
func (c *Channel) GetName() string {
	c.RLock()
	defer c.RUnlock()
	return c.name
}

// GetJoined returns when our join was confirmed
func (c *Channel) GetJoined() time.Time {
	c.RLock()
	defer c.RUnlock()
	return c.joined
}

// ListEntries returns a copy of the tracked entries for one list mode
func (c *Channel) ListEntries(mode rune) []ListEntry {
	c.RLock()
	defer c.RUnlock()
	if c.lists == nil {
		return nil
	}
	return c.lists.Entries(mode)
}

// ListModeLetters returns the list-mode letters with at least one entry
func (c *Channel) ListModeLetters() []rune {
	c.RLock()
	defer c.RUnlock()
	if c.lists == nil {
		return nil
	}
	return c.lists.Modes()
}

// ListSnapshot returns a copy of every tracked list, keyed by mode letter
func (c *Channel) ListSnapshot() map[string][]ListEntry {
	c.RLock()
	defer c.RUnlock()
	if c.lists == nil {
		return map[string][]ListEntry{}
	}
	snap := make(map[string][]ListEntry, len(c.lists.entries))
	for _, mode := range c.lists.Modes() {
		snap[string(mode)] = c.lists.Entries(mode)
	}
	return snap
}

// initLists gives the channel a fresh, empty list store. Runs from the
// tracker's own-join hook, after the entity itself exists.
func (c *Channel) initLists() {
	c.Lock()
	defer c.Unlock()
	c.lists = NewListModes()
}

// ensureLists returns the list store, creating it if the join hook has
// not run yet. Callers must hold the channel lock.
func (c *Channel) ensureLists() *ListModes {
	if c.lists == nil {
		c.lists = NewListModes()
	}
	return c.lists
}
