package ircstate

import "sort"

// ListEntry is one row of a channel list: the verbatim mask, who set it,
// and when, in whole seconds since the epoch. For live mode changes the
// timestamp is our own clock; for list-reply rows it is the server's.
type ListEntry struct {
	Mask      string   `json:"mask"`
	Setter    Hostmask `json:"setter"`
	Timestamp int64    `json:"timestamp"`
}

// ListModes holds a channel's list-type mode contents, one ordered
// sequence of entries per mode letter. Order is arrival order: the
// reconciliation engine replaces in place, deletes close the gap, and new
// entries append to the tail.
//
// Mutation belongs to the tracking engine; everything exported here is
// read access and returns copies.
type ListModes struct {
	entries map[rune][]ListEntry
}

// NewListModes returns an empty store. Per-letter sequences are created on
// first write, so the store needs no knowledge of which letters the server
// supports.
func NewListModes() *ListModes {
	return &ListModes{entries: make(map[rune][]ListEntry)}
}

// Entries returns a copy of the sequence for a mode letter, in stored
// order.
func (l *ListModes) Entries(mode rune) []ListEntry {
	seq := l.entries[mode]
	if len(seq) == 0 {
		return nil
	}
	out := make([]ListEntry, len(seq))
	copy(out, seq)
	return out
}

// Modes returns the letters that currently hold at least one entry,
// sorted.
func (l *ListModes) Modes() []rune {
	modes := make([]rune, 0, len(l.entries))
	for mode, seq := range l.entries {
		if len(seq) > 0 {
			modes = append(modes, mode)
		}
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}

// Len returns the number of entries for a mode letter.
func (l *ListModes) Len(mode rune) int {
	return len(l.entries[mode])
}

// at returns the i-th entry without copying. Engine use only.
func (l *ListModes) at(mode rune, i int) ListEntry {
	return l.entries[mode][i]
}

func (l *ListModes) set(mode rune, i int, e ListEntry) {
	l.entries[mode][i] = e
}

func (l *ListModes) add(mode rune, e ListEntry) {
	l.entries[mode] = append(l.entries[mode], e)
}

func (l *ListModes) remove(mode rune, i int) {
	seq := l.entries[mode]
	l.entries[mode] = append(seq[:i], seq[i+1:]...)
}
