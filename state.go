package ircstate

import (
	"sort"
	"sync"
	"time"
)

// State tracks who we are and which channels we are on. It is the
// ChannelRegistry and IdentityProvider the reconciliation engine works
// against; everything in it is driven by dispatch handlers in client.go.
type State struct {
	mu       sync.RWMutex
	nick     string
	channels map[string]*Channel // keyed by casefolded name
	isupport *ISupport
}

// NewState returns an empty state bound to an ISUPPORT tracker for
// casefolding.
func NewState(isupport *ISupport) *State {
	return &State{
		channels: make(map[string]*Channel),
		isupport: isupport,
	}
}

// Nick returns our current nickname, empty before registration.
func (s *State) Nick() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nick
}

// Casefold lowercases s under the server's advertised casemapping.
func (s *State) Casefold(str string) string {
	return s.isupport.CaseMapping().Fold(str)
}

// IsSelf reports whether nick is our own, under casefolding.
func (s *State) IsSelf(nick string) bool {
	s.mu.RLock()
	own := s.nick
	s.mu.RUnlock()
	if own == "" {
		return false
	}
	cm := s.isupport.CaseMapping()
	return cm.FoldEqual(nick, own)
}

// Lookup returns the channel entity for name, nil when we are not on it.
func (s *State) Lookup(name string) *Channel {
	key := s.Casefold(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channels[key]
}

// Channels returns the names of every tracked channel, sorted.
func (s *State) Channels() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.channels))
	for _, ch := range s.channels {
		names = append(names, ch.GetName())
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

func (s *State) setNick(nick string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nick = nick
}

// addChannel creates and stores an entity for a freshly joined channel,
// returning it. An existing entity for the same name is replaced; the
// server confirming a second join means the old membership is gone.
func (s *State) addChannel(name string, joined time.Time) *Channel {
	ch := newChannel(name, joined)
	key := s.Casefold(name)
	s.mu.Lock()
	s.channels[key] = ch
	s.mu.Unlock()
	return ch
}

func (s *State) removeChannel(name string) {
	key := s.Casefold(name)
	s.mu.Lock()
	delete(s.channels, key)
	s.mu.Unlock()
}

// Reset drops all channel and identity state; used on disconnect.
func (s *State) Reset() {
	s.mu.Lock()
	s.nick = ""
	s.channels = make(map[string]*Channel)
	s.mu.Unlock()
}
