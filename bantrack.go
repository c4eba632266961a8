package ircstate

import "time"

// ChannelRegistry resolves channel names to tracked channel entities.
// Lookup returns nil for channels we are not on.
type ChannelRegistry interface {
	Lookup(name string) *Channel
}

// CapabilityProvider reports what the server advertised about its mode
// grammar. The ok results are false until the server has said; the
// tracker refuses to classify modes by guesswork.
type CapabilityProvider interface {
	ChanModes() (ModeGroups, bool)
	Prefixes() (PrefixTable, bool)
}

// IdentityProvider reports who we are and how this network compares
// strings.
type IdentityProvider interface {
	Nick() string
	Casefold(s string) string
}

// Sender carries the tracker's few outbound messages.
type Sender interface {
	Send(command string, params ...string)
}

// SenderFunc adapts a plain function to the Sender interface.
type SenderFunc func(command string, params ...string)

// Send calls f
func (f SenderFunc) Send(command string, params ...string) { f(command, params...) }

// ListAction labels what a list mutation did.
type ListAction string

const (
	ActionAdd         ListAction = "add"
	ActionRemove      ListAction = "remove"
	ActionReplace     ListAction = "replace"
	ActionSyncNew     ListAction = "sync-new"
	ActionSyncReplace ListAction = "sync-replace"
)

// ListChange describes one mutation of a channel list. Remove events
// carry the entry that was dropped; every other action carries the entry
// now in the store.
type ListChange struct {
	Channel string
	Mode    rune
	Action  ListAction
	Entry   ListEntry
}

// ChangeListener receives every list mutation, after the store has been
// updated. Listeners run on the dispatch goroutine; slow work belongs on
// the listener's own side.
type ChangeListener interface {
	ListChanged(ListChange)
}

// BanTracker keeps channel list modes (+b, +e, +I, +q and whatever else
// the server puts in the list class) in sync with reality. Two inputs
// feed it: live MODE changes, reconciled entry by entry, and list-reply
// numerics, merged in bulk when the server dumps a list.
//
// All collaborators are constructor-injected; the tracker holds no global
// state and can be pointed at fakes wholesale in tests.
type BanTracker struct {
	channels ChannelRegistry
	caps     CapabilityProvider
	identity IdentityProvider
	out      Sender

	replies  map[string]rune
	listener ChangeListener
	now      func() time.Time
}

// NewBanTracker wires a tracker to its collaborators. The numeric table
// starts at DefaultListReplies.
func NewBanTracker(channels ChannelRegistry, caps CapabilityProvider, identity IdentityProvider, out Sender) *BanTracker {
	return &BanTracker{
		channels: channels,
		caps:     caps,
		identity: identity,
		out:      out,
		replies:  DefaultListReplies(),
		now:      time.Now,
	}
}

// SetListReplies replaces the numeric-to-letter table, for daemons that
// renumber their list replies.
func (t *BanTracker) SetListReplies(replies map[string]rune) {
	t.replies = make(map[string]rune, len(replies))
	for numeric, mode := range replies {
		t.replies[numeric] = mode
	}
}

// SetChangeListener installs a listener for list mutations. One listener;
// fan-out is the listener's business.
func (t *BanTracker) SetChangeListener(l ChangeListener) {
	t.listener = l
}

// ListReplyNumerics returns the numerics the tracker currently merges.
func (t *BanTracker) ListReplyNumerics() []string {
	numerics := make([]string, 0, len(t.replies))
	for numeric := range t.replies {
		numerics = append(numerics, numeric)
	}
	return numerics
}

// OnJoin gives a channel a fresh, empty list store. Call it when our own
// join is confirmed, after the channel entity exists; the lists then fill
// from the server's list dumps and live mode changes.
func (t *BanTracker) OnJoin(channelName string) {
	ch := t.channels.Lookup(channelName)
	if ch == nil {
		return
	}
	ch.initLists()
}

// OnModeChange reconciles one channel MODE event into the tracked lists.
//
// Each (mode, param, adding) triple from the mode string is applied in
// order: list-mode additions replace a casefold-equal entry in place or
// append, removals delete the casefold-equal entry, and removals of
// masks we never saw are ignored. Entries recorded here carry the event's
// setter and the current clock second.
//
// Status modes do not touch the lists, but changing our own status
// changes what the server will show us, so gaining status queues a list
// refresh. One MODE query at most leaves per event, and only when the
// last status change affecting our nick was a grant.
//
// Unknown channels are a silent no-op. A MODE event that arrives before
// the server has advertised CHANMODES and PREFIX returns
// ErrCapabilitiesNotReady and is dropped.
func (t *BanTracker) OnModeChange(channelName string, setter Hostmask, modes string, params []string) error {
	ch := t.channels.Lookup(channelName)
	if ch == nil {
		return nil
	}

	groups, ok := t.caps.ChanModes()
	if !ok {
		CapabilityFaultsTotal.Inc()
		return ErrCapabilitiesNotReady
	}
	prefixes, ok := t.caps.Prefixes()
	if !ok {
		CapabilityFaultsTotal.Inc()
		return ErrCapabilitiesNotReady
	}

	ModeEventsTotal.Inc()
	name := ch.GetName()
	nowTS := t.now().Unix()
	sendRequest := false
	var changes []ListChange

	ch.Lock()
	lists := ch.ensureLists()
	for _, mc := range ParseModes(modes, params, groups, prefixes) {
		if mc.Param == "" {
			continue
		}

		if prefixes.IsStatusMode(mc.Mode) && mc.Mode != 'v' {
			// Only re-check the nick when this triple's direction would
			// flip the flag; the last change to our own status wins.
			if sendRequest != mc.Adding && t.isSelf(mc.Param) {
				sendRequest = mc.Adding
			}
		}

		if !groups.IsListMode(mc.Mode) {
			continue
		}

		folded := t.identity.Casefold(mc.Param)
		matched := false
		for i := 0; i < lists.Len(mc.Mode); i++ {
			if t.identity.Casefold(lists.at(mc.Mode, i).Mask) != folded {
				continue
			}
			matched = true
			if mc.Adding {
				// Re-set of a known mask: same position, new setter,
				// new time, and the mask as freshly spelled.
				entry := ListEntry{Mask: mc.Param, Setter: setter, Timestamp: nowTS}
				lists.set(mc.Mode, i, entry)
				changes = append(changes, ListChange{Channel: name, Mode: mc.Mode, Action: ActionReplace, Entry: entry})
			} else {
				removed := lists.at(mc.Mode, i)
				lists.remove(mc.Mode, i)
				changes = append(changes, ListChange{Channel: name, Mode: mc.Mode, Action: ActionRemove, Entry: removed})
			}
			break
		}
		if !matched && mc.Adding {
			entry := ListEntry{Mask: mc.Param, Setter: setter, Timestamp: nowTS}
			lists.add(mc.Mode, entry)
			changes = append(changes, ListChange{Channel: name, Mode: mc.Mode, Action: ActionAdd, Entry: entry})
		}
	}
	ch.Unlock()

	t.notify(changes)

	if sendRequest && groups.ListModes() != "" {
		RefreshQueriesTotal.Inc()
		t.out.Send(CmdMode, name, groups.ListModes())
	}

	return nil
}

// OnListReply merges one list-dump row into the tracked state.
//
// Rows match stored entries by exact mask string; the server echoes list
// contents verbatim, so no folding is applied here. An unknown row
// appends. A known mask with the same timestamp is already in sync. A
// known mask with a different timestamp means we drifted: if the setters
// differ the server wins and the entry is replaced, but the same setter
// re-setting the same mask at a different time is a contradiction we
// cannot repair, reported as a *ConsistencyError with the entry left
// alone.
//
// Numerics outside the configured table and unknown channels are silent
// no-ops.
func (t *BanTracker) OnListReply(numeric string, channelName string, mask string, setter string, timestamp int64) error {
	mode, ok := t.replies[numeric]
	if !ok {
		return nil
	}

	ch := t.channels.Lookup(channelName)
	if ch == nil {
		return nil
	}

	ListRepliesTotal.WithLabelValues(string(mode)).Inc()
	entry := ListEntry{Mask: mask, Setter: ParseHostmask(setter), Timestamp: timestamp}
	name := ch.GetName()

	ch.Lock()
	change, err := t.merge(ch.ensureLists(), name, mode, entry)
	ch.Unlock()

	if err != nil {
		DesyncsTotal.Inc()
		return err
	}
	if change != nil {
		t.notify([]ListChange{*change})
	}
	return nil
}

// merge applies one list-reply entry to a store. Caller holds the channel
// lock. A nil, nil return means the row changed nothing.
func (t *BanTracker) merge(lists *ListModes, channel string, mode rune, entry ListEntry) (*ListChange, error) {
	for i := 0; i < lists.Len(mode); i++ {
		cur := lists.at(mode, i)
		if cur.Mask != entry.Mask {
			continue
		}

		if cur.Timestamp == entry.Timestamp {
			return nil, nil
		}

		if t.identity.Casefold(cur.Setter.String()) == t.identity.Casefold(entry.Setter.String()) {
			return nil, &ConsistencyError{
				Channel:  channel,
				Mode:     mode,
				Mask:     entry.Mask,
				Setter:   entry.Setter.String(),
				LocalTS:  cur.Timestamp,
				RemoteTS: entry.Timestamp,
			}
		}

		lists.set(mode, i, entry)
		return &ListChange{Channel: channel, Mode: mode, Action: ActionSyncReplace, Entry: entry}, nil
	}

	lists.add(mode, entry)
	return &ListChange{Channel: channel, Mode: mode, Action: ActionSyncNew, Entry: entry}, nil
}

func (t *BanTracker) isSelf(nick string) bool {
	own := t.identity.Nick()
	if own == "" {
		return false
	}
	return t.identity.Casefold(nick) == t.identity.Casefold(own)
}

func (t *BanTracker) notify(changes []ListChange) {
	for _, change := range changes {
		ListChangesTotal.WithLabelValues(string(change.Action)).Inc()
		if t.listener != nil {
			t.listener.ListChanged(change)
		}
	}
}
