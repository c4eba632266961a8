package ircstate

import (
	"log"
	"strconv"
	"strings"
	"time"
)

// Client is an IO-free protocol session. Feed it raw lines with
// HandleLine; it keeps channel and list state current and emits the few
// outbound messages tracking needs (PONG, scheduled JOINs, list refresh
// queries) through the configured Sender.
//
// HandleLine and Handle are not safe for concurrent use; call them from
// one reader loop. Reads of the tracked state are safe from any
// goroutine.
type Client struct {
	dispatcher *Dispatcher
	isupport   *ISupport
	state      *State
	bans       *BanTracker
	autojoin   *AutoJoin
	out        Sender

	replies  map[string]rune
	ajCfg    AutoJoinConfig
	listener ChangeListener
	clock    func() time.Time
}

// Option configures a Client at construction.
type Option func(*Client)

// WithSender sets where outbound messages go. Without one, outbound
// messages are logged and dropped. Senders may be called from timer
// goroutines (scheduled joins), not only from the dispatch loop.
func WithSender(s Sender) Option {
	return func(c *Client) { c.out = s }
}

// WithListReplies remaps list-reply numerics to mode letters for daemons
// that renumber them.
func WithListReplies(replies map[string]rune) Option {
	return func(c *Client) { c.replies = replies }
}

// WithAutoJoin configures channels to join after registration.
func WithAutoJoin(cfg AutoJoinConfig) Option {
	return func(c *Client) { c.ajCfg = cfg }
}

// WithChangeListener installs a listener for every list mutation, for
// journaling or display.
func WithChangeListener(l ChangeListener) Option {
	return func(c *Client) { c.listener = l }
}

// WithClock substitutes the time source used to stamp live list changes.
// Tests pin it; everything else wants time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.clock = now }
}

// New assembles a client: ISUPPORT tracking, channel state, list-mode
// tracking and auto-join, wired through one dispatcher.
func New(opts ...Option) *Client {
	c := &Client{
		dispatcher: NewDispatcher(),
		isupport:   NewISupport(),
	}
	c.state = NewState(c.isupport)

	for _, opt := range opts {
		opt(c)
	}

	c.bans = NewBanTracker(c.state, c.isupport, c.state, SenderFunc(c.send))
	if c.replies != nil {
		c.bans.SetListReplies(c.replies)
	}
	if c.listener != nil {
		c.bans.SetChangeListener(c.listener)
	}
	if c.clock != nil {
		c.bans.now = c.clock
	}
	c.autojoin = NewAutoJoin(c.ajCfg, SenderFunc(c.send))

	c.registerBuiltins()
	return c
}

// HandleLine parses one raw line and dispatches it. Unparseable lines are
// logged and skipped; they never stop the loop.
func (c *Client) HandleLine(line string) {
	msg := ParseMessage(line)
	if msg == nil {
		if strings.TrimSpace(line) != "" {
			log.Printf("[ircstate] skipping unparseable line: %q", line)
		}
		return
	}
	c.dispatcher.Dispatch(msg)
}

// Handle dispatches an already-parsed message.
func (c *Client) Handle(msg *Message) {
	c.dispatcher.Dispatch(msg)
}

// Connected announces that a connection is up. Call it once per
// connection, before feeding lines.
func (c *Client) Connected() {
	c.dispatcher.Dispatch(&Message{Command: EventConnected})
}

// Disconnected announces that the connection dropped. Channel state,
// ISUPPORT and pending joins are discarded; the client is ready for a
// fresh Connected.
func (c *Client) Disconnected() {
	c.dispatcher.Dispatch(&Message{Command: EventDisconnected})
}

// On registers an application handler for an event at default priority.
func (c *Client) On(event string, fn HandlerFunc) string {
	return c.dispatcher.On(event, fn)
}

// OnPriority registers an application handler at an explicit priority.
func (c *Client) OnPriority(event string, priority int, fn HandlerFunc) string {
	return c.dispatcher.OnPriority(event, priority, fn)
}

// Off removes a handler by id.
func (c *Client) Off(id string) bool {
	return c.dispatcher.Off(id)
}

// State returns the channel and identity state.
func (c *Client) State() *State { return c.state }

// ISupport returns the server capability tracker.
func (c *Client) ISupport() *ISupport { return c.isupport }

// Tracker returns the list-mode tracker.
func (c *Client) Tracker() *BanTracker { return c.bans }

func (c *Client) send(command string, params ...string) {
	if c.out == nil {
		log.Printf("[ircstate] no sender configured, dropping %s %s", command, strings.Join(params, " "))
		return
	}
	c.out.Send(command, params...)
}

// registerBuiltins wires the built-in handlers. Join handling is split
// across two tiers: the channel entity must exist before the list store
// is attached to it, so state runs at default priority and the tracker
// at PriorityLast.
func (c *Client) registerBuiltins() {
	d := c.dispatcher

	d.On(RPL_WELCOME, c.handleWelcome)
	d.On(RPL_ISUPPORT, c.handleISupport)
	d.On(CmdPing, c.handlePing)
	d.On(CmdNick, c.handleNick)

	d.On(CmdJoin, c.handleJoin)
	d.OnPriority(CmdJoin, PriorityLast, c.handleJoinLists)
	d.On(CmdPart, c.handlePart)
	d.On(CmdKick, c.handleKick)

	d.On(CmdMode, c.handleMode)
	for _, numeric := range c.bans.ListReplyNumerics() {
		d.On(numeric, c.handleListReply)
	}

	d.On(EventDisconnected, c.handleDisconnected)
}

func (c *Client) handleWelcome(m *Message) error {
	if len(m.Params) > 0 {
		c.state.setNick(m.Params[0])
	}
	c.autojoin.OnWelcome()
	return nil
}

func (c *Client) handleISupport(m *Message) error {
	if len(m.Params) < 2 {
		return nil
	}
	// First param is our nick, the rest are tokens
	c.isupport.Update(m.Params[1:])
	return nil
}

func (c *Client) handlePing(m *Message) error {
	c.send(CmdPong, m.Params...)
	return nil
}

func (c *Client) handleNick(m *Message) error {
	source := ParseHostmask(m.Prefix)
	if c.state.IsSelf(source.Nick) && len(m.Params) > 0 {
		c.state.setNick(m.Params[0])
	}
	return nil
}

func (c *Client) handleJoin(m *Message) error {
	source := ParseHostmask(m.Prefix)
	if !c.state.IsSelf(source.Nick) {
		return nil
	}
	for _, name := range splitTargets(m.Param(0)) {
		c.state.addChannel(name, time.Now())
	}
	return nil
}

func (c *Client) handleJoinLists(m *Message) error {
	source := ParseHostmask(m.Prefix)
	if !c.state.IsSelf(source.Nick) {
		return nil
	}
	for _, name := range splitTargets(m.Param(0)) {
		c.bans.OnJoin(name)
	}
	return nil
}

func (c *Client) handlePart(m *Message) error {
	source := ParseHostmask(m.Prefix)
	if !c.state.IsSelf(source.Nick) {
		return nil
	}
	for _, name := range splitTargets(m.Param(0)) {
		c.state.removeChannel(name)
	}
	return nil
}

func (c *Client) handleKick(m *Message) error {
	if len(m.Params) < 2 {
		return nil
	}
	if c.state.IsSelf(m.Params[1]) {
		c.state.removeChannel(m.Params[0])
	}
	return nil
}

func (c *Client) handleMode(m *Message) error {
	if len(m.Params) < 2 {
		// MODE query, nothing changed
		return nil
	}
	target := m.Params[0]
	return c.bans.OnModeChange(target, ParseHostmask(m.Prefix), m.Params[1], m.Params[2:])
}

// handleListReply feeds one list-dump row into the merger. Wire shapes:
//
//	:server 367 me #chan mask setter ts
//	:server 728 me #chan q mask setter ts
//
// The quiet-list numeric repeats the mode letter; it is dropped so the
// merger sees a uniform row. Rows without setter and timestamp (some
// daemons send bare masks) are skipped.
func (c *Client) handleListReply(m *Message) error {
	if len(m.Params) < 2 {
		return nil
	}
	params := m.Params[1:]

	if m.Command == RPL_QUIETLIST && len(params) >= 2 && len(params[1]) == 1 {
		params = append([]string{params[0]}, params[2:]...)
	}

	if len(params) < 4 {
		log.Printf("[ircstate] skipping short list reply %s for %s", m.Command, m.Param(1))
		return nil
	}

	ts, err := strconv.ParseInt(params[3], 10, 64)
	if err != nil {
		log.Printf("[ircstate] skipping list reply %s with bad timestamp %q", m.Command, params[3])
		return nil
	}

	return c.bans.OnListReply(m.Command, params[0], params[1], params[2], ts)
}

func (c *Client) handleDisconnected(m *Message) error {
	c.autojoin.OnDisconnect()
	c.state.Reset()
	c.isupport.Reset()
	return nil
}

// splitTargets splits a comma-separated channel list, as JOIN and PART
// allow.
func splitTargets(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	targets := parts[:0]
	for _, p := range parts {
		if p != "" {
			targets = append(targets, p)
		}
	}
	return targets
}
