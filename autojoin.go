package ircstate

import (
	"sync"
	"time"
)

// Scheduler defers work. The default wraps time.AfterFunc; tests plug in
// a synchronous fake. The returned cancel stops the callback if it has
// not fired yet and is safe to call either way.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) (cancel func())
}

type timerScheduler struct{}

func (timerScheduler) Schedule(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// JoinTarget is one channel to join, with its key when the channel
// wants one.
type JoinTarget struct {
	Channel string
	Key     string
}

// AutoJoinConfig controls the post-registration join burst. Joins are
// staggered rather than fired at once; servers throttle join floods.
type AutoJoinConfig struct {
	Targets []JoinTarget

	// WaitStart is the delay before the first join, default 750ms.
	WaitStart time.Duration

	// Interval is the gap between consecutive joins, default 250ms.
	Interval time.Duration
}

// AutoJoin sends scheduled JOIN commands once the server has welcomed
// us, one channel at a time. Pending joins are cancelled when the
// connection drops.
//
// Scheduled callbacks fire on timer goroutines, so the Sender handed to
// the client must tolerate calls from outside the dispatch loop.
type AutoJoin struct {
	mu      sync.Mutex
	cfg     AutoJoinConfig
	out     Sender
	sched   Scheduler
	pending []func()
}

// NewAutoJoin returns an AutoJoin sending through out with the default
// timer scheduler.
func NewAutoJoin(cfg AutoJoinConfig, out Sender) *AutoJoin {
	if cfg.WaitStart <= 0 {
		cfg.WaitStart = 750 * time.Millisecond
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 250 * time.Millisecond
	}
	return &AutoJoin{
		cfg:   cfg,
		out:   out,
		sched: timerScheduler{},
	}
}

// SetScheduler substitutes the timing source.
func (a *AutoJoin) SetScheduler(s Scheduler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sched = s
}

// OnWelcome schedules one join per configured target, the first after
// WaitStart and each subsequent one Interval later.
func (a *AutoJoin) OnWelcome() {
	a.mu.Lock()
	defer a.mu.Unlock()

	delay := a.cfg.WaitStart
	for _, target := range a.cfg.Targets {
		tgt := target
		cancel := a.sched.Schedule(delay, func() {
			if tgt.Key != "" {
				a.out.Send(CmdJoin, tgt.Channel, tgt.Key)
			} else {
				a.out.Send(CmdJoin, tgt.Channel)
			}
		})
		a.pending = append(a.pending, cancel)
		delay += a.cfg.Interval
	}
}

// OnDisconnect cancels every join still pending.
func (a *AutoJoin) OnDisconnect() {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()

	for _, cancel := range pending {
		cancel()
	}
}
