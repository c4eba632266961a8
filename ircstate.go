/*
Package ircstate tracks client-side IRC channel state, with a focus on
list-type channel modes: bans (+b), ban exceptions (+e), invite exceptions
(+I) and quiets (+q).

The package owns no sockets. Callers feed raw protocol lines into a Client
and supply a Sender for the few outbound messages the tracker needs (PONG,
list refresh queries, scheduled JOINs). That keeps the package usable behind
any transport: a direct connection, a bouncer, a test harness, or a log
replay.

# Features

## List-mode tracking

- Per-channel, per-letter ordered lists of (mask, setter, timestamp) entries
- Live reconciliation of MODE changes, including compound strings such as
  "+bb-o" with interleaved parameters
- Bulk synchronization from list-reply numerics (367/348/346/728 by
  default, remappable for other daemons)
- Desync detection between live state and server list dumps

## Protocol awareness

- ISUPPORT (005) parsing: CHANMODES classes, PREFIX status modes,
  CASEMAPPING
- rfc1459, strict-rfc1459 and ascii casefolding
- Own-nick tracking across welcome and NICK changes
- Automatic list refresh when the client's own channel status changes

## Plumbing

- Priority-ordered synchronous event dispatch
- Staggered auto-join after registration
- Prometheus metrics, an optional HTTP introspection API (admind) and an
  optional persistent change journal (audit)

# Usage

	client := ircstate.New(ircstate.WithSender(ircstate.SenderFunc(send)))
	client.Connected()
	for line := range lines {
		client.HandleLine(line)
	}

Client.HandleLine is not safe for concurrent use; run it from a single
reader loop. State reads (from admind or application code) are safe at any
time.
*/
package ircstate
