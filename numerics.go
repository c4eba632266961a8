package ircstate

// Numeric replies the tracker reacts to, as they appear on the wire. The
// underscore names follow the IRC numerics registry rather than Go style;
// they are what every RFC and daemon source calls them.
const (
	RPL_WELCOME  = "001"
	RPL_ISUPPORT = "005"

	RPL_CHANNELMODEIS = "324"

	RPL_INVITELIST      = "346"
	RPL_ENDOFINVITELIST = "347"
	RPL_EXCEPTLIST      = "348"
	RPL_ENDOFEXCEPTLIST = "349"

	RPL_BANLIST      = "367"
	RPL_ENDOFBANLIST = "368"

	// Charybdis-family quiet list. Rows carry the mode letter as an extra
	// parameter, unlike the 3xx list numerics.
	RPL_QUIETLIST      = "728"
	RPL_ENDOFQUIETLIST = "729"
)

// Commands the tracker handles.
const (
	CmdJoin = "JOIN"
	CmdPart = "PART"
	CmdKick = "KICK"
	CmdMode = "MODE"
	CmdNick = "NICK"
	CmdQuit = "QUIT"
	CmdPing = "PING"
	CmdPong = "PONG"
)

// Pseudo-events fired by the Client itself. They never arrive on the wire;
// features hook them for lifecycle work (auto-join scheduling, state reset).
const (
	EventConnected    = "CONNECTED"
	EventDisconnected = "DISCONNECTED"

	// EventAll matches every dispatched event, wire or pseudo.
	EventAll = "*"
)

// DefaultListReplies maps list-reply numerics to the list-mode letter each
// one reports. Daemons outside the Charybdis family renumber some of these;
// construct the tracker with WithListReplies to remap.
func DefaultListReplies() map[string]rune {
	return map[string]rune{
		RPL_BANLIST:    'b',
		RPL_EXCEPTLIST: 'e',
		RPL_INVITELIST: 'I',
		RPL_QUIETLIST:  'q',
	}
}
