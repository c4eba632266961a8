package ircstate

import (
	"errors"
	"fmt"
)

// ErrCapabilitiesNotReady means a MODE line arrived before the server
// advertised CHANMODES and PREFIX. Classifying mode letters by guesswork
// would misfile parameters and corrupt the lists, so the tracker refuses
// instead. The dispatcher logs it; the event is lost.
var ErrCapabilitiesNotReady = errors.New("isupport capabilities not ready")

// ConsistencyError reports a desync the tracker cannot explain: a server
// list row whose mask we already hold, with a different timestamp but the
// same setter. Two sets of one mask by one setter at different times
// should have reached us as mode changes in between; this means we missed
// one. It is reported and counted, never fatal, and the stored entry is
// left as it was.
type ConsistencyError struct {
	Channel  string
	Mode     rune
	Mask     string
	Setter   string
	LocalTS  int64
	RemoteTS int64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("list desync on %s +%c %s: setter %s, local ts %d, server ts %d",
		e.Channel, e.Mode, e.Mask, e.Setter, e.LocalTS, e.RemoteTS)
}
