package ircstate

import (
	"strings"
	"sync"
)

// ModeGroups is the CHANMODES partition: four classes of channel mode
// letters that differ in how they consume parameters.
//
//	0: list modes, parameter in both directions (b, e, I, q ...)
//	1: always a parameter (k ...)
//	2: parameter only when set (l ...)
//	3: never a parameter (i, m, n, t ...)
type ModeGroups [4]string

// ParseChanModes parses a CHANMODES token value such as
// "beIq,k,l,imnpst". Groups past the fourth are daemon extensions and are
// ignored; missing groups are empty.
func ParseChanModes(value string) ModeGroups {
	var g ModeGroups
	for i, part := range strings.SplitN(value, ",", 5) {
		if i >= len(g) {
			break
		}
		g[i] = part
	}
	return g
}

// ListModes returns the list-mode letters as one word, the shape a MODE
// list query wants.
func (g ModeGroups) ListModes() string { return g[0] }

// IsListMode reports whether mode is in the list class.
func (g ModeGroups) IsListMode(mode rune) bool {
	return strings.ContainsRune(g[0], mode)
}

// Known reports whether mode appears in any class.
func (g ModeGroups) Known(mode rune) bool {
	for _, group := range g {
		if strings.ContainsRune(group, mode) {
			return true
		}
	}
	return false
}

// TakesParam reports whether mode consumes a parameter in the given
// direction. Unknown letters never do.
func (g ModeGroups) TakesParam(mode rune, adding bool) bool {
	switch {
	case strings.ContainsRune(g[0], mode):
		return true
	case strings.ContainsRune(g[1], mode):
		return true
	case strings.ContainsRune(g[2], mode):
		return adding
	default:
		return false
	}
}

// PrefixTable maps status-mode letters (o, v, h ...) to the sigils users
// wear in NAMES replies (@, +, % ...). Order is the server's ranking,
// highest first.
type PrefixTable struct {
	modes   string
	symbols string
}

// ParsePrefix parses a PREFIX token value such as "(ov)@+". The zero
// PrefixTable is returned for malformed values, along with false.
func ParsePrefix(value string) (PrefixTable, bool) {
	if len(value) < 2 || value[0] != '(' {
		return PrefixTable{}, false
	}
	end := strings.IndexByte(value, ')')
	if end < 0 {
		return PrefixTable{}, false
	}
	modes := value[1:end]
	symbols := value[end+1:]
	if len(modes) != len(symbols) {
		return PrefixTable{}, false
	}
	return PrefixTable{modes: modes, symbols: symbols}, true
}

// IsStatusMode reports whether mode grants channel status (and therefore
// takes a nick parameter in both directions).
func (p PrefixTable) IsStatusMode(mode rune) bool {
	return strings.ContainsRune(p.modes, mode)
}

// SymbolFor returns the sigil for a status mode.
func (p PrefixTable) SymbolFor(mode rune) (byte, bool) {
	i := strings.IndexRune(p.modes, mode)
	if i < 0 {
		return 0, false
	}
	return p.symbols[i], true
}

// Modes returns the status-mode letters, highest rank first.
func (p PrefixTable) Modes() string { return p.modes }

// ISupport tracks what the server advertised in RPL_ISUPPORT (005)
// tokens. Mode classification is only trusted once the server has actually
// advertised it; guessing CHANMODES means misfiling parameters, so the
// accessors report readiness explicitly and callers fail fast instead.
type ISupport struct {
	mu     sync.RWMutex
	tokens map[string]string

	chanModes    ModeGroups
	haveModes    bool
	prefixes     PrefixTable
	havePrefixes bool
	casemapping  CaseMapping
}

// NewISupport returns an empty tracker. CASEMAPPING starts at rfc1459, the
// protocol default; everything else starts unknown.
func NewISupport() *ISupport {
	return &ISupport{
		tokens:      make(map[string]string),
		casemapping: CaseMappingRFC1459,
	}
}

// Update ingests the tokens of one 005 line: params between the client
// nick and the trailing explanation, each KEY, KEY=value, or -KEY.
func (s *ISupport) Update(tokens []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tok := range tokens {
		if tok == "" || strings.ContainsRune(tok, ' ') {
			// trailing "are supported by this server" text
			continue
		}

		if tok[0] == '-' {
			s.unset(tok[1:])
			continue
		}

		key, value := tok, ""
		if i := strings.IndexByte(tok, '='); i >= 0 {
			key, value = tok[:i], tok[i+1:]
		}
		key = strings.ToUpper(key)
		s.tokens[key] = value

		switch key {
		case "CHANMODES":
			s.chanModes = ParseChanModes(value)
			s.haveModes = true
		case "PREFIX":
			s.prefixes, s.havePrefixes = ParsePrefix(value)
		case "CASEMAPPING":
			s.casemapping = ParseCaseMapping(value)
		}
	}
}

func (s *ISupport) unset(key string) {
	key = strings.ToUpper(key)
	delete(s.tokens, key)
	switch key {
	case "CHANMODES":
		s.chanModes = ModeGroups{}
		s.haveModes = false
	case "PREFIX":
		s.prefixes = PrefixTable{}
		s.havePrefixes = false
	case "CASEMAPPING":
		s.casemapping = CaseMappingRFC1459
	}
}

// Get returns a raw token value and whether the server advertised it.
func (s *ISupport) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.tokens[strings.ToUpper(key)]
	return v, ok
}

// ChanModes returns the advertised mode classes. ok is false until a
// CHANMODES token has arrived.
func (s *ISupport) ChanModes() (ModeGroups, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chanModes, s.haveModes
}

// Prefixes returns the advertised status-mode table. ok is false until a
// well-formed PREFIX token has arrived.
func (s *ISupport) Prefixes() (PrefixTable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefixes, s.havePrefixes
}

// CaseMapping returns the advertised casefolding rule, rfc1459 until told
// otherwise.
func (s *ISupport) CaseMapping() CaseMapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.casemapping
}

// Reset forgets everything; used when the connection drops.
func (s *ISupport) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
	s.chanModes = ModeGroups{}
	s.haveModes = false
	s.prefixes = PrefixTable{}
	s.havePrefixes = false
	s.casemapping = CaseMappingRFC1459
}
