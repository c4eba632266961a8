package ircstate

// ModeChange is one (mode, param, adding) triple from a MODE line. Param
// is "" when the mode took no parameter; IRC parameters are never empty
// strings on the wire, so the two cases cannot collide.
type ModeChange struct {
	Mode   rune
	Param  string
	Adding bool
}

// ParseModes interprets a mode string and its parameter words against the
// server's CHANMODES classes and PREFIX table, yielding one triple per
// mode letter in input order.
//
// Parameter consumption follows the grammar: list modes and always-param
// modes eat a parameter in both directions, set-param modes only when
// adding, status modes (from the prefix table) in both directions, and
// everything else never. A letter whose required parameter is missing is
// dropped entirely rather than emitted with a placeholder.
//
// The walk is stateless and deterministic; it never consults channel or
// connection state.
func ParseModes(modes string, params []string, groups ModeGroups, prefixes PrefixTable) []ModeChange {
	changes := make([]ModeChange, 0, len(modes))
	adding := true
	next := 0

	for _, mode := range modes {
		switch mode {
		case '+':
			adding = true
			continue
		case '-':
			adding = false
			continue
		}

		needsParam := groups.TakesParam(mode, adding) || prefixes.IsStatusMode(mode)

		var param string
		if needsParam {
			if next >= len(params) {
				continue
			}
			param = params[next]
			next++
		}

		changes = append(changes, ModeChange{Mode: mode, Param: param, Adding: adding})
	}

	return changes
}
