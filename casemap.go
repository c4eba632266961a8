package ircstate

import "strings"

// CaseMapping is a server-advertised casefolding rule. IRC equality is not
// Unicode equality: under the default rfc1459 mapping the characters []\^
// are the upper-case forms of {}|~, a leftover from the Scandinavian
// origins of the protocol.
type CaseMapping string

const (
	CaseMappingASCII         CaseMapping = "ascii"
	CaseMappingRFC1459       CaseMapping = "rfc1459"
	CaseMappingStrictRFC1459 CaseMapping = "strict-rfc1459"
)

// ParseCaseMapping interprets a CASEMAPPING token value. Unknown values
// fall back to rfc1459, the protocol default.
func ParseCaseMapping(value string) CaseMapping {
	switch CaseMapping(strings.ToLower(value)) {
	case CaseMappingASCII:
		return CaseMappingASCII
	case CaseMappingStrictRFC1459:
		return CaseMappingStrictRFC1459
	default:
		return CaseMappingRFC1459
	}
}

// Fold lowercases s under the mapping. Bytes outside the mapped range pass
// through untouched; IRC casefolding is defined on octets, not code points.
func (cm CaseMapping) Fold(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
			c += 'a' - 'A'
		case cm != CaseMappingASCII && c >= '[' && c <= foldUpperBound(cm):
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// foldUpperBound is the last upper-case octet under the rfc1459 mappings:
// '^' folds to '~' under rfc1459 but not under strict-rfc1459.
func foldUpperBound(cm CaseMapping) byte {
	if cm == CaseMappingStrictRFC1459 {
		return ']'
	}
	return '^'
}

// FoldEqual reports whether a and b are equal after folding.
func (cm CaseMapping) FoldEqual(a, b string) bool {
	return cm.Fold(a) == cm.Fold(b)
}
