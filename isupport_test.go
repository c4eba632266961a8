package ircstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChanModes(t *testing.T) {
	g := ParseChanModes("beIq,k,l,imnpst")

	assert.Equal(t, "beIq", g.ListModes())
	assert.True(t, g.IsListMode('b'))
	assert.True(t, g.IsListMode('q'))
	assert.False(t, g.IsListMode('o'))

	assert.True(t, g.TakesParam('b', true))
	assert.True(t, g.TakesParam('b', false), "List modes take a parameter in both directions")
	assert.True(t, g.TakesParam('k', false), "Always-param modes take one when removing too")
	assert.True(t, g.TakesParam('l', true))
	assert.False(t, g.TakesParam('l', false), "Set-param modes take none when removing")
	assert.False(t, g.TakesParam('i', true))
	assert.False(t, g.TakesParam('Z', true), "Unknown letters take no parameter")

	assert.True(t, g.Known('i'))
	assert.False(t, g.Known('Z'))
}

func TestParseChanModesShortAndLong(t *testing.T) {
	g := ParseChanModes("b,k")
	assert.Equal(t, "b", g.ListModes())
	assert.False(t, g.TakesParam('l', true), "Missing groups should be empty")

	// Some daemons advertise extension groups past the fourth
	g = ParseChanModes("beI,k,l,imnt,XYZ")
	assert.Equal(t, "beI", g.ListModes())
	assert.False(t, g.Known('X'), "Extension groups are ignored")
}

func TestParsePrefix(t *testing.T) {
	p, ok := ParsePrefix("(ov)@+")
	require.True(t, ok)

	assert.True(t, p.IsStatusMode('o'))
	assert.True(t, p.IsStatusMode('v'))
	assert.False(t, p.IsStatusMode('b'))
	assert.Equal(t, "ov", p.Modes())

	sym, ok := p.SymbolFor('o')
	require.True(t, ok)
	assert.Equal(t, byte('@'), sym)

	_, ok = p.SymbolFor('x')
	assert.False(t, ok)
}

func TestParsePrefixMalformed(t *testing.T) {
	for _, bad := range []string{"", "ov@+", "(ov@+", "(ov)@", "(o)@+"} {
		_, ok := ParsePrefix(bad)
		assert.False(t, ok, "Should reject %q", bad)
	}
}

func TestISupportReadiness(t *testing.T) {
	s := NewISupport()

	_, ok := s.ChanModes()
	assert.False(t, ok, "CHANMODES should be unknown before 005")
	_, ok = s.Prefixes()
	assert.False(t, ok, "PREFIX should be unknown before 005")
	assert.Equal(t, CaseMappingRFC1459, s.CaseMapping(), "Casemapping defaults to rfc1459")

	s.Update([]string{"CHANMODES=beIq,k,l,imnpst", "PREFIX=(ov)@+", "CASEMAPPING=ascii"})

	g, ok := s.ChanModes()
	require.True(t, ok)
	assert.Equal(t, "beIq", g.ListModes())

	p, ok := s.Prefixes()
	require.True(t, ok)
	assert.True(t, p.IsStatusMode('o'))

	assert.Equal(t, CaseMappingASCII, s.CaseMapping())
}

func TestISupportTokens(t *testing.T) {
	s := NewISupport()
	s.Update([]string{"NETWORK=ExampleNet", "EXCEPTS", "are supported by this server"})

	v, ok := s.Get("network")
	require.True(t, ok, "Token keys should be case-insensitive")
	assert.Equal(t, "ExampleNet", v)

	_, ok = s.Get("EXCEPTS")
	assert.True(t, ok, "Bare tokens should be present with an empty value")

	_, ok = s.Get("are supported by this server")
	assert.False(t, ok, "Trailing text is not a token")
}

func TestISupportUnset(t *testing.T) {
	s := NewISupport()
	s.Update([]string{"CHANMODES=beIq,k,l,imnpst", "CASEMAPPING=ascii"})

	s.Update([]string{"-CHANMODES", "-CASEMAPPING"})

	_, ok := s.ChanModes()
	assert.False(t, ok, "A removed CHANMODES should read as unknown again")
	assert.Equal(t, CaseMappingRFC1459, s.CaseMapping(), "Removing CASEMAPPING restores the default")
}

func TestISupportReset(t *testing.T) {
	s := NewISupport()
	s.Update([]string{"CHANMODES=beIq,k,l,imnpst", "PREFIX=(ov)@+", "NETWORK=X"})

	s.Reset()

	_, ok := s.ChanModes()
	assert.False(t, ok)
	_, ok = s.Prefixes()
	assert.False(t, ok)
	_, ok = s.Get("NETWORK")
	assert.False(t, ok)
}

func TestISupportMalformedPrefixNotReady(t *testing.T) {
	s := NewISupport()
	s.Update([]string{"PREFIX=ov@+"})

	_, ok := s.Prefixes()
	assert.False(t, ok, "A malformed PREFIX must not report ready")
}
