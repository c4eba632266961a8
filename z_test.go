package ircstate_test

import (
	"strings"
	"testing"
	"time"

	"github.com/presbrey/ircstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineSender struct {
	sent []string
}

func (s *lineSender) Send(command string, params ...string) {
	s.sent = append(s.sent, strings.Join(append([]string{command}, params...), " "))
}

type journal struct {
	changes []ircstate.ListChange
}

func (j *journal) ListChanged(ev ircstate.ListChange) {
	j.changes = append(j.changes, ev)
}

// TestClientJourney walks one connection lifetime through the public
// surface: registration, ISUPPORT, joining, a list dump, live mode
// traffic, an op grant, a nick change, getting kicked, and the reset on
// disconnect.
func TestClientJourney(t *testing.T) {
	out := &lineSender{}
	j := &journal{}
	client := ircstate.New(ircstate.WithSender(out), ircstate.WithChangeListener(j))

	client.Connected()

	client.HandleLine(":irc.example.org 001 waffle :Welcome to ExampleNet waffle")
	assert.Equal(t, "waffle", client.State().Nick(), "001 fixes our nick")

	client.HandleLine(":irc.example.org 005 waffle CHANMODES=beIq,k,l,imnpst PREFIX=(ov)@+ CASEMAPPING=rfc1459 :are supported by this server")
	groups, ok := client.ISupport().ChanModes()
	require.True(t, ok, "005 arms the capability tracker")
	assert.Equal(t, "beIq", groups.ListModes())
	assert.Equal(t, ircstate.CaseMappingRFC1459, client.ISupport().CaseMapping())

	client.HandleLine("PING :irc.example.org")
	require.Equal(t, []string{"PONG irc.example.org"}, out.sent)

	client.HandleLine(":waffle!w@host.example JOIN #go-nuts")
	ch := client.State().Lookup("#GO-NUTS")
	require.NotNil(t, ch, "Channel lookup folds case")

	// The server dumps the existing lists. 728 repeats the mode letter.
	client.HandleLine(":irc.example.org 367 waffle #go-nuts *!*@flood.example chanop!op@staff.example 1700000000")
	client.HandleLine(":irc.example.org 728 waffle #go-nuts q *!*@quiet.example chanop!op@staff.example 1700000100")

	bansNow := ch.ListEntries('b')
	require.Len(t, bansNow, 1)
	assert.Equal(t, "*!*@flood.example", bansNow[0].Mask)
	assert.Equal(t, int64(1700000000), bansNow[0].Timestamp)

	quiets := ch.ListEntries('q')
	require.Len(t, quiets, 1, "Quiet rows merge with the letter param dropped")
	assert.Equal(t, "*!*@quiet.example", quiets[0].Mask)

	client.HandleLine(":chanop!op@staff.example MODE #go-nuts +b *!*@spam.example")
	require.Len(t, ch.ListEntries('b'), 2)
	last := j.changes[len(j.changes)-1]
	assert.Equal(t, ircstate.ActionAdd, last.Action)
	assert.Equal(t, "*!*@spam.example", last.Entry.Mask)
	assert.Equal(t, "chanop", last.Entry.Setter.Nick)

	client.HandleLine(":chanop!op@staff.example MODE #go-nuts +o waffle")
	require.Len(t, out.sent, 2, "Gaining op refreshes the lists")
	assert.Equal(t, "MODE #go-nuts beIq", out.sent[1])

	client.HandleLine(":chanop!op@staff.example MODE #go-nuts -b *!*@SPAM.example")
	require.Len(t, ch.ListEntries('b'), 1, "Removal matches through the casemapping")
	assert.Equal(t, "*!*@flood.example", ch.ListEntries('b')[0].Mask)

	client.HandleLine(":waffle!w@host.example NICK :wFFL")
	assert.Equal(t, "wFFL", client.State().Nick(), "Own nick changes are followed")

	client.HandleLine(":chanop!op@staff.example MODE #go-nuts +o wffl")
	require.Len(t, out.sent, 3, "The new nick still counts as us")
	assert.Equal(t, "MODE #go-nuts beIq", out.sent[2])

	client.HandleLine(":chanop!op@staff.example KICK #go-nuts wFFL :and stay out")
	assert.Nil(t, client.State().Lookup("#go-nuts"), "A kick drops the channel")

	client.HandleLine(":wFFL!w@host.example JOIN #go-nuts")
	require.NotNil(t, client.State().Lookup("#go-nuts"))
	assert.Empty(t, client.State().Lookup("#go-nuts").ListEntries('b'), "A rejoin starts with fresh lists")

	client.HandleLine(":wFFL!w@host.example PART #go-nuts :gone")
	assert.Nil(t, client.State().Lookup("#go-nuts"))

	client.Disconnected()
	assert.Empty(t, client.State().Channels(), "Disconnect clears channel state")
	_, ok = client.ISupport().ChanModes()
	assert.False(t, ok, "Disconnect clears capabilities too")
}

func TestClientModeQueryIgnored(t *testing.T) {
	out := &lineSender{}
	client := ircstate.New(ircstate.WithSender(out))
	client.HandleLine(":irc.example.org 001 waffle :Welcome")
	client.HandleLine(":irc.example.org 005 waffle CHANMODES=beIq,k,l,imnpst PREFIX=(ov)@+ :are supported")
	client.HandleLine(":waffle!w@h JOIN #chan")

	client.HandleLine(":waffle!w@h MODE #chan")

	assert.Empty(t, out.sent, "A bare MODE query changes nothing")
	assert.Empty(t, client.State().Lookup("#chan").ListModeLetters())
}

func TestClientUnparseableLine(t *testing.T) {
	client := ircstate.New()

	assert.NotPanics(t, func() {
		client.HandleLine(":prefix.only.example")
		client.HandleLine("")
		client.HandleLine("   ")
	}, "Garbage input is logged, not fatal")
}

func TestClientRemappedListNumerics(t *testing.T) {
	out := &lineSender{}
	client := ircstate.New(
		ircstate.WithSender(out),
		ircstate.WithListReplies(map[string]rune{"940": 'b'}),
	)
	client.HandleLine(":irc.example.org 001 waffle :Welcome")
	client.HandleLine(":irc.example.org 005 waffle CHANMODES=beIq,k,l,imnpst PREFIX=(ov)@+ :are supported")
	client.HandleLine(":waffle!w@h JOIN #chan")

	client.HandleLine(":irc.example.org 940 waffle #chan *!*@mapped.example op!o@h 42")
	client.HandleLine(":irc.example.org 367 waffle #chan *!*@standard.example op!o@h 43")

	entries := client.State().Lookup("#chan").ListEntries('b')
	require.Len(t, entries, 1, "Only the remapped numeric is wired")
	assert.Equal(t, "*!*@mapped.example", entries[0].Mask)
}

func TestClientShortListReplySkipped(t *testing.T) {
	client := ircstate.New()
	client.HandleLine(":irc.example.org 001 waffle :Welcome")
	client.HandleLine(":irc.example.org 005 waffle CHANMODES=beIq,k,l,imnpst PREFIX=(ov)@+ :are supported")
	client.HandleLine(":waffle!w@h JOIN #chan")

	// Bare-mask rows and rows with junk timestamps carry too little to merge.
	client.HandleLine(":irc.example.org 367 waffle #chan *!*@bare.example")
	client.HandleLine(":irc.example.org 367 waffle #chan *!*@x.example op!o@h soon")

	assert.Empty(t, client.State().Lookup("#chan").ListEntries('b'))
}

func TestClientClockOption(t *testing.T) {
	client := ircstate.New(ircstate.WithClock(func() time.Time {
		return time.Unix(1234567890, 0)
	}))
	client.HandleLine(":irc.example.org 001 waffle :Welcome")
	client.HandleLine(":irc.example.org 005 waffle CHANMODES=beIq,k,l,imnpst PREFIX=(ov)@+ :are supported")
	client.HandleLine(":waffle!w@h JOIN #chan")

	client.HandleLine(":op!o@h MODE #chan +b *!*@pinned.example")

	entries := client.State().Lookup("#chan").ListEntries('b')
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1234567890), entries[0].Timestamp, "Live changes stamp with the injected clock")
}

func TestClientApplicationHandlers(t *testing.T) {
	client := ircstate.New()
	var seen []string
	id := client.On("PRIVMSG", func(m *ircstate.Message) error {
		seen = append(seen, m.Param(1))
		return nil
	})

	client.HandleLine(":alice!a@h PRIVMSG #chan :hello there")
	require.Equal(t, []string{"hello there"}, seen)

	require.True(t, client.Off(id))
	client.HandleLine(":alice!a@h PRIVMSG #chan :again")
	assert.Len(t, seen, 1, "Removed handlers stay removed")
}
