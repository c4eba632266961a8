package ircstate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchPriorityOrder(t *testing.T) {
	d := NewDispatcher()
	var ran []string
	record := func(label string) HandlerFunc {
		return func(msg *Message) error {
			ran = append(ran, label)
			return nil
		}
	}

	d.OnPriority("PRIVMSG", PriorityLast, record("last"))
	d.OnPriority("PRIVMSG", PriorityFirst, record("first"))
	d.On("PRIVMSG", record("default"))

	d.Dispatch(&Message{Command: "PRIVMSG"})
	assert.Equal(t, []string{"first", "default", "last"}, ran, "Lower priorities run first")
}

func TestDispatchStableWithinTier(t *testing.T) {
	d := NewDispatcher()
	var ran []string
	for _, label := range []string{"a", "b", "c"} {
		label := label
		d.On("JOIN", func(msg *Message) error {
			ran = append(ran, label)
			return nil
		})
	}

	d.Dispatch(&Message{Command: "JOIN"})
	assert.Equal(t, []string{"a", "b", "c"}, ran, "Same tier keeps registration order")
}

func TestDispatchWildcard(t *testing.T) {
	d := NewDispatcher()
	var ran []string
	d.On("MODE", func(msg *Message) error {
		ran = append(ran, "named")
		return nil
	})
	d.OnPriority(EventAll, PriorityFirst, func(msg *Message) error {
		ran = append(ran, "wildcard")
		return nil
	})

	d.Dispatch(&Message{Command: "MODE"})
	require.Equal(t, []string{"wildcard", "named"}, ran, "Wildcard handlers sort into the same ladder")

	ran = nil
	d.Dispatch(&Message{Command: "TOPIC"})
	assert.Equal(t, []string{"wildcard"}, ran, "Wildcards see every command")
}

func TestDispatchCaseInsensitiveRegistration(t *testing.T) {
	d := NewDispatcher()
	hits := 0
	d.On("privmsg", func(msg *Message) error {
		hits++
		return nil
	})

	d.Dispatch(&Message{Command: "PRIVMSG"})
	assert.Equal(t, 1, hits, "Event names fold to upper case at registration")
}

func TestDispatchOff(t *testing.T) {
	d := NewDispatcher()
	id := d.On("PART", func(msg *Message) error { return nil })
	require.Equal(t, 1, d.Count("PART"))

	assert.True(t, d.Off(id), "First removal should find the handler")
	assert.False(t, d.Off(id), "Second removal should not")
	assert.Zero(t, d.Count("PART"))
}

func TestDispatchErrorsKeyedByID(t *testing.T) {
	d := NewDispatcher()
	boom := errors.New("boom")
	bad := d.On("KICK", func(msg *Message) error { return boom })
	good := d.On("KICK", func(msg *Message) error { return nil })

	errs := d.Dispatch(&Message{Command: "KICK"})
	require.Len(t, errs, 1)
	assert.Equal(t, boom, errs[bad])
	assert.NotContains(t, errs, good, "Healthy handlers stay out of the error map")

	require.True(t, d.Off(bad))
	assert.Nil(t, d.Dispatch(&Message{Command: "KICK"}), "All-clear dispatches return nil")
}

func TestDispatchPanicRecovered(t *testing.T) {
	d := NewDispatcher()
	angry := d.On("QUIT", func(msg *Message) error { panic("handler bug") })
	survived := false
	d.On("QUIT", func(msg *Message) error {
		survived = true
		return nil
	})

	errs := d.Dispatch(&Message{Command: "QUIT"})
	assert.True(t, survived, "A panic must not take down later handlers")
	require.Contains(t, errs, angry)
	assert.Contains(t, errs[angry].Error(), "panic")
}

func TestDispatchNoHandlers(t *testing.T) {
	d := NewDispatcher()
	assert.Nil(t, d.Dispatch(&Message{Command: "NOTICE"}))
	assert.Nil(t, d.Dispatch(nil), "nil messages are ignored")
}

func TestDispatchClear(t *testing.T) {
	d := NewDispatcher()
	d.On("A", func(msg *Message) error { return nil })
	d.On("B", func(msg *Message) error { return nil })

	d.Clear()
	assert.Zero(t, d.Count("A"))
	assert.Zero(t, d.Count("B"))
}
