package ircstate

import "strings"

// Message represents a parsed IRC message
type Message struct {
	Tags    string
	Prefix  string
	Command string
	Params  []string
}

// ParseMessage parses a raw IRC line. It returns nil for lines it cannot
// make sense of; callers skip those.
func ParseMessage(line string) *Message {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil
	}

	msg := &Message{
		Params: make([]string, 0),
	}

	// IRCv3 message tags; kept raw, the tracker never inspects them
	if line[0] == '@' {
		parts := strings.SplitN(line[1:], " ", 2)
		if len(parts) < 2 {
			return nil
		}
		msg.Tags = parts[0]
		line = parts[1]
	}

	// Check if the message has a prefix
	if line != "" && line[0] == ':' {
		parts := strings.SplitN(line[1:], " ", 2)
		if len(parts) < 2 {
			return nil
		}
		msg.Prefix = parts[0]
		line = parts[1]
	}

	parts := strings.SplitN(line, " ", 2)
	if parts[0] == "" {
		return nil
	}

	msg.Command = strings.ToUpper(parts[0])
	if len(parts) > 1 {
		paramPart := parts[1]

		for paramPart != "" {
			// A leading colon marks the trailing parameter
			if paramPart[0] == ':' {
				msg.Params = append(msg.Params, paramPart[1:])
				break
			}

			parts := strings.SplitN(paramPart, " ", 2)
			msg.Params = append(msg.Params, parts[0])
			if len(parts) > 1 {
				paramPart = parts[1]
			} else {
				break
			}
		}
	}

	return msg
}

// String returns the wire representation of the message
func (m *Message) String() string {
	var builder strings.Builder

	if m.Tags != "" {
		builder.WriteString("@")
		builder.WriteString(m.Tags)
		builder.WriteString(" ")
	}

	if m.Prefix != "" {
		builder.WriteString(":")
		builder.WriteString(m.Prefix)
		builder.WriteString(" ")
	}

	builder.WriteString(m.Command)

	for i, param := range m.Params {
		builder.WriteString(" ")

		if i == len(m.Params)-1 && (param == "" || strings.Contains(param, " ") || strings.HasPrefix(param, ":")) {
			builder.WriteString(":")
			builder.WriteString(param)
		} else {
			builder.WriteString(param)
		}
	}

	return builder.String()
}

// Param returns the i-th parameter, or "" when the message is shorter.
func (m *Message) Param(i int) string {
	if i < 0 || i >= len(m.Params) {
		return ""
	}
	return m.Params[i]
}

// Hostmask is a message source, nick!user@host. Server sources parse with
// only Nick set. None of the fields need to resolve to anything; masks on
// ban lists are frequently patterns, not addresses.
type Hostmask struct {
	Nick string
	User string
	Host string
}

// ParseHostmask splits a prefix of the form nick!user@host. Missing pieces
// stay empty.
func ParseHostmask(hostmask string) Hostmask {
	nickParts := strings.SplitN(hostmask, "!", 2)
	if len(nickParts) < 2 {
		return Hostmask{Nick: hostmask}
	}

	hm := Hostmask{Nick: nickParts[0]}
	userHostParts := strings.SplitN(nickParts[1], "@", 2)
	if len(userHostParts) < 2 {
		hm.User = nickParts[1]
		return hm
	}
	hm.User = userHostParts[0]
	hm.Host = userHostParts[1]

	return hm
}

// String reassembles the hostmask, omitting separators for missing parts so
// a bare server name round-trips unchanged.
func (h Hostmask) String() string {
	if h.User == "" && h.Host == "" {
		return h.Nick
	}
	if h.Host == "" {
		return h.Nick + "!" + h.User
	}
	return h.Nick + "!" + h.User + "@" + h.Host
}
