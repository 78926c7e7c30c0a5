// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import "strings"

// Message is an encoded event to be broadcast to clients. Topic is the
// bus topic it came from and is used for per-client filtering.
type Message struct {
	Topic string
	Data  []byte
}

// NewMessage creates a message from pre-encoded bytes
func NewMessage(topic string, data []byte) Message {
	return Message{Topic: topic, Data: data}
}

// Filter selects topics for a client. An empty filter matches everything.
// A pattern ending in "*" matches by prefix.
type Filter []string

// ParseFilter splits a comma separated list of topic patterns.
func ParseFilter(s string) Filter {
	var f Filter
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			f = append(f, p)
		}
	}
	return f
}

// Match reports whether topic passes the filter.
func (f Filter) Match(topic string) bool {
	if len(f) == 0 {
		return true
	}
	for _, p := range f {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			if strings.HasPrefix(topic, prefix) {
				return true
			}
			continue
		}
		if p == topic {
			return true
		}
	}
	return false
}
