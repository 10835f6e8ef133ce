package transport

import "strings"

// Protocol identifies the adapter variant a platform is dispatched through.
type Protocol string

const (
	ProtocolMRW  Protocol = "mrw"
	ProtocolSEUR Protocol = "seur"
)

// Protocols lists every protocol the dispatcher knows about, in display order.
var Protocols = []Protocol{ProtocolMRW, ProtocolSEUR}

// ParseProtocol maps a configured protocol key onto the closed protocol set.
// Keys are matched exactly, the way they are written in configuration.
func ParseProtocol(key string) (Protocol, bool) {
	for _, p := range Protocols {
		if string(p) == key {
			return p, true
		}
	}
	return "", false
}

// Label returns the human readable carrier name.
func (p Protocol) Label() string {
	return strings.ToUpper(string(p))
}

// Valid reports whether p belongs to the known protocol set.
func (p Protocol) Valid() bool {
	_, ok := ParseProtocol(string(p))
	return ok
}
