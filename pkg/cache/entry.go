package cache

import (
	"time"
)

// Entry is one cached payload.
type Entry struct {
	// Key is the full backend key (see Key.String)
	Key string `json:"key"`

	// Payload is the serialized value, opaque to the cache
	Payload []byte `json:"payload"`

	// WrittenAt is when the payload was stored
	WrittenAt time.Time `json:"written_at"`
}

// Expired reports whether the entry is older than ttl at now.
// An entry exactly ttl old is still live.
func (e *Entry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.WrittenAt) > ttl
}

// Age returns how long ago the entry was written.
func (e *Entry) Age(now time.Time) time.Duration {
	age := now.Sub(e.WrittenAt)
	if age < 0 {
		return 0
	}
	return age
}
