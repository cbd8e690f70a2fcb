// Package snowflake provides time-ordered unique IDs for catalog rows.
package snowflake

import (
	"math/rand"
	"strconv"
	"time"
)

// An ID is a 64 bit identifier whose high bits encode creation time.
type ID uint64

// Now returns a new ID for the current time.
func Now() ID {
	return TimeToID(time.Now())
}

// TimeToID converts a time.Time to an ID.
func TimeToID(ts time.Time) ID {
	// 48 bits for time in milliseconds.
	// 16 bits for random.
	return ID(ts.UnixNano()/int64(time.Millisecond))<<16 | ID(rand.Intn(1<<16))
}

// ToTime returns the creation time encoded in the ID.
func (id ID) ToTime() time.Time {
	return time.Unix(0, int64(id>>16)*1e6)
}

// Parse converts the decimal form of an ID, as it appears in callback
// payloads and URLs, back into an ID.
func Parse(s string) (ID, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	return ID(id), err
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
