package forms

import (
	"math/rand/v2"
	"strconv"
	"time"
)

// NewFieldID returns a short random base36 id followed by the base36
// millisecond timestamp.
func NewFieldID() string {
	return strconv.FormatUint(rand.Uint64()>>12, 36) + strconv.FormatInt(time.Now().UnixMilli(), 36)
}

// timestampSuffix is appended to a slug that still collides inside its
// workspace after global deduplication.
func timestampSuffix(now time.Time) string {
	return "-" + strconv.FormatInt(now.UnixMilli(), 36)
}
