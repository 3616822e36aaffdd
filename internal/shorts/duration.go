package shorts

import "strings"

// IsShort reports whether an ISO 8601 duration belongs to a short. Any
// duration carrying a minutes component is too long; an empty duration is
// unknown and never counts.
func IsShort(duration string) bool {
	if duration == "" {
		return false
	}
	return !strings.Contains(duration, "M")
}
