package format

import "time"

// filetimeEpochOffset is the number of 100ns intervals between the FILETIME
// epoch (1601-01-01) and the Unix epoch (1970-01-01).
const filetimeEpochOffset = 116444736000000000

// FiletimeToTime converts a raw little-endian Windows FILETIME (100ns ticks
// since 1601-01-01 UTC) into a time.Time. Out-of-range values are not an
// error here; spec §3 treats a last-write timestamp as opaque metadata and
// leaves interpretation to the caller, so this never fails.
func FiletimeToTime(raw uint64) time.Time {
	if raw == 0 {
		return time.Time{}
	}
	ticks := int64(raw) - filetimeEpochOffset
	return time.Unix(0, ticks*100).UTC()
}
