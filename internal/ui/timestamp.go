package ui

import "unicode/utf8"

// FormatTimestamp turns a YYYYMMDD_HHMM stamp into "YYYY-MM-DD HH:MM".
// Positions 0-7 hold the date and 9-12 the time; position 8 is a separator
// and is not checked. Input shorter than 13 bytes, or input the slicing
// would cut mid-character, is returned unchanged.
func FormatTimestamp(ts string) string {
	if len(ts) < 13 {
		return ts
	}

	formatted := ts[0:4] + "-" + ts[4:6] + "-" + ts[6:8] + " " + ts[9:11] + ":" + ts[11:13]
	if !utf8.ValidString(formatted) {
		return ts
	}
	return formatted
}
