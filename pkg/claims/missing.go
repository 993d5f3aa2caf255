package claims

import "strings"

// IsMissing reports whether a raw cell holds no value. The public dataset
// writes missing cells as empty, NA or NaN.
func IsMissing(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "na", "nan", "null", "none":
		return true
	}
	return false
}

// Normalize trims a cell and maps every missing marker to "".
func Normalize(raw string) string {
	if IsMissing(raw) {
		return ""
	}
	return strings.TrimSpace(raw)
}
