package helper

import (
	"regexp"
	"strings"
)

// MaxDatabaseNameBytes is the server's limit, counted in bytes.
const MaxDatabaseNameBytes = 63

// DatabaseNameRegex matches names MongoDB accepts on every platform:
// no path separators, dots, spaces, quotes or shell metacharacters.
var DatabaseNameRegex = regexp.MustCompile(`^[^/\\. "$*<>:|?\x00]+$`)

func IsValidDatabaseName(s string) bool {
	return len(s) <= MaxDatabaseNameBytes && DatabaseNameRegex.MatchString(s)
}

// FirstNonEmpty returns the first argument that is not blank after trimming.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
