package helper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidDatabaseName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"plain", "sacred", true},
		{"with dash and digits", "sacred-2024_runs", true},
		{"empty", "", false},
		{"dot", "sacred.runs", false},
		{"slash", "a/b", false},
		{"space", "my db", false},
		{"dollar", "$cmd", false},
		{"too long", strings.Repeat("a", 64), false},
		{"max length", strings.Repeat("a", 63), true},
		{"multibyte within rune count", strings.Repeat("é", 40), false},
		{"multibyte within byte count", strings.Repeat("é", 31), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsValidDatabaseName(tc.input))
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "  ", " b ", "c"))
	assert.Equal(t, "", FirstNonEmpty("", " "))
	assert.Equal(t, "", FirstNonEmpty())
}
