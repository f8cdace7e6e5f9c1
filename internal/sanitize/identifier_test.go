package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "docs", "docs"},
		{"uppercase", "MyDocs", "mydocs"},
		{"url-like", "github.com/user", "github_com_user"},
		{"spaces and punctuation", "My Project!", "my_project"},
		{"collapses underscores", "a__b___c", "a_b_c"},
		{"trims underscores", "_edge_", "edge"},
		{"empty", "", "default"},
		{"only invalid", "!!!", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Identifier(tt.input))
		})
	}
}

func TestIdentifierTruncatesLongNames(t *testing.T) {
	long := strings.Repeat("a", 100)
	got := Identifier(long)
	assert.LessOrEqual(t, len(got), MaxIdentifierLength)
	assert.Contains(t, got, "_", "truncated identifier should carry hash suffix")

	// Distinct long inputs must stay distinct after truncation.
	other := Identifier(strings.Repeat("a", 99) + "b")
	assert.NotEqual(t, got, other)
}

func TestIndexName(t *testing.T) {
	assert.Equal(t, "github_com_user_release_notes", IndexName("github.com/user", "release-notes"))
	assert.Equal(t, "docs", IndexName("docs", ""))

	long := IndexName(strings.Repeat("x", 60), strings.Repeat("y", 60))
	assert.LessOrEqual(t, len(long), MaxIdentifierLength)
}
