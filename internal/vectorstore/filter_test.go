package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeFilters(t *testing.T) {
	assert.Nil(t, MergeFilters(nil, nil))

	base := map[string]interface{}{"a": 1, "b": 2}
	override := map[string]interface{}{"b": 3, "c": 4}

	assert.Equal(t, base, MergeFilters(base, nil))
	assert.Equal(t, override, MergeFilters(nil, override))

	merged := MergeFilters(base, override)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 3, "c": 4}, merged)
}

func TestFilterBuilder(t *testing.T) {
	assert.Nil(t, NewFilterBuilder().Build(), "empty builder yields nil filter")

	filter := NewFilterBuilder().
		With("source", "docs").
		WithMap(map[string]interface{}{"page": 3}).
		Build()

	assert.Equal(t, map[string]interface{}{"source": "docs", "page": 3}, filter)
}
