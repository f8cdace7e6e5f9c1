package reranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightsNormalize(t *testing.T) {
	tests := []struct {
		name        string
		in          Weights
		want        Weights
		wantChanged bool
	}{
		{
			name:        "already normalized",
			in:          Weights{Semantic: 0.5, Vector: 0.3, Position: 0.2},
			want:        Weights{Semantic: 0.5, Vector: 0.3, Position: 0.2},
			wantChanged: false,
		},
		{
			name:        "scaled down",
			in:          Weights{Semantic: 2, Vector: 1, Position: 1},
			want:        Weights{Semantic: 0.5, Vector: 0.25, Position: 0.25},
			wantChanged: true,
		},
		{
			name:        "all zero falls back to defaults",
			in:          Weights{},
			want:        DefaultWeights(),
			wantChanged: true,
		},
		{
			name:        "negative treated as zero",
			in:          Weights{Semantic: -1, Vector: 1, Position: 1},
			want:        Weights{Semantic: 0, Vector: 0.5, Position: 0.5},
			wantChanged: true,
		},
		{
			name:        "all negative falls back to defaults",
			in:          Weights{Semantic: -1, Vector: -2, Position: -3},
			want:        DefaultWeights(),
			wantChanged: true,
		},
		{
			name:        "single signal",
			in:          Weights{Semantic: 4},
			want:        Weights{Semantic: 1},
			wantChanged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := tt.in.Normalize()
			assert.InDelta(t, tt.want.Semantic, got.Semantic, 1e-9)
			assert.InDelta(t, tt.want.Vector, got.Vector, 1e-9)
			assert.InDelta(t, tt.want.Position, got.Position, 1e-9)
			assert.Equal(t, tt.wantChanged, changed)
		})
	}
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	w := DefaultWeights()
	assert.InDelta(t, 1.0, w.Semantic+w.Vector+w.Position, 1e-9)
}
