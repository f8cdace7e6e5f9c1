package reranker

// Weights control the blend of ranking signals. They are combined as
//
//	final = Semantic*judgeScore + Vector*storeScore + Position*positionScore
//
// after normalization to sum 1.
type Weights struct {
	// Semantic weights the relevance judge's score.
	Semantic float64 `json:"semantic" koanf:"semantic"`

	// Vector weights the vector store's similarity score.
	Vector float64 `json:"vector" koanf:"vector"`

	// Position weights the candidate's original retrieval rank.
	Position float64 `json:"position" koanf:"position"`
}

// DefaultWeights returns the standard signal blend.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.5, Vector: 0.3, Position: 0.2}
}

// Normalize scales the weights so they sum to 1. Negative weights are
// treated as zero. If the sum is not positive the defaults are returned.
// The second return value reports whether the weights changed.
func (w Weights) Normalize() (Weights, bool) {
	clamped := w
	if clamped.Semantic < 0 {
		clamped.Semantic = 0
	}
	if clamped.Vector < 0 {
		clamped.Vector = 0
	}
	if clamped.Position < 0 {
		clamped.Position = 0
	}

	sum := clamped.Semantic + clamped.Vector + clamped.Position
	if sum <= 0 {
		return DefaultWeights(), true
	}

	normalized := Weights{
		Semantic: clamped.Semantic / sum,
		Vector:   clamped.Vector / sum,
		Position: clamped.Position / sum,
	}
	return normalized, normalized != w
}
