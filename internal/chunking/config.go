package chunking

import (
	"errors"
	"fmt"
)

// Size bounds for chunking parameters.
const (
	// MinChunkSize is the smallest allowed MaxSize.
	MinChunkSize = 50

	// MaxChunkSize is the largest allowed MaxSize.
	MaxChunkSize = 4000

	// MaxOverlap is the largest allowed Overlap.
	MaxOverlap = 500

	// DefaultMaxSize is used when Params.MaxSize is zero.
	DefaultMaxSize = 1000

	// DefaultOverlap is used when Params.Overlap is unset.
	DefaultOverlap = 100
)

// ErrInvalidParams indicates chunking parameters that fail validation.
// Rejected before any work begins.
var ErrInvalidParams = errors.New("invalid chunking parameters")

// ErrEmptyDocument indicates an empty or whitespace-only document.
var ErrEmptyDocument = errors.New("document text is empty")

// Params holds shared and strategy-specific chunking parameters.
type Params struct {
	// MaxSize is the maximum chunk size in characters (tokens for the
	// token strategy). Must be in [MinChunkSize, MaxChunkSize].
	MaxSize int

	// Overlap is the number of characters (or tokens) shared between
	// adjacent chunks. Must be in [0, MaxOverlap] and less than MaxSize.
	Overlap int

	// Separators overrides the split boundaries for the recursive
	// strategy. Unused by other strategies.
	Separators []string

	// HeaderMarkers overrides the heading prefixes for the markdown and
	// semantic-markdown strategies. Default: ATX headings ("#" through
	// "######").
	HeaderMarkers []string

	// SentenceTerminators overrides the runes that end a sentence for
	// the sentence strategy. Default: '.', '!', '?'.
	SentenceTerminators []rune

	// EncodingName is the tiktoken encoding for the token strategy.
	// Default: cl100k_base.
	EncodingName string
}

// ApplyDefaults sets default values for unset fields. Overlap zero is a
// valid caller choice, so it only defaults when MaxSize is also unset.
func (p *Params) ApplyDefaults() {
	if p.MaxSize == 0 {
		p.MaxSize = DefaultMaxSize
		if p.Overlap == 0 {
			p.Overlap = DefaultOverlap
		}
	}
	if len(p.SentenceTerminators) == 0 {
		p.SentenceTerminators = []rune{'.', '!', '?'}
	}
	if p.EncodingName == "" {
		p.EncodingName = "cl100k_base"
	}
}

// Validate validates the parameters.
func (p Params) Validate() error {
	if p.MaxSize < MinChunkSize || p.MaxSize > MaxChunkSize {
		return fmt.Errorf("%w: max size must be in [%d, %d], got %d",
			ErrInvalidParams, MinChunkSize, MaxChunkSize, p.MaxSize)
	}
	if p.Overlap < 0 || p.Overlap > MaxOverlap {
		return fmt.Errorf("%w: overlap must be in [0, %d], got %d",
			ErrInvalidParams, MaxOverlap, p.Overlap)
	}
	if p.Overlap >= p.MaxSize {
		return fmt.Errorf("%w: overlap %d must be less than max size %d",
			ErrInvalidParams, p.Overlap, p.MaxSize)
	}
	return nil
}
