package chunking

// Strategy selects the split rule applied to document text.
type Strategy string

// Supported chunking strategies.
const (
	StrategyRecursive        Strategy = "recursive"
	StrategyCharacter        Strategy = "character"
	StrategyToken            Strategy = "token"
	StrategyMarkdown         Strategy = "markdown"
	StrategyHTML             Strategy = "html"
	StrategyJSON             Strategy = "json"
	StrategyLaTeX            Strategy = "latex"
	StrategySentence         Strategy = "sentence"
	StrategySemanticMarkdown Strategy = "semantic-markdown"
)

// ParseStrategy maps a strategy name to a known Strategy.
// Returns false when the name is not in the supported set; callers are
// expected to fall back to StrategyRecursive in that case.
func ParseStrategy(name string) (Strategy, bool) {
	switch Strategy(name) {
	case StrategyRecursive, StrategyCharacter, StrategyToken,
		StrategyMarkdown, StrategyHTML, StrategyJSON,
		StrategyLaTeX, StrategySentence, StrategySemanticMarkdown:
		return Strategy(name), true
	default:
		return StrategyRecursive, false
	}
}
