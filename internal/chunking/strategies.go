package chunking

import (
	"strings"
	"unicode"
)

// Separator hierarchies for boundary-based strategies. Ordered from the
// strongest structural boundary to the weakest; the recursive splitter
// tries each in turn until chunks fit MaxSize.
var (
	recursiveSeparators = []string{"\n\n", "\n", " ", ""}

	markdownSeparators = []string{
		"\n# ", "\n## ", "\n### ", "\n#### ", "\n##### ", "\n###### ",
		"```\n", "\n\n***\n\n", "\n\n---\n\n", "\n\n___\n\n",
		"\n\n", "\n", " ", "",
	}

	htmlSeparators = []string{
		"<body", "<div", "<p", "<br", "<li",
		"<h1", "<h2", "<h3", "<h4", "<h5", "<h6",
		"<span", "<table", "<tr", "<td", "<th",
		"<ul", "<ol", "<header", "<footer", "<nav",
		"<head", "<style", "<script", "<meta", "<title",
		"",
	}

	jsonSeparators = []string{"}\n", "},", "]\n", "],", "\n\n", "\n", " ", ""}

	latexSeparators = []string{
		"\n\\chapter{", "\n\\section{", "\n\\subsection{", "\n\\subsubsection{",
		"\n\\begin{enumerate}", "\n\\begin{itemize}", "\n\\begin{description}",
		"\n\\begin{list}", "\n\\begin{quote}", "\n\\begin{quotation}",
		"\n\\begin{verse}", "\n\\begin{verbatim}", "\n\\begin{align}",
		"$$", "$", " ", "",
	}
)

// splitCharacters applies a plain sliding window over runes.
// Step is maxSize-overlap; validation guarantees a positive step.
func splitCharacters(text string, maxSize, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= maxSize {
		return []string{text}
	}

	step := maxSize - overlap
	var spans []string
	for start := 0; start < len(runes); start += step {
		end := start + maxSize
		if end > len(runes) {
			end = len(runes)
		}
		spans = append(spans, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return spans
}

// splitSentences emits one span per sentence, keeping the terminator
// attached. Sentences longer than maxSize are windowed by character so no
// span exceeds the size limit.
func splitSentences(text string, maxSize int, terminators []rune) []string {
	terms := make(map[rune]bool, len(terminators))
	for _, r := range terminators {
		terms[r] = true
	}

	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if terms[r] {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	var spans []string
	for _, s := range sentences {
		if len([]rune(s)) <= maxSize {
			spans = append(spans, s)
			continue
		}
		spans = append(spans, splitCharacters(s, maxSize, 0)...)
	}
	return spans
}

// splitSemanticMarkdown segments markdown by headings, keeping each chunk
// inside one section and prefixing it with the section heading so the
// heading context survives embedding.
func splitSemanticMarkdown(text string, params Params) ([]string, error) {
	lines := strings.Split(text, "\n")

	type section struct {
		heading string
		body    []string
	}
	var sections []section
	current := section{}
	for _, line := range lines {
		if isHeading(line, params.HeaderMarkers) {
			if current.heading != "" || len(current.body) > 0 {
				sections = append(sections, current)
			}
			current = section{heading: strings.TrimSpace(line)}
			continue
		}
		current.body = append(current.body, line)
	}
	if current.heading != "" || len(current.body) > 0 {
		sections = append(sections, current)
	}

	var spans []string
	for _, sec := range sections {
		body := strings.TrimSpace(strings.Join(sec.body, "\n"))
		if body == "" {
			if sec.heading != "" {
				spans = append(spans, capToSize(sec.heading, params.MaxSize)...)
			}
			continue
		}

		// Reserve room for the heading prefix inside each chunk. A
		// heading too long to leave room under MaxSize is emitted as its
		// own span instead, and the body is split at full size.
		prefix := ""
		budget := params.MaxSize
		if sec.heading != "" {
			headingLen := len([]rune(sec.heading))
			if headingLen+1 < params.MaxSize {
				prefix = sec.heading + "\n"
				budget = params.MaxSize - headingLen - 1
			} else {
				spans = append(spans, capToSize(sec.heading, params.MaxSize)...)
			}
		}

		sectionParams := params
		sectionParams.MaxSize = budget
		if sectionParams.Overlap >= budget {
			sectionParams.Overlap = 0
		}
		parts, err := recursiveSplit(body, recursiveSeparators, sectionParams)
		if err != nil {
			return nil, err
		}
		for _, part := range parts {
			spans = append(spans, prefix+part)
		}
	}
	return spans, nil
}

// capToSize windows a span that exceeds maxSize on its own.
func capToSize(s string, maxSize int) []string {
	if len([]rune(s)) <= maxSize {
		return []string{s}
	}
	return splitCharacters(s, maxSize, 0)
}

// isHeading reports whether a line starts a section. With no custom
// markers, any ATX-style heading counts.
func isHeading(line string, markers []string) bool {
	trimmed := strings.TrimSpace(line)
	if len(markers) > 0 {
		for _, marker := range markers {
			if strings.HasPrefix(trimmed, marker+" ") || trimmed == marker {
				return true
			}
		}
		return false
	}
	if !strings.HasPrefix(trimmed, "#") {
		return false
	}
	rest := strings.TrimLeft(trimmed, "#")
	return rest == "" || unicode.IsSpace(rune(rest[0]))
}

// markdownSeparatorsFor builds the markdown separator hierarchy, honoring
// caller-supplied heading markers.
func markdownSeparatorsFor(markers []string) []string {
	if len(markers) == 0 {
		return markdownSeparators
	}
	separators := make([]string, 0, len(markers)+8)
	for _, marker := range markers {
		separators = append(separators, "\n"+marker+" ")
	}
	separators = append(separators,
		"```\n", "\n\n***\n\n", "\n\n---\n\n", "\n\n___\n\n",
		"\n\n", "\n", " ", "",
	)
	return separators
}
