package llm

import (
	"fmt"
	"regexp"
	"strings"

	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/ports"
)

// linePrefix matches list markers such as "Line 2:", "2." or "2)". A bare
// number needs whitespace after its marker so "5-day strike" is kept.
var linePrefix = regexp.MustCompile(`(?i)^\s*(line\s*\d+\s*[:.)-]\s*|\d+\s*[:.)]\s+)`)

// buildPrompt asks for keyword, importance and summary on three lines.
func buildPrompt(title, description string, maxWords int) string {
	var b strings.Builder
	b.WriteString("Analyze the following article and provide three things:\n")
	b.WriteString("1. A single category keyword (like 'politics', 'sports', 'technology')\n")
	b.WriteString("2. Importance level ('high', 'medium', 'low') based on news impact and urgency\n")
	fmt.Fprintf(&b, "3. A concise summary in %d words or less\n\n", maxWords)
	fmt.Fprintf(&b, "Title: %s\n", title)
	fmt.Fprintf(&b, "Description: %s\n\n", description)
	b.WriteString("Respond in exactly 3 lines:\n")
	b.WriteString("Line 1: just the keyword\n")
	b.WriteString("Line 2: just the importance level\n")
	b.WriteString("Line 3: the summary")
	return b.String()
}

// parseResponse reads the three-line answer. Keyword and importance are
// required; a missing summary is left empty for the caller to fill.
func parseResponse(text string) (ports.Enrichment, error) {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(linePrefix.ReplaceAllString(line, ""))
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) < 2 {
		return ports.Enrichment{}, fmt.Errorf("%w: malformed response %q", domain.ErrEnrichment, text)
	}

	out := ports.Enrichment{
		Keyword:    strings.ToLower(lines[0]),
		Importance: strings.ToLower(lines[1]),
	}
	if len(lines) > 2 {
		out.Summary = lines[2]
	}
	return out, nil
}
