package answer

import (
	"strings"

	"github.com/voyora/zara/internal/types"
)

const (
	// documentCharLimit caps a single document's contribution to the prompt
	documentCharLimit = 1200

	// snippetCharLimit caps a single extractive fallback snippet
	snippetCharLimit = 400

	documentDivider = "\n\n---\n\n"
)

// BuildContext packs ranked search results into a bounded prompt context.
// Results are consumed in the given order (ranking is an upstream concern);
// blank documents are skipped and packing stops before the running total
// would exceed maxChars. A non-positive maxChars yields an empty string.
func BuildContext(results []types.SearchResult, maxChars int) string {
	if maxChars <= 0 || len(results) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, result := range results {
		content := strings.TrimSpace(result.Content)
		if content == "" {
			continue
		}

		content = truncateAtSentence(content, documentCharLimit)
		block := "[Source: " + result.Source + "]\n" + content

		needed := len(block)
		if sb.Len() > 0 {
			needed += len(documentDivider)
		}
		if sb.Len()+needed > maxChars {
			break
		}

		if sb.Len() > 0 {
			sb.WriteString(documentDivider)
		}
		sb.WriteString(block)
	}
	return sb.String()
}

// truncateAtSentence shortens text to at most maxChars, preferring to end at
// the last sentence boundary when it falls reasonably late in the window;
// otherwise the cut is marked with an ellipsis.
func truncateAtSentence(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}

	cut := text[:maxChars]
	if idx := strings.LastIndex(cut, "."); idx >= maxChars*2/3 {
		return cut[:idx+1]
	}
	return cut + "..."
}
