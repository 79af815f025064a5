package answer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/voyora/zara/internal/types"
)

const defaultSourceLabel = "Knowledge Base"

var documentExtensions = []string{".pdf", ".docx", ".doc", ".txt", ".md"}

// hotelTerms and pricingTerms classify masked temp-file uploads by content.
var hotelTerms = []string{"hotel", "resort", "accommodation", "room", "suite", "check-in"}

var pricingTerms = []string{"rate", "price", "pricing", "tariff"}

// knownDestinations maps content keywords to display names for destination
// guides. Scanned in order.
var knownDestinations = []struct {
	keyword string
	display string
}{
	{"maldives", "Maldives"},
	{"mauritius", "Mauritius"},
	{"zanzibar", "Zanzibar"},
	{"seychelles", "Seychelles"},
	{"sri lanka", "Sri Lanka"},
	{"bali", "Bali"},
	{"dubai", "Dubai"},
	{"thailand", "Thailand"},
	{"kenya", "Kenya"},
}

var titleCaser = cases.Title(language.English)

// CleanSourceName converts a raw document identifier into a human-presentable
// label. Temporary upload paths are never shown to users; those are
// classified from the snippet content instead. The result context is
// optional and supplies metadata overrides and content for classification.
func CleanSourceName(rawSource string, result *types.SearchResult) string {
	if strings.TrimSpace(rawSource) == "" {
		return defaultSourceLabel
	}

	if result != nil {
		if title := metadataTitle(result); title != "" && !strings.HasPrefix(title, "tmp") {
			return title
		}
	}

	filename := rawSource
	hasSeparator := strings.ContainsAny(rawSource, "/\\")
	if hasSeparator {
		filename = lastPathSegment(rawSource)
	}

	if isTempPath(rawSource, filename) {
		content := ""
		if result != nil {
			content = result.Content
		}
		return classifyByContent(content)
	}

	if hasSeparator || hasDocumentExtension(filename) {
		return formatFilename(filename)
	}

	// Bare identifier without a path or document extension; show as-is
	return rawSource
}

func metadataTitle(result *types.SearchResult) string {
	if result.Metadata == nil {
		return ""
	}
	if title := strings.TrimSpace(result.Metadata["title"]); title != "" {
		return title
	}
	return strings.TrimSpace(result.Metadata["name"])
}

func lastPathSegment(path string) string {
	idx := strings.LastIndexAny(path, "/\\")
	if idx < 0 || idx == len(path)-1 {
		return path
	}
	return path[idx+1:]
}

// isTempPath reproduces the upload-location heuristic used by the document
// pipeline: tmp-prefixed filenames and common temp directories on Linux,
// Windows and macOS.
func isTempPath(rawSource, filename string) bool {
	if strings.HasPrefix(filename, "tmp") {
		return true
	}
	return strings.Contains(rawSource, "/tmp") ||
		strings.Contains(rawSource, `\tmp`) ||
		strings.Contains(rawSource, "Temp") ||
		strings.Contains(rawSource, "/var/folders")
}

// classifyByContent picks a generic label for a masked document by scanning
// its content for keyword families, in priority order.
func classifyByContent(content string) string {
	lower := strings.ToLower(content)

	for _, term := range hotelTerms {
		if strings.Contains(lower, term) {
			return "Hotel Information"
		}
	}
	for _, term := range pricingTerms {
		if strings.Contains(lower, term) {
			return "Pricing Guide"
		}
	}
	for _, dest := range knownDestinations {
		if strings.Contains(lower, dest.keyword) {
			return dest.display + " Guide"
		}
	}
	return "Travel Guide"
}

func hasDocumentExtension(filename string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range documentExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// formatFilename turns "hotel_rates-2024.pdf" into "Hotel Rates 2024",
// keeping short all-caps tokens such as "FAQ" intact.
func formatFilename(filename string) string {
	name := filename
	lower := strings.ToLower(name)
	for _, ext := range documentExtensions {
		if strings.HasSuffix(lower, ext) {
			name = name[:len(name)-len(ext)]
			break
		}
	}

	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")

	words := strings.Fields(name)
	for i, word := range words {
		if isAcronym(word) {
			continue
		}
		words[i] = titleCaser.String(strings.ToLower(word))
	}
	return strings.Join(words, " ")
}

func isAcronym(word string) bool {
	if len(word) < 2 || len(word) > 5 {
		return false
	}
	for _, r := range word {
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanContent collapses whitespace runs and trims the text. Snippets that
// start mid-sentence are advanced to the next sentence boundary when one
// exists.
func CleanContent(text string) string {
	cleaned := strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	if cleaned == "" {
		return ""
	}

	first := []rune(cleaned)[0]
	if unicode.IsUpper(first) {
		return cleaned
	}

	if start := sentenceStart(cleaned); start > 0 {
		return cleaned[start:]
	}
	return cleaned
}

// sentenceStart returns the index just past the first ". <Capital>" boundary,
// or 0 when the text contains none.
func sentenceStart(text string) int {
	for i := 0; i < len(text)-1; i++ {
		if text[i] != '.' {
			continue
		}
		j := i + 1
		for j < len(text) && text[j] == ' ' {
			j++
		}
		if j < len(text) && text[j] >= 'A' && text[j] <= 'Z' {
			return j
		}
	}
	return 0
}
