package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voyora/zara/internal/types"
)

func TestCleanSourceNameEmptyInput(t *testing.T) {
	assert.Equal(t, "Knowledge Base", CleanSourceName("", nil))
	assert.Equal(t, "Knowledge Base", CleanSourceName("   ", nil))
}

func TestCleanSourceNameMetadataTitleWins(t *testing.T) {
	result := &types.SearchResult{
		Metadata: map[string]string{"title": "Maldives Honeymoon Packages"},
	}
	assert.Equal(t, "Maldives Honeymoon Packages", CleanSourceName("/docs/md_2024_v3.pdf", result))
}

func TestCleanSourceNameIgnoresTempLookingTitle(t *testing.T) {
	result := &types.SearchResult{
		Content:  "this hotel has a pool",
		Metadata: map[string]string{"title": "tmpabc123"},
	}
	assert.Equal(t, "Hotel Information", CleanSourceName("/tmp/tmpabc123.pdf", result))
}

func TestCleanSourceNameTempFileMasking(t *testing.T) {
	pricing := &types.SearchResult{Content: "rates start at $200"}
	assert.Equal(t, "Pricing Guide", CleanSourceName("/tmp/xyz123.pdf", pricing))

	hotel := &types.SearchResult{Content: "this hotel has a pool"}
	assert.Equal(t, "Hotel Information", CleanSourceName("/tmp/xyz123.pdf", hotel))

	dest := &types.SearchResult{Content: "zanzibar is beautiful in july"}
	assert.Equal(t, "Zanzibar Guide", CleanSourceName("/var/folders/ab/xyz.docx", dest))

	unknown := &types.SearchResult{Content: "general travel advice"}
	assert.Equal(t, "Travel Guide", CleanSourceName(`C:\Users\agent\Temp\upload.docx`, unknown))
}

func TestCleanSourceNameTempMaskingWithoutContext(t *testing.T) {
	assert.Equal(t, "Travel Guide", CleanSourceName("/tmp/xyz123.pdf", nil))
}

func TestCleanSourceNameFormatsFilenames(t *testing.T) {
	assert.Equal(t, "Mauritius", CleanSourceName("mauritius.md", nil))
	assert.Equal(t, "Hotel Rates 2024", CleanSourceName("/docs/hotel_rates-2024.pdf", nil))
	assert.Equal(t, "Booking FAQ", CleanSourceName("booking_FAQ.pdf", nil))
}

func TestCleanSourceNameBareIdentifierUnchanged(t *testing.T) {
	assert.Equal(t, "mauritius guide", CleanSourceName("mauritius guide", nil))
	assert.Equal(t, "KB-0042", CleanSourceName("KB-0042", nil))
}

func TestCleanContentCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "One two three.", CleanContent("  One \t two\n\nthree.  "))
	assert.Equal(t, "", CleanContent("   \n\t "))
}

func TestCleanContentAdvancesToSentenceBoundary(t *testing.T) {
	got := CleanContent("ing the lagoon view. The resort has 117 rooms.")
	assert.Equal(t, "The resort has 117 rooms.", got)
}

func TestCleanContentNoBoundaryReturnsTrimmed(t *testing.T) {
	got := CleanContent("lowercase fragment without any boundary")
	assert.Equal(t, "lowercase fragment without any boundary", got)
}
