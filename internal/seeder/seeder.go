// Package seeder loads knowledge-base markdown documents from disk and
// indexes them into OpenSearch. Documents may carry YAML front matter with
// title, category, destination and tags.
package seeder

import (
	"context"
	"crypto/md5"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/voyora/zara/internal/kbsearch"
)

// frontMatter is the YAML header recognised at the top of a document.
type frontMatter struct {
	Title       string   `yaml:"title"`
	Category    string   `yaml:"category"`
	Destination string   `yaml:"destination"`
	Tags        []string `yaml:"tags"`
}

// indexer is the subset of the search client the seeder needs.
type indexer interface {
	EnsureIndex(ctx context.Context) error
	IndexDocument(ctx context.Context, doc *kbsearch.Document) error
}

// Seeder walks a directory of markdown files and indexes each one.
type Seeder struct {
	client indexer
	logger *log.Logger
}

// New creates a Seeder writing through the given search client.
func New(client *kbsearch.Client, logger *log.Logger) *Seeder {
	if logger == nil {
		logger = log.New(log.Writer(), "[seeder] ", log.LstdFlags)
	}
	return &Seeder{client: client, logger: logger}
}

// Result summarises one seeding run.
type Result struct {
	Indexed int
	Skipped int
	Errors  []error
}

// Seed indexes every markdown file under dirPath. Files that fail to parse
// or index are reported in the result but do not stop the run.
func (s *Seeder) Seed(ctx context.Context, dirPath string) (*Result, error) {
	if err := validateDirectory(dirPath); err != nil {
		return nil, err
	}
	if err := s.client.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure index: %w", err)
	}

	result := &Result{}
	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Skip unreadable entries but continue the walk
			return nil
		}
		if d.IsDir() || !isMarkdownFile(path) {
			return nil
		}

		doc, parseErr := LoadDocument(dirPath, path)
		if parseErr != nil {
			s.logger.Printf("skipping %s: %v", path, parseErr)
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, parseErr))
			return nil
		}

		if indexErr := s.client.IndexDocument(ctx, doc); indexErr != nil {
			s.logger.Printf("failed to index %s: %v", path, indexErr)
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, indexErr))
			return nil
		}

		result.Indexed++
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to walk %s: %w", dirPath, err)
	}

	s.logger.Printf("seeding complete: indexed=%d skipped=%d", result.Indexed, result.Skipped)
	return result, nil
}

// LoadDocument reads one markdown file and builds an indexable document.
// The document ID is derived from the path relative to the seed root so
// reseeding replaces documents instead of duplicating them.
func LoadDocument(rootDir, path string) (*kbsearch.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	meta, body, err := parseFrontMatter(string(raw))
	if err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("document has no content")
	}

	relPath, err := filepath.Rel(rootDir, path)
	if err != nil {
		relPath = filepath.Base(path)
	}

	title := meta.Title
	if title == "" {
		title = titleFromContent(body)
	}
	if title == "" {
		title = titleFromFilename(path)
	}

	return &kbsearch.Document{
		ID:          fmt.Sprintf("%x", md5.Sum([]byte(relPath))),
		Title:       title,
		Content:     body,
		Category:    meta.Category,
		Destination: meta.Destination,
		Tags:        meta.Tags,
		Path:        relPath,
	}, nil
}

// parseFrontMatter splits optional YAML front matter from the markdown body.
func parseFrontMatter(content string) (*frontMatter, string, error) {
	meta := &frontMatter{}
	if !strings.HasPrefix(content, "---") {
		return meta, content, nil
	}

	lines := strings.Split(content, "\n")
	endIndex := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			endIndex = i
			break
		}
	}
	if endIndex == -1 {
		return meta, content, nil
	}

	header := strings.Join(lines[1:endIndex], "\n")
	if strings.TrimSpace(header) != "" {
		if err := yaml.Unmarshal([]byte(header), meta); err != nil {
			return nil, "", fmt.Errorf("invalid YAML front matter: %w", err)
		}
	}
	return meta, strings.Join(lines[endIndex+1:], "\n"), nil
}

// titleFromContent uses the first markdown heading as the title.
func titleFromContent(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}

func titleFromFilename(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.TrimSpace(name)
}

func isMarkdownFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

func validateDirectory(dirPath string) error {
	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dirPath)
		}
		return fmt.Errorf("cannot access directory %s: %w", dirPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dirPath)
	}
	return nil
}
