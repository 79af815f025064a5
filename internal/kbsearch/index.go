package kbsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
)

// indexMapping defines the knowledge base index schema.
const indexMapping = `{
  "settings": {
    "index": {
      "number_of_shards": 1,
      "number_of_replicas": 0
    }
  },
  "mappings": {
    "properties": {
      "title":       {"type": "text"},
      "content":     {"type": "text"},
      "category":    {"type": "keyword"},
      "destination": {"type": "keyword"},
      "tags":        {"type": "text"},
      "path":        {"type": "keyword"}
    }
  }
}`

// EnsureIndex creates the knowledge base index if it does not exist yet.
func (c *Client) EnsureIndex(ctx context.Context) error {
	_, err := c.client.Indices.Create(ctx, opensearchapi.IndicesCreateReq{
		Index: c.config.Index,
		Body:  strings.NewReader(indexMapping),
	})
	if err != nil {
		if strings.Contains(err.Error(), "resource_already_exists_exception") {
			return nil
		}
		return fmt.Errorf("failed to create index %s: %w", c.config.Index, err)
	}
	c.logger.Printf("created knowledge base index %s", c.config.Index)
	return nil
}

// Document is an indexable knowledge base entry.
type Document struct {
	ID          string   `json:"-"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Category    string   `json:"category,omitempty"`
	Destination string   `json:"destination,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Path        string   `json:"path"`
}

// IndexDocument writes a single document, replacing any previous version
// with the same ID.
func (c *Client) IndexDocument(ctx context.Context, doc *Document) error {
	if doc == nil {
		return fmt.Errorf("document cannot be nil")
	}
	if doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", doc.ID, err)
	}

	operation := func() error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return ClassifyConnectionError(err)
		}
		_, err := c.client.Index(ctx, opensearchapi.IndexReq{
			Index:      c.config.Index,
			DocumentID: doc.ID,
			Body:       strings.NewReader(string(body)),
		})
		if err != nil {
			return ClassifyConnectionError(err)
		}
		return nil
	}

	return c.ExecuteWithRetry(ctx, operation, "IndexDocument")
}
