package kbsearch

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/voyora/zara/internal/types"
)

var kbTracer = otel.Tracer("zara/kbsearch")

// kbDocument mirrors the indexed document shape (see the seeder package).
type kbDocument struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Category    string   `json:"category,omitempty"`
	Destination string   `json:"destination,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Path        string   `json:"path"`
}

// Query describes a BM25 keyword search against the knowledge base.
type Query struct {
	Text    string
	Size    int
	Filters map[string]string
}

// Search runs a BM25 match query and converts hits into SearchResult values
// ordered by relevance, ready for answer generation.
func (c *Client) Search(ctx context.Context, query *Query) ([]types.SearchResult, error) {
	if query == nil || strings.TrimSpace(query.Text) == "" {
		return nil, NewSearchError(types.ErrorTypeValidation, "query text cannot be empty")
	}
	if query.Size <= 0 {
		query.Size = 5
	}
	if query.Size > 50 {
		query.Size = 50
	}

	ctx, span := kbTracer.Start(ctx, "kbsearch.search")
	defer span.End()
	span.SetAttributes(
		attribute.String("kb.index", c.config.Index),
		attribute.Int("kb.size", query.Size),
	)

	var results []types.SearchResult
	operation := func() error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return ClassifyConnectionError(err)
		}

		body, err := json.Marshal(c.buildSearchBody(query))
		if err != nil {
			return NewSearchError(types.ErrorTypeValidation, "failed to marshal search body")
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()

		resp, err := c.client.Search(reqCtx, &opensearchapi.SearchReq{
			Indices: []string{c.config.Index},
			Body:    strings.NewReader(string(body)),
		})
		if err != nil {
			return ClassifyConnectionError(err)
		}
		if resp == nil {
			return NewSearchError(types.ErrorTypeUnknown, "received nil response from OpenSearch")
		}

		results = make([]types.SearchResult, 0, len(resp.Hits.Hits))
		for _, hit := range resp.Hits.Hits {
			var doc kbDocument
			if err := json.Unmarshal(hit.Source, &doc); err != nil {
				c.logger.Printf("skipping unparsable hit %s: %v", hit.ID, err)
				continue
			}
			results = append(results, types.SearchResult{
				Content:  doc.Content,
				Source:   doc.Path,
				Score:    float64(hit.Score),
				Metadata: docMetadata(&doc),
			})
		}
		return nil
	}

	start := time.Now()
	err := c.ExecuteWithRetry(ctx, operation, "KBSearch")
	if err != nil {
		return nil, err
	}

	c.logger.Printf("knowledge base search returned %d results in %v", len(results), time.Since(start))
	return results, nil
}

func docMetadata(doc *kbDocument) map[string]string {
	meta := map[string]string{}
	if doc.Title != "" {
		meta["title"] = doc.Title
	}
	if doc.Category != "" {
		meta["category"] = doc.Category
	}
	if doc.Destination != "" {
		meta["destination"] = doc.Destination
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func (c *Client) buildSearchBody(query *Query) map[string]interface{} {
	body := map[string]interface{}{
		"size": query.Size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []map[string]interface{}{
					{
						"multi_match": map[string]interface{}{
							"query":  query.Text,
							"fields": []string{"title^2", "content", "tags"},
							"type":   "best_fields",
						},
					},
				},
			},
		},
		"sort": []map[string]interface{}{
			{"_score": map[string]string{"order": "desc"}},
		},
	}

	if len(query.Filters) > 0 {
		filters := make([]map[string]interface{}, 0, len(query.Filters))
		for field, value := range query.Filters {
			filters = append(filters, map[string]interface{}{
				"term": map[string]string{field: value},
			})
		}
		body["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"] = filters
	}

	return body
}
