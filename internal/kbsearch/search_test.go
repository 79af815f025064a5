package kbsearch

import "testing"

func TestBuildSearchBodyUsesMultiMatch(t *testing.T) {
	client := &Client{config: &Config{Index: "zara-kb"}}
	body := client.buildSearchBody(&Query{Text: "mauritius hotels", Size: 5})

	querySection, ok := body["query"].(map[string]interface{})
	if !ok {
		t.Fatalf("query section missing")
	}
	boolQuery, ok := querySection["bool"].(map[string]interface{})
	if !ok {
		t.Fatalf("bool query missing")
	}
	must, ok := boolQuery["must"].([]map[string]interface{})
	if !ok || len(must) == 0 {
		t.Fatalf("must clause missing")
	}

	multiMatch, ok := must[0]["multi_match"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected multi_match clause")
	}
	if q, _ := multiMatch["query"].(string); q != "mauritius hotels" {
		t.Fatalf("unexpected query text: %v", multiMatch["query"])
	}

	fields, ok := multiMatch["fields"].([]string)
	if !ok || fields[0] != "title^2" {
		t.Fatalf("expected boosted title field, got %v", multiMatch["fields"])
	}
}

func TestBuildSearchBodyAddsTermFilters(t *testing.T) {
	client := &Client{config: &Config{Index: "zara-kb"}}
	body := client.buildSearchBody(&Query{
		Text:    "rates",
		Size:    5,
		Filters: map[string]string{"destination": "maldives"},
	})

	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	filters, ok := boolQuery["filter"].([]map[string]interface{})
	if !ok {
		t.Fatalf("expected filter clause to be added")
	}
	if len(filters) != 1 {
		t.Fatalf("expected a single term filter, got %d", len(filters))
	}

	term, ok := filters[0]["term"].(map[string]string)
	if !ok || term["destination"] != "maldives" {
		t.Fatalf("unexpected term filter: %v", filters[0])
	}
}

func TestDocMetadataOmitsEmptyFields(t *testing.T) {
	meta := docMetadata(&kbDocument{Title: "Maldives Guide"})
	if meta["title"] != "Maldives Guide" {
		t.Fatalf("expected title metadata, got %v", meta)
	}
	if _, ok := meta["category"]; ok {
		t.Fatalf("empty category should be omitted")
	}

	if docMetadata(&kbDocument{}) != nil {
		t.Fatalf("expected nil metadata for empty document")
	}
}
