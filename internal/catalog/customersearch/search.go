// Package customersearch backs the step-1 customer autocomplete with an
// Elasticsearch index of existing customers. Searches degrade to an empty
// result set on any failure; the wizard falls back to manual entry.
package customersearch

import (
	"context"
	"encoding/json"
	"strings"

	"mealsub-admin/internal/common/database"
	stderrors "mealsub-admin/internal/common/errors"
	"mealsub-admin/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const defaultIndex = "customers"

// Hit is one autocomplete suggestion.
type Hit struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type Searcher struct {
	es      *database.ElasticsearchClient
	index   string
	maxHits int
	log     logger.Logger
}

func NewSearcher(es *database.ElasticsearchClient, index string, maxHits int, log logger.Logger) *Searcher {
	if index == "" {
		index = defaultIndex
	}
	if maxHits <= 0 {
		maxHits = 10
	}
	return &Searcher{
		es:      es,
		index:   index,
		maxHits: maxHits,
		log:     log.WithFields(map[string]interface{}{"component": "customerSearch"}),
	}
}

// Search matches the term against name, phone, and email. A blank term
// returns no hits without touching the index.
func (s *Searcher) Search(ctx context.Context, term string) ([]Hit, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []Hit{}, nil
	}

	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  term,
				"fields": []string{"name^3", "phone^2", "email"},
				"type":   "best_fields",
			},
		},
		"size": s.maxHits,
	}

	body, _ := json.Marshal(queryBody)
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, s.es.Client)
	if err != nil {
		return nil, stderrors.NewCustomerSearchFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		s.log.Warn("customer search returned error status", map[string]interface{}{
			"status": res.Status(),
			"term":   term,
		})
		return []Hit{}, nil
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, stderrors.NewCustomerSearchFailedError(err)
	}

	return parseHits(r), nil
}

// parseHits walks the hits.hits._source path defensively; anything
// malformed is skipped rather than failing the whole search.
func parseHits(r map[string]interface{}) []Hit {
	out := []Hit{}

	outer, ok := r["hits"].(map[string]interface{})
	if !ok {
		return out
	}
	hits, ok := outer["hits"].([]interface{})
	if !ok {
		return out
	}

	for _, raw := range hits {
		h, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		source, ok := h["_source"].(map[string]interface{})
		if !ok {
			continue
		}

		var hit Hit
		if id, ok := source["id"].(float64); ok {
			hit.ID = int64(id)
		}
		hit.Name, _ = source["name"].(string)
		hit.Phone, _ = source["phone"].(string)
		hit.Email, _ = source["email"].(string)
		if hit.ID != 0 || hit.Name != "" || hit.Phone != "" {
			out = append(out, hit)
		}
	}
	return out
}
