// Package search maintains an in-memory full-text index over newsletters
// so the API can answer keyword queries without touching Postgres.
package search

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/yoyo-gitroi/GTM-Newsletter/internal/store"
)

// document is the indexed projection of a newsletter.
type document struct {
	Title     string `json:"title"`
	DateRange string `json:"date_range"`
	Status    string `json:"status"`
	Body      string `json:"body"`
}

// Hit is one search result.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Index wraps a mem-only bleve index. The index is rebuilt from the store
// on startup and kept current by the HTTP handlers.
type Index struct {
	mu    sync.RWMutex
	bleve bleve.Index
}

func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating search index: %w", err)
	}
	return &Index{bleve: idx}, nil
}

// IndexNewsletter adds or replaces a newsletter in the index. The refined
// body is preferred; draft newsletters index on title and date range only.
func (i *Index) IndexNewsletter(nl store.Newsletter) error {
	doc := document{
		Title:     nl.Title,
		DateRange: nl.DateRange,
		Status:    nl.Status,
	}
	switch {
	case nl.LanguageRefinedOutput != nil && *nl.LanguageRefinedOutput != "":
		doc.Body = *nl.LanguageRefinedOutput
	case nl.AssembledNewsletter != nil:
		doc.Body = *nl.AssembledNewsletter
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	return i.bleve.Index(nl.ID, doc)
}

// Remove drops a newsletter from the index.
func (i *Index) Remove(id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.bleve.Delete(id)
}

// Search runs a query-string query and returns up to limit hits ranked by
// score.
func (i *Index) Search(q string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	query := bleve.NewQueryStringQuery(q)
	req := bleve.NewSearchRequestOptions(query, limit, 0, false)

	i.mu.RLock()
	res, err := i.bleve.Search(req)
	i.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q, err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}
