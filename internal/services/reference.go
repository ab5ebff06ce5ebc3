package services

import (
	"context"
	"fmt"

	"github.com/dimasprasetya/screening-api/internal/store"
)

// ReferenceRetriever fetches ground-truth context (job description, case
// study brief, scoring rubrics) relevant to a candidate's text.
type ReferenceRetriever interface {
	Retrieve(ctx context.Context, queryText string) (string, error)
}

type referenceRetriever struct {
	searcher store.Searcher
	embedder store.Embedder
	limit    int
}

func NewReferenceRetriever(searcher store.Searcher, embedder store.Embedder) ReferenceRetriever {
	return &referenceRetriever{
		searcher: searcher,
		embedder: embedder,
		limit:    5,
	}
}

// Retrieve implements ReferenceRetriever via similarity search over the
// reference collection.
func (r *referenceRetriever) Retrieve(ctx context.Context, queryText string) (string, error) {
	vector, err := r.embedder.Embed(ctx, queryText)
	if err != nil {
		return "", fmt.Errorf("failed to embed reference query: %w", err)
	}

	records, err := r.searcher.Search(ctx, vector, "", r.limit)
	if err != nil {
		return "", fmt.Errorf("failed to search reference documents: %w", err)
	}

	return FormatReferenceContext(records), nil
}
