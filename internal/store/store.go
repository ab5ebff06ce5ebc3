package store

import (
	"context"
)

// Record is one entry in a collection: an id, the stored text, and a flat
// metadata map. Metadata values are strings or numbers (float64).
type Record struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Collection is a set of records keyed by id. The ledger and the candidate
// corpus are both collections behind this contract, so the backing store
// (Qdrant, in-memory) is swappable.
type Collection interface {
	// Get returns the records matching ids. Missing ids are simply absent
	// from the result, never an error.
	Get(ctx context.Context, ids []string) ([]Record, error)

	// Add inserts new records. It fails if any id already exists.
	Add(ctx context.Context, records []Record) error

	// Delete removes records by id. Absent ids are a no-op.
	Delete(ctx context.Context, ids []string) error
}

// Store hands out named collections, creating them on first use.
type Store interface {
	Collection(ctx context.Context, name string) (Collection, error)
}

// Embedder turns text into a vector so vector-backed stores can index it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher is implemented by collections that support similarity search.
// kind filters on the "kind" metadata field when non-empty.
type Searcher interface {
	Search(ctx context.Context, vector []float32, kind string, limit int) ([]Record, error)
}

// Upsert replaces records by deleting their ids first and then adding the
// new versions. Delete errors are ignored: absence is not a failure, and
// the store has no native update-in-place.
func Upsert(ctx context.Context, c Collection, records []Record) error {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}

	_ = c.Delete(ctx, ids)

	return c.Add(ctx, records)
}
