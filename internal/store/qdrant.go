package store

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const (
	payloadRecordID = "record_id"
	payloadText     = "text"
)

// QdrantStore backs collections with a Qdrant instance. Record text is
// embedded on write via the injected Embedder, mirroring how an
// auto-embedding document store behaves; payload carries the record id,
// the raw text, and the metadata fields.
type QdrantStore struct {
	client     *qdrant.Client
	embedder   Embedder
	vectorSize uint64
}

func NewQdrantStore(urlStr, apiKey string, embedder Embedder) (*QdrantStore, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port, not the REST one
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &QdrantStore{
		client:     client,
		embedder:   embedder,
		vectorSize: 768, // text-embedding-004 size
	}, nil
}

// Collection implements Store. The Qdrant collection is created on first
// use with a cosine-distance vector config.
func (s *QdrantStore) Collection(ctx context.Context, name string) (Collection, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection %q: %w", name, err)
	}

	if !exists {
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     s.vectorSize,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create collection %q: %w", name, err)
		}
		log.Printf("✅ Qdrant collection '%s' created", name)
	}

	return &qdrantCollection{store: s, name: name}, nil
}

type qdrantCollection struct {
	store *QdrantStore
	name  string
}

// pointID derives a stable Qdrant point id from a record id so get and
// delete by record id work without a lookup table.
func (c *qdrantCollection) pointID(recordID string) *qdrant.PointId {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("qdrant/"+c.name+"/"+recordID))
	return qdrant.NewID(id.String())
}

func (c *qdrantCollection) pointIDs(recordIDs []string) []*qdrant.PointId {
	out := make([]*qdrant.PointId, 0, len(recordIDs))
	for _, id := range recordIDs {
		out = append(out, c.pointID(id))
	}
	return out
}

// Get implements Collection.
func (c *qdrantCollection) Get(ctx context.Context, ids []string) ([]Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	points, err := c.store.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: c.name,
		Ids:            c.pointIDs(ids),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}

	found := make(map[string]Record, len(points))
	for _, p := range points {
		rec := recordFromPayload(p.Payload)
		found[rec.ID] = rec
	}

	// keep caller order, skip missing ids
	var records []Record
	for _, id := range ids {
		if rec, ok := found[id]; ok {
			records = append(records, rec)
		}
	}

	return records, nil
}

// Add implements Collection. Existing ids are rejected, matching the
// add-vs-upsert split of the store contract.
func (c *qdrantCollection) Add(ctx context.Context, records []Record) error {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}

	existing, err := c.Get(ctx, ids)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("record %q already exists in collection %q", existing[0].ID, c.name)
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, r := range records {
		vector, err := c.store.embedder.Embed(ctx, r.Text)
		if err != nil {
			return fmt.Errorf("failed to embed record %q: %w", r.ID, err)
		}

		payload := map[string]any{
			payloadRecordID: r.ID,
			payloadText:     r.Text,
		}
		for k, v := range r.Metadata {
			payload[k] = v
		}

		points = append(points, &qdrant.PointStruct{
			Id:      c.pointID(r.ID),
			Vectors: qdrant.NewVectors(vector...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	if _, err := c.store.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.name,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("failed to add records: %w", err)
	}

	return nil
}

// Delete implements Collection. Deleting absent ids is a no-op in Qdrant.
func (c *qdrantCollection) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := c.store.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: c.name,
		Points:         qdrant.NewPointsSelector(c.pointIDs(ids)...),
	})
	if err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}

	return nil
}

// Search implements Searcher over the collection's vectors.
func (c *qdrantCollection) Search(ctx context.Context, vector []float32, kind string, limit int) ([]Record, error) {
	var filter *qdrant.Filter
	if kind != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("kind", kind),
			},
		}
	}

	points, err := c.store.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.name,
		Query:          qdrant.NewQuery(vector...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	records := make([]Record, 0, len(points))
	for _, p := range points {
		records = append(records, recordFromPayload(p.Payload))
	}

	return records, nil
}

func recordFromPayload(payload map[string]*qdrant.Value) Record {
	rec := Record{Metadata: make(map[string]any)}

	for key, value := range payload {
		switch key {
		case payloadRecordID:
			rec.ID = value.GetStringValue()
		case payloadText:
			rec.Text = value.GetStringValue()
		default:
			switch v := value.GetKind().(type) {
			case *qdrant.Value_StringValue:
				rec.Metadata[key] = v.StringValue
			case *qdrant.Value_DoubleValue:
				rec.Metadata[key] = v.DoubleValue
			case *qdrant.Value_IntegerValue:
				rec.Metadata[key] = float64(v.IntegerValue)
			case *qdrant.Value_BoolValue:
				rec.Metadata[key] = v.BoolValue
			}
		}
	}

	return rec
}
