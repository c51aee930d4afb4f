package rag

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantConfig holds connection parameters for a Qdrant instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantIndex implements Index backed by Qdrant. Each index name maps to one
// collection using cosine distance.
type QdrantIndex struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client
}

// NewQdrantIndex connects to Qdrant and returns a ready-to-use Index.
func NewQdrantIndex(cfg *QdrantConfig) (*QdrantIndex, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	return &QdrantIndex{client: client}, nil
}

// Client exposes the underlying client for health probes.
func (s *QdrantIndex) Client() *qdrant.Client { return s.client }

// CreateIndex creates the collection if it does not already exist.
func (s *QdrantIndex) CreateIndex(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("qdrant: invalid dimension %d", dimension)
	}
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension), //nolint:gosec // dimension checked positive above
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", name, err)
	}
	return nil
}

// DeleteIndex drops the collection if it exists.
func (s *QdrantIndex) DeleteIndex(ctx context.Context, name string) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if !exists {
		return nil
	}
	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("qdrant: failed to delete collection %q: %w", name, err)
	}
	return nil
}

// Upsert stores or replaces a batch of vectors in the collection.
func (s *QdrantIndex) Upsert(ctx context.Context, index string, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, 0, len(vectors))
	for _, v := range vectors {
		payload := make(map[string]any, len(v.Metadata))
		for k, val := range v.Metadata {
			payload[k] = val
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(v.ID),
			Vectors: qdrant.NewVectors(v.Values...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: index,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert failed: %w", err)
	}
	return nil
}

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantIndex) Close() error {
	return s.client.Close()
}
