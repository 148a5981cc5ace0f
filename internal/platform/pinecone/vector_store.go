package pinecone

import (
	"context"
	"fmt"
	"os"
	"strings"

	pc "github.com/civicworks/sitelore-backend/internal/clients/pinecone"
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
)

type Vector = pc.Vector

type VectorMatch struct {
	ID    string
	Score float64
}

// VectorStore is the retrieval-index port the lesson pipeline writes to.
// Namespaces partition the index by project type.
type VectorStore interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]VectorMatch, error)
	DeleteIDs(ctx context.Context, namespace string, ids []string) error
}

type vectorStore struct {
	log       *logger.Logger
	pc        pc.Client
	indexName string
	indexHost string
	nsPrefix  string
}

func NewVectorStore(log *logger.Logger, client pc.Client) (VectorStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if client == nil {
		return nil, fmt.Errorf("pinecone client required")
	}

	indexName := strings.TrimSpace(os.Getenv("PINECONE_INDEX_NAME"))
	if indexName == "" {
		return nil, fmt.Errorf("missing PINECONE_INDEX_NAME")
	}

	host := strings.TrimSpace(os.Getenv("PINECONE_INDEX_HOST"))
	nsPrefix := strings.TrimSpace(os.Getenv("PINECONE_NAMESPACE_PREFIX"))
	if nsPrefix == "" {
		nsPrefix = "sl"
	}

	// If host missing, bootstrap via describe_index (fine for local/dev).
	if host == "" {
		desc, err := client.DescribeIndex(context.Background(), indexName)
		if err != nil {
			return nil, fmt.Errorf("pinecone describe_index failed: %w", err)
		}
		host = strings.TrimSpace(desc.Host)
		log.Warn("PINECONE_INDEX_HOST not set; resolved via describe_index (avoid this in production)",
			"index_name", indexName,
			"index_host", host,
		)
	}

	return &vectorStore{
		log:       log.With("service", "PineconeVectorStore"),
		pc:        client,
		indexName: indexName,
		indexHost: host,
		nsPrefix:  nsPrefix,
	}, nil
}

func (s *vectorStore) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	_, err := s.pc.UpsertVectors(ctx, s.indexHost, pc.UpsertRequest{
		Namespace: s.qualifyNamespace(namespace),
		Vectors:   vectors,
	})
	return err
}

func (s *vectorStore) QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]VectorMatch, error) {
	resp, err := s.pc.Query(ctx, s.indexHost, pc.QueryRequest{
		Namespace:       s.qualifyNamespace(namespace),
		Vector:          q,
		TopK:            topK,
		Filter:          filter,
		IncludeValues:   false,
		IncludeMetadata: false,
	})
	if err != nil {
		return nil, err
	}
	out := make([]VectorMatch, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if strings.TrimSpace(m.ID) == "" {
			continue
		}
		out = append(out, VectorMatch{ID: m.ID, Score: m.Score})
	}
	return out, nil
}

func (s *vectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.pc.DeleteVectors(ctx, s.indexHost, pc.DeleteRequest{
		Namespace: s.qualifyNamespace(namespace),
		IDs:       ids,
	})
}

func (s *vectorStore) qualifyNamespace(ns string) string {
	ns = strings.TrimSpace(ns)
	if ns == "" {
		return s.nsPrefix
	}
	return s.nsPrefix + ":" + ns
}
