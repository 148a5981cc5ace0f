package app

import (
	"fmt"
	"os"
	"strings"

	pc "github.com/civicworks/sitelore-backend/internal/clients/pinecone"
	"github.com/civicworks/sitelore-backend/internal/clients/redis"
	"github.com/civicworks/sitelore-backend/internal/platform/gcp"
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/platform/openai"
	"github.com/civicworks/sitelore-backend/internal/platform/pinecone"
)

type Clients struct {
	Bucket  gcp.BucketService
	OpenAI  openai.Client
	Vectors pinecone.VectorStore
	SyncBus redis.SyncBus
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}

	openaiClient, err := openai.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	// Pinecone and redis are optional: without them merges still work, the
	// vector pipeline just stays dark.
	var vectors pinecone.VectorStore
	if strings.TrimSpace(os.Getenv("PINECONE_API_KEY")) != "" {
		pcClient, err := pc.New(log, pc.Config{APIKey: os.Getenv("PINECONE_API_KEY")})
		if err != nil {
			return Clients{}, fmt.Errorf("init pinecone client: %w", err)
		}
		vectors, err = pinecone.NewVectorStore(log, pcClient)
		if err != nil {
			return Clients{}, fmt.Errorf("init vector store: %w", err)
		}
	} else {
		log.Warn("PINECONE_API_KEY not set; vector sync and knowledge queries disabled")
	}

	var bus redis.SyncBus
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		b, err := redis.NewSyncBus(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis sync bus: %w", err)
		}
		bus = b
	} else {
		log.Warn("REDIS_ADDR not set; vector sync events disabled")
	}

	return Clients{
		Bucket:  bucket,
		OpenAI:  openaiClient,
		Vectors: vectors,
		SyncBus: bus,
	}, nil
}
