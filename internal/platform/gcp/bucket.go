package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/civicworks/sitelore-backend/internal/platform/logger"
)

// ErrObjectNotFound signals an absent key, as distinct from an I/O failure.
// Callers that treat "missing" as an empty value test for it with errors.Is.
var ErrObjectNotFound = errors.New("object not found")

type BucketCategory string

const (
	// BucketCategoryKnowledge holds lesson collections and conflict ledgers
	// as JSON blobs.
	BucketCategoryKnowledge BucketCategory = "knowledge"
	// BucketCategoryDocument holds uploaded project documents.
	BucketCategoryDocument BucketCategory = "document"
)

type BucketService interface {
	Upload(ctx context.Context, category BucketCategory, key string, r io.Reader) error
	Download(ctx context.Context, category BucketCategory, key string) ([]byte, error)
	ListKeys(ctx context.Context, category BucketCategory, prefix string) ([]string, error)
	Delete(ctx context.Context, category BucketCategory, key string) error
}

type bucketService struct {
	log             *logger.Logger
	storageClient   *storage.Client
	knowledgeBucket string
	documentBucket  string
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	serviceLog := log.With("service", "BucketService")

	knowledgeBucket := strings.TrimSpace(os.Getenv("KNOWLEDGE_GCS_BUCKET_NAME"))
	if knowledgeBucket == "" {
		return nil, fmt.Errorf("missing env var KNOWLEDGE_GCS_BUCKET_NAME")
	}
	documentBucket := strings.TrimSpace(os.Getenv("DOCUMENT_GCS_BUCKET_NAME"))
	if documentBucket == "" {
		documentBucket = knowledgeBucket
	}

	ctx := context.Background()
	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	if emulator := strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")); emulator != "" {
		opts = []option.ClientOption{option.WithoutAuthentication()}
	}
	stClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info("Object storage initialized",
		"knowledge_bucket", knowledgeBucket,
		"document_bucket", documentBucket,
	)

	return &bucketService{
		log:             serviceLog,
		storageClient:   stClient,
		knowledgeBucket: knowledgeBucket,
		documentBucket:  documentBucket,
	}, nil
}

func (bs *bucketService) bucketName(category BucketCategory) (string, error) {
	switch category {
	case BucketCategoryKnowledge:
		return bs.knowledgeBucket, nil
	case BucketCategoryDocument:
		return bs.documentBucket, nil
	default:
		return "", fmt.Errorf("unknown bucket category: %s", category)
	}
}

func (bs *bucketService) Upload(ctx context.Context, category BucketCategory, key string, r io.Reader) error {
	name, err := bs.bucketName(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(name).Object(key).NewWriter(ctx)
	if strings.HasSuffix(strings.ToLower(key), ".json") {
		w.ContentType = "application/json"
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close writer for %q: %w", key, err)
	}
	return nil
}

func (bs *bucketService) Download(ctx context.Context, category BucketCategory, key string) ([]byte, error) {
	name, err := bs.bucketName(category)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	r, err := bs.storageClient.Bucket(name).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to open reader for %q: %w", key, err)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %q: %w", key, err)
	}
	return raw, nil
}

func (bs *bucketService) ListKeys(ctx context.Context, category BucketCategory, prefix string) ([]string, error) {
	name, err := bs.bucketName(category)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	it := bs.storageClient.Bucket(name).Objects(ctx, &storage.Query{Prefix: prefix})
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (bs *bucketService) Delete(ctx context.Context, category BucketCategory, key string) error {
	name, err := bs.bucketName(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	o := bs.storageClient.Bucket(name).Object(key)
	if err := o.Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return fmt.Errorf("failed to delete object %q in bucket %q: %w", key, name, err)
	}
	return nil
}
