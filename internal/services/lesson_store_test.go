package services

import (
	"context"
	"io"
	"testing"

	"github.com/civicworks/sitelore-backend/internal/platform/gcp"
	"github.com/civicworks/sitelore-backend/internal/types"
)

type fakeBucket struct {
	objects map[string][]byte
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}}
}

func bucketKey(category gcp.BucketCategory, key string) string {
	return string(category) + "/" + key
}

func (f *fakeBucket) Upload(_ context.Context, category gcp.BucketCategory, key string, r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[bucketKey(category, key)] = raw
	return nil
}

func (f *fakeBucket) Download(_ context.Context, category gcp.BucketCategory, key string) ([]byte, error) {
	raw, ok := f.objects[bucketKey(category, key)]
	if !ok {
		return nil, gcp.ErrObjectNotFound
	}
	return raw, nil
}

func (f *fakeBucket) ListKeys(_ context.Context, category gcp.BucketCategory, prefix string) ([]string, error) {
	var out []string
	for k := range f.objects {
		out = append(out, k)
	}
	return out, nil
}

func (f *fakeBucket) Delete(_ context.Context, category gcp.BucketCategory, key string) error {
	delete(f.objects, bucketKey(category, key))
	return nil
}

func TestBlobKeys(t *testing.T) {
	cases := []struct {
		scope          types.LessonScope
		key            string
		wantCollection string
		wantLedger     string
	}{
		{types.ScopeProject, "river-crossing", "projects/river-crossing/lessons.json", "projects/river-crossing/lessons-conflicts.json"},
		{types.ScopeProjectType, "bridge", "project-types/bridge/lessons.json", "project-types/bridge/lessons-conflicts.json"},
		{types.ScopeProject, " padded ", "projects/padded/lessons.json", "projects/padded/lessons-conflicts.json"},
	}
	for _, tc := range cases {
		if got := CollectionKey(tc.scope, tc.key); got != tc.wantCollection {
			t.Errorf("CollectionKey(%s, %q) = %q, want %q", tc.scope, tc.key, got, tc.wantCollection)
		}
		if got := LedgerKey(tc.scope, tc.key); got != tc.wantLedger {
			t.Errorf("LedgerKey(%s, %q) = %q, want %q", tc.scope, tc.key, got, tc.wantLedger)
		}
	}
}

func TestLoadAbsentCollectionIsEmpty(t *testing.T) {
	svc := NewLessonStoreService(testLogger(), newFakeBucket())

	lessons, err := svc.LoadCollection(context.Background(), types.ScopeProject, "nope")
	if err != nil {
		t.Fatalf("LoadCollection: %v", err)
	}
	if lessons == nil || len(lessons) != 0 {
		t.Fatalf("got %v, want explicit empty slice", lessons)
	}

	conflicts, err := svc.LoadLedger(context.Background(), types.ScopeProject, "nope")
	if err != nil {
		t.Fatalf("LoadLedger: %v", err)
	}
	if conflicts == nil || len(conflicts) != 0 {
		t.Fatalf("got %v, want explicit empty slice", conflicts)
	}
}

func TestCollectionRoundTrip(t *testing.T) {
	bucket := newFakeBucket()
	svc := NewLessonStoreService(testLogger(), bucket)

	in := []types.Lesson{mkLesson("a", "one"), mkLesson("b", "two")}
	if err := svc.SaveCollection(context.Background(), types.ScopeProjectType, "bridge", in); err != nil {
		t.Fatalf("SaveCollection: %v", err)
	}
	if _, ok := bucket.objects[bucketKey(gcp.BucketCategoryKnowledge, "project-types/bridge/lessons.json")]; !ok {
		t.Fatal("collection written under wrong key")
	}

	out, err := svc.LoadCollection(context.Background(), types.ScopeProjectType, "bridge")
	if err != nil {
		t.Fatalf("LoadCollection: %v", err)
	}
	if len(out) != 2 || out[0].ID != "a" || out[1].Title != "two" {
		t.Fatalf("round trip = %v", out)
	}
}

func TestSaveDocumentKey(t *testing.T) {
	bucket := newFakeBucket()
	svc := NewLessonStoreService(testLogger(), bucket)

	if err := svc.SaveDocument(context.Background(), "bridge-7", "memo.txt", "body"); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	raw, ok := bucket.objects[bucketKey(gcp.BucketCategoryDocument, "documents/bridge-7/memo.txt")]
	if !ok || string(raw) != "body" {
		t.Fatalf("document = %q ok=%v", raw, ok)
	}
}
