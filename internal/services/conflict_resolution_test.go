package services

import (
	"context"
	"errors"
	"testing"

	"github.com/civicworks/sitelore-backend/internal/clients/redis"
	"github.com/civicworks/sitelore-backend/internal/types"
)

func seedConflict(store *fakeLessonStore, scope types.LessonScope, key string) types.Conflict {
	newL := mkLesson("n1", "new")
	oldL := mkLesson("e1", "old")
	store.collections[storeKey(scope, key)] = []types.Lesson{newL, oldL, mkLesson("e2", "bystander")}
	c := types.Conflict{
		ID:             "cf1",
		NewLesson:      newL,
		ExistingLesson: oldL,
		Reason:         "overlap",
		Status:         types.ConflictPending,
	}
	store.ledgers[storeKey(scope, key)] = []types.Conflict{c}
	return c
}

func TestResolveDecisionEffects(t *testing.T) {
	cases := []struct {
		decision types.ConflictDecision
		wantIDs  map[string]bool
	}{
		{types.DecisionKeepNew, map[string]bool{"n1": true, "e2": true}},
		{types.DecisionKeepExisting, map[string]bool{"e1": true, "e2": true}},
		{types.DecisionKeepBoth, map[string]bool{"n1": true, "e1": true, "e2": true}},
		{types.DecisionDeleteBoth, map[string]bool{"e2": true}},
	}
	for _, tc := range cases {
		t.Run(string(tc.decision), func(t *testing.T) {
			store := newFakeLessonStore()
			seedConflict(store, types.ScopeProject, "p1")
			svc := NewConflictResolutionService(testLogger(), store, nil)

			if err := svc.Resolve(context.Background(), types.ScopeProject, "p1", "cf1", tc.decision); err != nil {
				t.Fatalf("Resolve: %v", err)
			}

			lessons, _ := store.LoadCollection(context.Background(), types.ScopeProject, "p1")
			if len(lessons) != len(tc.wantIDs) {
				t.Fatalf("collection = %v, want ids %v", lessons, tc.wantIDs)
			}
			for _, l := range lessons {
				if !tc.wantIDs[l.ID] {
					t.Fatalf("unexpected survivor %s", l.ID)
				}
			}

			ledger, _ := store.LoadLedger(context.Background(), types.ScopeProject, "p1")
			if len(ledger) != 1 {
				t.Fatalf("ledger rewritten to %v", ledger)
			}
			if ledger[0].Status != types.ConflictResolved {
				t.Errorf("status = %q", ledger[0].Status)
			}
			if ledger[0].Decision != tc.decision {
				t.Errorf("decision = %q", ledger[0].Decision)
			}
			if ledger[0].ResolvedAt == "" {
				t.Error("resolved_at not stamped")
			}
		})
	}
}

func TestResolveExactlyOnce(t *testing.T) {
	store := newFakeLessonStore()
	seedConflict(store, types.ScopeProject, "p1")
	svc := NewConflictResolutionService(testLogger(), store, nil)

	if err := svc.Resolve(context.Background(), types.ScopeProject, "p1", "cf1", types.DecisionKeepBoth); err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	err := svc.Resolve(context.Background(), types.ScopeProject, "p1", "cf1", types.DecisionDeleteBoth)
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("second Resolve err = %v, want ErrAlreadyResolved", err)
	}

	// The second decision must not have touched the collection.
	lessons, _ := store.LoadCollection(context.Background(), types.ScopeProject, "p1")
	if len(lessons) != 3 {
		t.Fatalf("collection changed after rejected resolve: %v", lessons)
	}
}

func TestResolveUnknownConflict(t *testing.T) {
	store := newFakeLessonStore()
	seedConflict(store, types.ScopeProject, "p1")
	svc := NewConflictResolutionService(testLogger(), store, nil)

	err := svc.Resolve(context.Background(), types.ScopeProject, "p1", "missing", types.DecisionKeepNew)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveInvalidDecision(t *testing.T) {
	store := newFakeLessonStore()
	seedConflict(store, types.ScopeProject, "p1")
	svc := NewConflictResolutionService(testLogger(), store, nil)

	err := svc.Resolve(context.Background(), types.ScopeProject, "p1", "cf1", types.ConflictDecision("shred"))
	if !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("err = %v, want ErrInvalidDecision", err)
	}
}

func TestResolveTypeScopeEnqueuesVectorDelete(t *testing.T) {
	store := newFakeLessonStore()
	seedConflict(store, types.ScopeProjectType, "roadway")
	bus := &fakeSyncBus{}
	svc := NewConflictResolutionService(testLogger(), store, bus)

	if err := svc.Resolve(context.Background(), types.ScopeProjectType, "roadway", "cf1", types.DecisionKeepNew); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	events := bus.published()
	if len(events) != 1 {
		t.Fatalf("events = %v", events)
	}
	if events[0].Kind != redis.SyncDelete || events[0].ProjectType != "roadway" {
		t.Fatalf("event = %+v", events[0])
	}
	if len(events[0].LessonIDs) != 1 || events[0].LessonIDs[0] != "e1" {
		t.Fatalf("lesson ids = %v", events[0].LessonIDs)
	}
}

func TestResolveKeepBothSkipsVectorDelete(t *testing.T) {
	store := newFakeLessonStore()
	seedConflict(store, types.ScopeProjectType, "roadway")
	bus := &fakeSyncBus{}
	svc := NewConflictResolutionService(testLogger(), store, bus)

	if err := svc.Resolve(context.Background(), types.ScopeProjectType, "roadway", "cf1", types.DecisionKeepBoth); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if events := bus.published(); len(events) != 0 {
		t.Fatalf("keep_both removed nothing, events = %v", events)
	}
}

func TestListPending(t *testing.T) {
	store := newFakeLessonStore()
	store.ledgers[storeKey(types.ScopeProject, "p1")] = []types.Conflict{
		{ID: "a", Status: types.ConflictPending},
		{ID: "b", Status: types.ConflictResolved, Decision: types.DecisionKeepNew},
		{ID: "c", Status: types.ConflictPending},
	}
	svc := NewConflictResolutionService(testLogger(), store, nil)

	pending, err := svc.ListPending(context.Background(), types.ScopeProject, "p1")
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "a" || pending[1].ID != "c" {
		t.Fatalf("pending = %v", pending)
	}
}
