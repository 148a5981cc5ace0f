package services

import (
	"context"
	"fmt"
	"time"

	"github.com/civicworks/sitelore-backend/internal/clients/redis"
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/types"
)

// ConflictResolutionService applies human decisions to pending conflicts.
// A conflict is resolved exactly once; the ledger keeps resolved entries
// for audit.
type ConflictResolutionService interface {
	ListPending(ctx context.Context, scope types.LessonScope, key string) ([]types.Conflict, error)
	Resolve(ctx context.Context, scope types.LessonScope, key, conflictID string, decision types.ConflictDecision) error
}

type conflictResolutionService struct {
	log   *logger.Logger
	store LessonStoreService
	bus   redis.SyncBus
}

func NewConflictResolutionService(log *logger.Logger, store LessonStoreService, bus redis.SyncBus) ConflictResolutionService {
	return &conflictResolutionService{
		log:   log.With("service", "ConflictResolutionService"),
		store: store,
		bus:   bus,
	}
}

func (s *conflictResolutionService) ListPending(ctx context.Context, scope types.LessonScope, key string) ([]types.Conflict, error) {
	ledger, err := s.store.LoadLedger(ctx, scope, key)
	if err != nil {
		return nil, err
	}
	pending := make([]types.Conflict, 0, len(ledger))
	for _, c := range ledger {
		if c.Status == types.ConflictPending {
			pending = append(pending, c)
		}
	}
	return pending, nil
}

func (s *conflictResolutionService) Resolve(ctx context.Context, scope types.LessonScope, key, conflictID string, decision types.ConflictDecision) error {
	if !decision.Valid() {
		return fmt.Errorf("%w: decision %q", ErrInvalidDecision, decision)
	}

	ledger, err := s.store.LoadLedger(ctx, scope, key)
	if err != nil {
		return err
	}

	idx := -1
	for i := range ledger {
		if ledger[i].ID == conflictID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: conflict %s", ErrNotFound, conflictID)
	}
	if ledger[idx].Status == types.ConflictResolved {
		return fmt.Errorf("%w: conflict %s", ErrAlreadyResolved, conflictID)
	}

	removeIDs := decisionRemovals(ledger[idx], decision)
	if len(removeIDs) > 0 {
		lessons, err := s.store.LoadCollection(ctx, scope, key)
		if err != nil {
			return err
		}
		kept := lessons[:0]
		for _, l := range lessons {
			if !removeIDs[l.ID] {
				kept = append(kept, l)
			}
		}
		if err := s.store.SaveCollection(ctx, scope, key, kept); err != nil {
			return err
		}
	}

	ledger[idx].Status = types.ConflictResolved
	ledger[idx].Decision = decision
	ledger[idx].ResolvedAt = time.Now().UTC().Format(time.RFC3339)
	if err := s.store.SaveLedger(ctx, scope, key, ledger); err != nil {
		return err
	}

	s.log.Info("Resolved conflict",
		"scope", scope,
		"key", key,
		"conflict_id", conflictID,
		"decision", decision,
		"removed", len(removeIDs),
	)

	// Type-scope collections back a vector namespace; removals there need
	// the index rebuilt. The resolution itself already committed, so a
	// failed enqueue only logs.
	if scope == types.ScopeProjectType && len(removeIDs) > 0 && s.bus != nil {
		ids := make([]string, 0, len(removeIDs))
		for id := range removeIDs {
			ids = append(ids, id)
		}
		ev := redis.SyncEvent{Kind: redis.SyncDelete, ProjectType: key, LessonIDs: ids}
		if err := s.bus.Publish(context.Background(), ev); err != nil {
			s.log.Error("Failed to enqueue vector delete", "project_type", key, "error", err)
		}
	}
	return nil
}

// decisionRemovals maps a decision onto the lesson IDs it evicts from the
// collection. keep_both touches nothing.
func decisionRemovals(c types.Conflict, decision types.ConflictDecision) map[string]bool {
	removals := map[string]bool{}
	switch decision {
	case types.DecisionKeepNew:
		removals[c.ExistingLesson.ID] = true
	case types.DecisionKeepExisting:
		removals[c.NewLesson.ID] = true
	case types.DecisionDeleteBoth:
		removals[c.NewLesson.ID] = true
		removals[c.ExistingLesson.ID] = true
	case types.DecisionKeepBoth:
	}
	return removals
}
