package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/civicworks/sitelore-backend/internal/observability"
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/repos"
	"github.com/civicworks/sitelore-backend/internal/types"
)

// syncWorkerLimit caps how many projects sync concurrently.
const syncWorkerLimit = 10

type ProjectSyncResult struct {
	ProjectName string `json:"project_name"`
	Added       int    `json:"added"`
	Updated     int    `json:"updated"`
	Deleted     int    `json:"deleted"`
	Skipped     int    `json:"skipped"`
	Error       string `json:"error,omitempty"`
}

type SyncSummary struct {
	Message        string              `json:"message"`
	ProjectsSynced int                 `json:"projects_synced"`
	Updates        int                 `json:"updates"`
	Projects       []ProjectSyncResult `json:"projects,omitempty"`
}

// ChecklistSyncService pushes the global template checklists out to every
// project. Sync is additive and content-refreshing; completed items are
// never rewritten or removed, and template tasks a project has already
// worked past are not re-added.
type ChecklistSyncService interface {
	Sync(ctx context.Context) (SyncSummary, error)
	SyncProject(ctx context.Context, projectName string, template map[types.ChecklistType][]types.GlobalChecklistTask) (ProjectSyncResult, error)
}

type checklistSyncService struct {
	log      *logger.Logger
	projects repos.ProjectRepo
	global   repos.GlobalTaskRepo
	items    repos.ChecklistItemRepo
}

func NewChecklistSyncService(
	log *logger.Logger,
	projects repos.ProjectRepo,
	global repos.GlobalTaskRepo,
	items repos.ChecklistItemRepo,
) ChecklistSyncService {
	return &checklistSyncService{
		log:      log.With("service", "ChecklistSyncService"),
		projects: projects,
		global:   global,
		items:    items,
	}
}

func (s *checklistSyncService) Sync(ctx context.Context) (SyncSummary, error) {
	tasks, err := s.global.ListAll(ctx)
	if err != nil {
		return SyncSummary{}, err
	}
	if len(tasks) == 0 {
		return SyncSummary{Message: "No global tasks to sync"}, nil
	}

	template := make(map[types.ChecklistType][]types.GlobalChecklistTask)
	for _, t := range tasks {
		template[t.ChecklistType] = append(template[t.ChecklistType], t)
	}

	projects, err := s.projects.List(ctx)
	if err != nil {
		return SyncSummary{}, err
	}
	if len(projects) == 0 {
		return SyncSummary{Message: "No projects to sync"}, nil
	}

	start := time.Now()
	results := make([]ProjectSyncResult, len(projects))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncWorkerLimit)
	for i, p := range projects {
		i, p := i, p
		g.Go(func() error {
			res, err := s.SyncProject(gctx, p.Name, template)
			if err != nil {
				// One project's failure never blocks the rest.
				res = ProjectSyncResult{ProjectName: p.Name, Error: err.Error()}
				s.log.Error("Project sync failed", "project", p.Name, "error", err)
			}
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SyncSummary{}, err
	}

	updates := 0
	for _, r := range results {
		updates += r.Added + r.Updated + r.Deleted
	}
	observability.Current().ObserveChecklistSync(len(projects), updates)
	s.log.Info("Checklist sync complete",
		"projects", len(projects),
		"updates", updates,
		"duration", time.Since(start),
	)
	return SyncSummary{
		Message:        "Sync complete",
		ProjectsSynced: len(projects),
		Updates:        updates,
		Projects:       results,
	}, nil
}

func (s *checklistSyncService) SyncProject(ctx context.Context, projectName string, template map[types.ChecklistType][]types.GlobalChecklistTask) (ProjectSyncResult, error) {
	existing, err := s.items.ListByProject(ctx, projectName)
	if err != nil {
		return ProjectSyncResult{}, err
	}

	byType := make(map[types.ChecklistType]map[string]types.ProjectChecklistItem)
	for _, it := range existing {
		m := byType[it.ChecklistType]
		if m == nil {
			m = map[string]types.ProjectChecklistItem{}
			byType[it.ChecklistType] = m
		}
		m[it.TaskID] = it
	}

	res := ProjectSyncResult{ProjectName: projectName}
	var puts []types.ProjectChecklistItem
	var deletes []types.ProjectChecklistItem
	now := time.Now().UTC()

	for checklistType, tasks := range template {
		current := byType[checklistType]
		highestDone := highestCompletedTaskID(current)

		inTemplate := make(map[string]bool, len(tasks))
		for _, t := range tasks {
			inTemplate[t.TaskID] = true
		}

		// Items dropped from the template go away unless the project
		// already completed them.
		for taskID, it := range current {
			if !inTemplate[taskID] && it.Status != types.TaskCompleted {
				deletes = append(deletes, it)
				res.Deleted++
			}
		}

		ordered := make([]types.GlobalChecklistTask, len(tasks))
		copy(ordered, tasks)
		sort.SliceStable(ordered, func(i, j int) bool {
			return types.CompareTaskIDs(ordered[i].TaskID, ordered[j].TaskID) < 0
		})

		for _, t := range ordered {
			it, present := current[t.TaskID]
			if present {
				if it.Status == types.TaskCompleted {
					continue
				}
				if checklistContentDiffers(it, t) {
					it.Description = t.Description
					it.Required = t.Required
					it.ProjectedDate = t.ProjectedDate
					it.Notes = t.Notes
					it.UpdatedAt = now
					puts = append(puts, it)
					res.Updated++
				}
				continue
			}
			// A task ordered at or before the project's furthest completed
			// task belongs to work already done; adding it now would reopen
			// a finished phase.
			if highestDone != "" && types.CompareTaskIDs(t.TaskID, highestDone) <= 0 {
				res.Skipped++
				continue
			}
			puts = append(puts, types.ProjectChecklistItem{
				ID:            uuid.New(),
				ProjectName:   projectName,
				ChecklistType: checklistType,
				TaskID:        t.TaskID,
				Description:   t.Description,
				Required:      t.Required,
				ProjectedDate: t.ProjectedDate,
				Notes:         t.Notes,
				Status:        types.TaskNotStarted,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
			res.Added++
		}
	}

	if len(deletes) > 0 {
		if err := s.items.BatchDelete(ctx, deletes); err != nil {
			return ProjectSyncResult{}, err
		}
	}
	if len(puts) > 0 {
		if err := s.items.BatchPut(ctx, puts); err != nil {
			return ProjectSyncResult{}, err
		}
	}
	return res, nil
}

func highestCompletedTaskID(items map[string]types.ProjectChecklistItem) string {
	highest := ""
	for taskID, it := range items {
		if it.Status != types.TaskCompleted {
			continue
		}
		if highest == "" || types.CompareTaskIDs(taskID, highest) > 0 {
			highest = taskID
		}
	}
	return highest
}

func checklistContentDiffers(it types.ProjectChecklistItem, t types.GlobalChecklistTask) bool {
	return it.Description != t.Description ||
		it.Required != t.Required ||
		it.ProjectedDate != t.ProjectedDate ||
		it.Notes != t.Notes
}
