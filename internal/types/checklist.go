package types

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ChecklistType string

const (
	ChecklistDesign       ChecklistType = "design"
	ChecklistConstruction ChecklistType = "construction"
)

func (t ChecklistType) Valid() bool {
	return t == ChecklistDesign || t == ChecklistConstruction
}

type TaskStatus string

const (
	TaskNotStarted TaskStatus = "not_started"
	TaskCompleted  TaskStatus = "completed"
)

// GlobalChecklistTask is one row of the shared template checklist. Task
// identity is (checklist_type, task_id); task_id is a dotted numeric string
// like "3.2".
type GlobalChecklistTask struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ChecklistType ChecklistType `gorm:"column:checklist_type;not null;index:idx_global_task,unique,priority:1" json:"checklist_type"`
	TaskID        string        `gorm:"column:task_id;not null;index:idx_global_task,unique,priority:2" json:"task_id"`
	Description   string        `gorm:"column:description;not null" json:"description"`
	Required      bool          `gorm:"column:required;not null;default:false" json:"required"`
	ProjectedDate string        `gorm:"column:projected_date" json:"projected_date,omitempty"`
	Notes         string        `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt     time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null" json:"updated_at"`
}

func (GlobalChecklistTask) TableName() string { return "global_checklist_task" }

// ProjectChecklistItem is a project's own copy of a template task plus its
// completion state. Completed items are historical record: sync never
// updates or deletes them.
type ProjectChecklistItem struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectName   string        `gorm:"column:project_name;not null;index:idx_project_task,unique,priority:1" json:"project_name"`
	ChecklistType ChecklistType `gorm:"column:checklist_type;not null;index:idx_project_task,unique,priority:2" json:"checklist_type"`
	TaskID        string        `gorm:"column:task_id;not null;index:idx_project_task,unique,priority:3" json:"task_id"`
	Description   string        `gorm:"column:description;not null" json:"description"`
	Required      bool          `gorm:"column:required;not null;default:false" json:"required"`
	ProjectedDate string        `gorm:"column:projected_date" json:"projected_date,omitempty"`
	Notes         string        `gorm:"column:notes" json:"notes,omitempty"`
	Status        TaskStatus    `gorm:"column:status;not null;default:not_started" json:"status"`
	CompletedDate string        `gorm:"column:completed_date" json:"completed_date,omitempty"`
	ActualDate    string        `gorm:"column:actual_date" json:"actual_date,omitempty"`
	CreatedAt     time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null" json:"updated_at"`
}

func (ProjectChecklistItem) TableName() string { return "project_checklist_item" }

// taskIDSentinel sorts malformed task IDs after every well-formed one.
const taskIDSentinel = 1 << 30

// TaskIDParts parses a dotted numeric task ID ("7.1") into its integer
// components. A component that fails to parse yields the sentinel so the
// whole ID sorts last.
func TaskIDParts(taskID string) []int {
	raw := strings.Split(strings.TrimSpace(taskID), ".")
	parts := make([]int, 0, len(raw))
	for _, p := range raw {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return []int{taskIDSentinel}
		}
		parts = append(parts, n)
	}
	if len(parts) == 0 {
		return []int{taskIDSentinel}
	}
	return parts
}

// CompareTaskIDs orders dotted task IDs component-wise as integers:
// "3.1" < "3.2" < "10.1". Malformed IDs sort after all well-formed IDs.
func CompareTaskIDs(a, b string) int {
	pa, pb := TaskIDParts(a), TaskIDParts(b)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] != pb[i] {
			if pa[i] < pb[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(pa) < len(pb):
		return -1
	case len(pa) > len(pb):
		return 1
	default:
		return 0
	}
}
