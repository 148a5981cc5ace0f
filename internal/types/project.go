package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Project registers one public-works project: its name keys the
// project-scoped lesson collection and checklists, its type keys the
// master collection it contributes lessons into.
type Project struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"column:name;not null;uniqueIndex" json:"name"`
	ProjectType string         `gorm:"column:project_type;not null;index" json:"project_type"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (Project) TableName() string { return "project" }
