package activity

import (
	"time"

	"gorm.io/datatypes"
)

type Log struct {
	ID         string         `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt  time.Time      `gorm:"column:created_at;index" json:"created_at"`
	AccountID  string         `gorm:"column:account_id;index;not null" json:"account_id"`
	ActorID    string         `gorm:"column:actor_id" json:"actor_id"`
	Action     string         `gorm:"column:action;not null" json:"action"`
	EntityType string         `gorm:"column:entity_type" json:"entity_type"`
	EntityID   string         `gorm:"column:entity_id" json:"entity_id"`
	Metadata   datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
}

func (Log) TableName() string { return "activity_logs" }

// Entry is what callers hand to Recorder.
type Entry struct {
	AccountID  string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Metadata   map[string]any
}
