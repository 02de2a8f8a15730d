package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audited admin actions.
const (
	ActivityStudentsHidden       = "students.hidden"
	ActivityStudentsUnhidden     = "students.unhidden"
	ActivityStudentsResectioned  = "students.resectioned"
	ActivityGraceCreditsAdjusted = "students.grace_credits_adjusted"
)

// ActivityLog captures auditable bulk operations triggered by instructors
// and admins against the course roster.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null" json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}
