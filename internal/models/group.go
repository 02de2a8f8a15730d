package models

import (
	"fmt"
	"time"
)

// Group is a named team of students owning one repository per course.
// Names follow one of two policies: user-named groups are reused across
// assignments for the same student, autogenerated groups are unique per
// grouping and derive their name from the persisted row id.
type Group struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_group_name_course" json:"course_id"`
	GroupName string    `gorm:"size:255;uniqueIndex:idx_group_name_course" json:"group_name"`
	RepoName  string    `gorm:"size:255" json:"repo_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Course Course `gorm:"foreignKey:CourseID" json:"-"`
}

// AutogeneratedName derives the group name from the persisted id. The row
// must be inserted first, so autogenerated groups take a two-phase save.
func (g Group) AutogeneratedName() string {
	return fmt.Sprintf("group_%04d", g.ID)
}

// Grouping joins one Group to one Assessment. A grouping may exist with zero
// memberships: a vacated slot left behind when an instructor removed the
// member, reusable on the next provisioning attempt.
type Grouping struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AssessmentID uint      `gorm:"not null;uniqueIndex:idx_grouping_assessment_group" json:"assessment_id"`
	GroupID      uint      `gorm:"not null;uniqueIndex:idx_grouping_assessment_group" json:"group_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Group       Group        `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	Assessment  Assessment   `gorm:"foreignKey:AssessmentID" json:"-"`
	Memberships []Membership `gorm:"foreignKey:GroupingID" json:"-"`
}
