package models

import "time"

// AssessmentType distinguishes gradable work handed out to students.
type AssessmentType string

// Supported assessment types.
const (
	AssessmentTypeAssignment     AssessmentType = "assignment"
	AssessmentTypeGradeEntryForm AssessmentType = "grade_entry_form"
)

// Assessment is a gradable unit within a course: an assignment students
// submit work for, or a grade-entry form instructors fill in directly.
type Assessment struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CourseID        uint           `gorm:"not null;index" json:"course_id"`
	Type            AssessmentType `gorm:"size:32;not null;index" json:"type"`
	ShortIdentifier string         `gorm:"size:255;not null" json:"short_identifier"`
	Description     string         `gorm:"type:text" json:"description"`
	IsHidden        bool           `gorm:"not null;default:false" json:"is_hidden"`
	IsTimed         bool           `gorm:"not null;default:false" json:"is_timed"`
	DueDate         *time.Time     `json:"due_date"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	Course            Course                        `gorm:"foreignKey:CourseID" json:"-"`
	SectionProperties []AssessmentSectionProperties `gorm:"foreignKey:AssessmentID" json:"-"`
}

// AssessmentSectionProperties overrides assessment settings for one section.
// A nil IsHidden means the section has no override and the assessment's own
// flag applies.
type AssessmentSectionProperties struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AssessmentID uint      `gorm:"not null;uniqueIndex:idx_assessment_section" json:"assessment_id"`
	SectionID    uint      `gorm:"not null;uniqueIndex:idx_assessment_section" json:"section_id"`
	IsHidden     *bool     `json:"is_hidden"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
