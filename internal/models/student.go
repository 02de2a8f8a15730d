package models

import (
	"fmt"
	"time"
)

// Student is a course participant that can join work groups and spend grace
// credits on deadline extensions.
type Student struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	CourseID              uint      `gorm:"not null;uniqueIndex:idx_student_user_course" json:"course_id"`
	SectionID             *uint     `gorm:"index" json:"section_id"`
	UserName              string    `gorm:"size:255;not null;uniqueIndex:idx_student_user_course" json:"user_name"`
	FirstName             string    `gorm:"size:255" json:"first_name"`
	LastName              string    `gorm:"size:255" json:"last_name"`
	Email                 string    `gorm:"size:255" json:"email"`
	Hidden                bool      `gorm:"not null;default:false" json:"hidden"`
	GraceCredits          int       `gorm:"not null;default:0" json:"grace_credits" validate:"gte=0"`
	ReceivesInviteEmails  bool      `gorm:"not null;default:true" json:"receives_invite_emails"`
	ReceivesResultsEmails bool      `gorm:"not null;default:true" json:"receives_results_emails"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`

	Course      Course       `gorm:"foreignKey:CourseID" json:"-"`
	Section     *Section     `gorm:"foreignKey:SectionID" json:"section,omitempty"`
	Memberships []Membership `gorm:"foreignKey:StudentID" json:"-"`
}

// HasSection reports whether the student is assigned to a section.
func (s Student) HasSection() bool {
	return s.SectionID != nil
}

// SectionName returns the name of the student's section, or "" without one.
func (s Student) SectionName() string {
	if s.Section == nil {
		return ""
	}
	return s.Section.Name
}

// DisplayForNote renders the student reference used in instructor notes.
func (s Student) DisplayForNote() string {
	return fmt.Sprintf("%s: %s %s", s.UserName, s.FirstName, s.LastName)
}

// GradeEntryStudent tracks one student's row in a grade-entry form, created
// for every existing form when the student joins the course.
type GradeEntryStudent struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	StudentID         uint      `gorm:"not null;uniqueIndex:idx_grade_entry_student" json:"student_id"`
	AssessmentID      uint      `gorm:"not null;uniqueIndex:idx_grade_entry_student" json:"assessment_id"`
	ReleasedToStudent bool      `gorm:"not null;default:false" json:"released_to_student"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
