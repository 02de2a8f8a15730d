package dto

import (
	"time"

	"github.com/noah-isme/coursehub-go-api/internal/models"
)

// StudentCreateRequest captures the fields needed to enrol a student.
type StudentCreateRequest struct {
	CourseID     uint   `json:"course_id" validate:"required"`
	UserName     string `json:"user_name" validate:"required,min=1"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email" validate:"omitempty,email"`
	SectionID    *uint  `json:"section_id"`
	GraceCredits int    `json:"grace_credits" validate:"gte=0"`
}

// StudentResponse serializes a student record.
type StudentResponse struct {
	ID                    uint      `json:"id"`
	CourseID              uint      `json:"course_id"`
	SectionID             *uint     `json:"section_id"`
	SectionName           string    `json:"section_name,omitempty"`
	UserName              string    `json:"user_name"`
	FirstName             string    `json:"first_name"`
	LastName              string    `json:"last_name"`
	Email                 string    `json:"email"`
	Hidden                bool      `json:"hidden"`
	GraceCredits          int       `json:"grace_credits"`
	ReceivesInviteEmails  bool      `json:"receives_invite_emails"`
	ReceivesResultsEmails bool      `json:"receives_results_emails"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// GraceCreditsResponse reports a student's grace credit balance.
type GraceCreditsResponse struct {
	StudentID uint `json:"student_id"`
	Total     int  `json:"total"`
	Remaining int  `json:"remaining"`
}

// AdminStudentBatchRequest names the students targeted by a bulk operation.
type AdminStudentBatchRequest struct {
	StudentIDs []uint `json:"student_ids" validate:"required,min=1,dive,required"`
}

// AdminSectionUpdateRequest reassigns a list of students to a section. A nil
// section id clears the assignment.
type AdminSectionUpdateRequest struct {
	StudentIDs []uint `json:"student_ids" validate:"required,min=1,dive,required"`
	SectionID  *uint  `json:"section_id"`
}

// AdminGraceCreditsRequest batch-adjusts grace credits by a signed delta.
type AdminGraceCreditsRequest struct {
	StudentIDs []uint `json:"student_ids" validate:"required,min=1,dive,required"`
	Delta      int    `json:"delta"`
}

// AssessmentResponse serializes an assessment for student-facing listings.
type AssessmentResponse struct {
	ID              uint       `json:"id"`
	CourseID        uint       `json:"course_id"`
	Type            string     `json:"type"`
	ShortIdentifier string     `json:"short_identifier"`
	Description     string     `json:"description,omitempty"`
	IsTimed         bool       `json:"is_timed"`
	DueDate         *time.Time `json:"due_date,omitempty"`
}

// NewStudentResponse converts a student model into its DTO.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:                    student.ID,
		CourseID:              student.CourseID,
		SectionID:             student.SectionID,
		SectionName:           student.SectionName(),
		UserName:              student.UserName,
		FirstName:             student.FirstName,
		LastName:              student.LastName,
		Email:                 student.Email,
		Hidden:                student.Hidden,
		GraceCredits:          student.GraceCredits,
		ReceivesInviteEmails:  student.ReceivesInviteEmails,
		ReceivesResultsEmails: student.ReceivesResultsEmails,
		CreatedAt:             student.CreatedAt,
		UpdatedAt:             student.UpdatedAt,
	}
}

// NewAssessmentResponse converts an assessment model into its DTO. The hidden
// flags are deliberately absent: anything serialized here is already visible
// to the requesting student.
func NewAssessmentResponse(assessment models.Assessment) AssessmentResponse {
	return AssessmentResponse{
		ID:              assessment.ID,
		CourseID:        assessment.CourseID,
		Type:            string(assessment.Type),
		ShortIdentifier: assessment.ShortIdentifier,
		Description:     assessment.Description,
		IsTimed:         assessment.IsTimed,
		DueDate:         assessment.DueDate,
	}
}
