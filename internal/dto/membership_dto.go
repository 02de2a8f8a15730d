package dto

import (
	"time"

	"github.com/noah-isme/coursehub-go-api/internal/models"
)

// InviteRequest names the student to invite into a grouping.
type InviteRequest struct {
	StudentID uint `json:"student_id" validate:"required"`
}

// MembershipResponse serializes a student's membership in a grouping.
type MembershipResponse struct {
	ID         uint      `json:"id"`
	StudentID  uint      `json:"student_id"`
	GroupingID uint      `json:"grouping_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewMembershipResponse converts a membership model into its DTO.
func NewMembershipResponse(membership models.Membership) MembershipResponse {
	return MembershipResponse{
		ID:         membership.ID,
		StudentID:  membership.StudentID,
		GroupingID: membership.GroupingID,
		Status:     string(membership.Status),
		CreatedAt:  membership.CreatedAt,
		UpdatedAt:  membership.UpdatedAt,
	}
}
