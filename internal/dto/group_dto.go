package dto

import (
	"time"

	"github.com/noah-isme/coursehub-go-api/internal/models"
)

// GroupResponse serializes a group.
type GroupResponse struct {
	ID        uint      `json:"id"`
	CourseID  uint      `json:"course_id"`
	GroupName string    `json:"group_name"`
	RepoName  string    `json:"repo_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupingResponse serializes a grouping with its group.
type GroupingResponse struct {
	ID           uint          `json:"id"`
	AssessmentID uint          `json:"assessment_id"`
	Group        GroupResponse `json:"group"`
	CreatedAt    time.Time     `json:"created_at"`
}

// NewGroupResponse converts a group model into its DTO.
func NewGroupResponse(group models.Group) GroupResponse {
	return GroupResponse{
		ID:        group.ID,
		CourseID:  group.CourseID,
		GroupName: group.GroupName,
		RepoName:  group.RepoName,
		CreatedAt: group.CreatedAt,
	}
}

// NewGroupingResponse converts a grouping model into its DTO.
func NewGroupingResponse(grouping models.Grouping) GroupingResponse {
	return GroupingResponse{
		ID:           grouping.ID,
		AssessmentID: grouping.AssessmentID,
		Group:        NewGroupResponse(grouping.Group),
		CreatedAt:    grouping.CreatedAt,
	}
}
