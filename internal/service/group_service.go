package service

import (
	"context"
	"errors"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/coursehub-go-api/internal/dto"
	"github.com/noah-isme/coursehub-go-api/internal/models"
	"github.com/noah-isme/coursehub-go-api/internal/repository"
)

// ErrAssignmentNotFound indicates the referenced assignment does not exist.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrGroupCreationFailed indicates the group row could not be persisted.
var ErrGroupCreationFailed = errors.New("failed to create group")

// ErrGroupingCreationFailed indicates the grouping row could not be persisted.
var ErrGroupingCreationFailed = errors.New("failed to create grouping")

// GroupService provisions groups and groupings for students working alone.
// All side effects of one provisioning call commit or roll back together.
type GroupService interface {
	CreateGroupForWorkingAloneStudent(ctx context.Context, studentID, assignmentID uint) (dto.GroupingResponse, error)
	CreateAutogeneratedNameGroup(ctx context.Context, studentID, assignmentID uint) (dto.GroupingResponse, error)
}

type groupService struct {
	db          *gorm.DB
	groups      repository.GroupRepository
	memberships repository.MembershipRepository
	students    repository.StudentRepository
	assessments repository.AssessmentRepository
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewGroupService constructs the group provisioner.
func NewGroupService(db *gorm.DB, groups repository.GroupRepository, memberships repository.MembershipRepository, students repository.StudentRepository, assessments repository.AssessmentRepository, logger zerolog.Logger) GroupService {
	return &groupService{
		db:          db,
		groups:      groups,
		memberships: memberships,
		students:    students,
		assessments: assessments,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "group_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/coursehub-go-api/internal/service/group"),
	}
}

// CreateGroupForWorkingAloneStudent provisions a solo group for the student
// on the assignment. Timed assignments always get a brand-new group so the
// repository is not reachable before the student starts the timer; otherwise
// an existing individual group is reused by name, keeping the student's
// repository stable across assignments.
func (s *groupService) CreateGroupForWorkingAloneStudent(ctx context.Context, studentID, assignmentID uint) (dto.GroupingResponse, error) {
	ctx, span := s.tracer.Start(ctx, "group.provision_solo", trace.WithAttributes(
		attribute.Int64("student.id", int64(studentID)),
		attribute.Int64("assignment.id", int64(assignmentID)),
	))
	defer span.End()

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupingResponse{}, ErrStudentNotFound
		}
		return dto.GroupingResponse{}, err
	}

	assignment, err := s.assessments.GetAssignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupingResponse{}, ErrAssignmentNotFound
		}
		return dto.GroupingResponse{}, err
	}

	var grouping models.Grouping
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groups := s.groups.WithTx(tx)
		memberships := s.memberships.WithTx(tx)

		var group models.Group
		var err error
		if assignment.IsTimed {
			group, err = groups.CreateWithAutoName(ctx, assignment.CourseID)
			if err != nil {
				s.logger.Error().
					Err(err).
					Str("user_name", student.UserName).
					Uint("course_id", assignment.CourseID).
					Msg("could not create a group for student")
				return ErrGroupCreationFailed
			}
		} else {
			group, err = s.soloGroup(ctx, groups, student, assignment)
			if err != nil {
				return err
			}
		}

		grouping, err = groups.AdoptOrCreateGrouping(ctx, assignment.ID, group.ID)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("user_name", student.UserName).
				Uint("assessment_id", assignment.ID).
				Uint("group_id", group.ID).
				Msg("could not create a grouping for student")
			return ErrGroupingCreationFailed
		}
		grouping.Group = group

		if err := memberships.Create(ctx, &models.Membership{
			StudentID:  student.ID,
			GroupingID: grouping.ID,
			Status:     models.MembershipStatusInviter,
		}); err != nil {
			return err
		}

		// clear stale invitations for this assignment
		_, err = memberships.DeletePendingForAssessment(ctx, student.ID, assignment.ID)
		return err
	})
	if err != nil {
		return dto.GroupingResponse{}, err
	}

	return dto.NewGroupingResponse(grouping), nil
}

// CreateAutogeneratedNameGroup always provisions a fresh autogenerated-name
// group and grouping for the student, regardless of the assignment's timed
// flag, and returns the created grouping.
func (s *groupService) CreateAutogeneratedNameGroup(ctx context.Context, studentID, assignmentID uint) (dto.GroupingResponse, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupingResponse{}, ErrStudentNotFound
		}
		return dto.GroupingResponse{}, err
	}

	assignment, err := s.assessments.GetAssignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupingResponse{}, ErrAssignmentNotFound
		}
		return dto.GroupingResponse{}, err
	}

	var grouping models.Grouping
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groups := s.groups.WithTx(tx)
		memberships := s.memberships.WithTx(tx)

		group, err := groups.CreateWithAutoName(ctx, assignment.CourseID)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("user_name", student.UserName).
				Uint("course_id", assignment.CourseID).
				Msg("could not create a group for student")
			return ErrGroupCreationFailed
		}

		grouping, err = groups.AdoptOrCreateGrouping(ctx, assignment.ID, group.ID)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("user_name", student.UserName).
				Uint("assessment_id", assignment.ID).
				Uint("group_id", group.ID).
				Msg("could not create a grouping for student")
			return ErrGroupingCreationFailed
		}
		grouping.Group = group

		if err := memberships.Create(ctx, &models.Membership{
			StudentID:  student.ID,
			GroupingID: grouping.ID,
			Status:     models.MembershipStatusInviter,
		}); err != nil {
			return err
		}

		_, err = memberships.DeletePendingForAssessment(ctx, student.ID, assignment.ID)
		return err
	})
	if err != nil {
		return dto.GroupingResponse{}, err
	}

	return dto.NewGroupingResponse(grouping), nil
}

// soloGroup reuses (or creates) the student's individual group, keyed by the
// student's user name within the course.
func (s *groupService) soloGroup(ctx context.Context, groups repository.GroupRepository, student models.Student, assignment models.Assessment) (models.Group, error) {
	name := strings.TrimSpace(s.sanitizer.Sanitize(student.UserName))
	candidate := models.Group{
		CourseID:  assignment.CourseID,
		GroupName: name,
		RepoName:  name,
	}

	if name == "" {
		s.logger.Error().
			Str("user_name", student.UserName).
			Interface("group", candidate).
			Str("validation", "group name must not be blank").
			Msg("could not create a group for student")
		return models.Group{}, ErrGroupCreationFailed
	}

	group, err := groups.AdoptOrCreateGroup(ctx, candidate)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_name", student.UserName).
			Interface("group", candidate).
			Msg("could not create a group for student")
		return models.Group{}, ErrGroupCreationFailed
	}

	return group, nil
}
