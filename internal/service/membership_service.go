package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/coursehub-go-api/internal/dto"
	"github.com/noah-isme/coursehub-go-api/internal/models"
	"github.com/noah-isme/coursehub-go-api/internal/repository"
)

// ErrMembershipNotFound indicates a join was attempted on a grouping the
// student holds no pending or rejected membership for.
var ErrMembershipNotFound = errors.New("membership not found")

// ErrStudentNotFound indicates the referenced student does not exist.
var ErrStudentNotFound = errors.New("student not found")

// ErrGroupingNotFound indicates the referenced grouping does not exist.
var ErrGroupingNotFound = errors.New("grouping not found")

// MembershipService governs the lifecycle of a student's relationship to a
// grouping: pending invite, acceptance, rejection.
type MembershipService interface {
	Invite(ctx context.Context, studentID, groupingID uint) (dto.MembershipResponse, bool, error)
	Join(ctx context.Context, studentID, groupingID uint) (dto.MembershipResponse, error)
	DestroyAllPendingMemberships(ctx context.Context, studentID, assessmentID uint) error
}

type membershipService struct {
	db          *gorm.DB
	memberships repository.MembershipRepository
	groups      repository.GroupRepository
	students    repository.StudentRepository
	events      MembershipEventPublisher
	logger      zerolog.Logger
}

// NewMembershipService constructs the membership state machine.
func NewMembershipService(db *gorm.DB, memberships repository.MembershipRepository, groups repository.GroupRepository, students repository.StudentRepository, events MembershipEventPublisher, logger zerolog.Logger) MembershipService {
	return &membershipService{
		db:          db,
		memberships: memberships,
		groups:      groups,
		students:    students,
		events:      events,
		logger:      logger.With().Str("component", "membership_service").Logger(),
	}
}

// Invite creates a pending membership for the student on the grouping.
// Hidden students are silently skipped; the second return value reports
// whether a membership was created. Duplicate invitations are not guarded
// here, callers that care must filter first.
func (s *membershipService) Invite(ctx context.Context, studentID, groupingID uint) (dto.MembershipResponse, bool, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MembershipResponse{}, false, ErrStudentNotFound
		}
		return dto.MembershipResponse{}, false, err
	}

	if student.Hidden {
		return dto.MembershipResponse{}, false, nil
	}

	grouping, err := s.groups.GetGroupingByID(ctx, groupingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MembershipResponse{}, false, ErrGroupingNotFound
		}
		return dto.MembershipResponse{}, false, err
	}

	membership := models.Membership{
		StudentID:  student.ID,
		GroupingID: grouping.ID,
		Status:     models.MembershipStatusPending,
	}
	if err := s.memberships.Create(ctx, &membership); err != nil {
		return dto.MembershipResponse{}, false, err
	}

	if s.events != nil && student.ReceivesInviteEmails {
		_ = s.events.Publish(ctx, MembershipEvent{
			Event:        "invited",
			StudentID:    student.ID,
			GroupingID:   grouping.ID,
			AssessmentID: grouping.AssessmentID,
		})
	}

	return dto.NewMembershipResponse(membership), true, nil
}

// Join accepts the student's invitation on the grouping. The student's own
// membership must be pending or rejected, otherwise ErrMembershipNotFound.
// Every other pending invitation the student holds under the same assessment
// is rejected in the same transaction: at most one confirmed grouping per
// assessment.
func (s *membershipService) Join(ctx context.Context, studentID, groupingID uint) (dto.MembershipResponse, error) {
	grouping, err := s.groups.GetGroupingByID(ctx, groupingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MembershipResponse{}, ErrGroupingNotFound
		}
		return dto.MembershipResponse{}, err
	}

	var membership models.Membership
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		memberships := s.memberships.WithTx(tx)

		membership, err = memberships.FindJoinable(ctx, studentID, groupingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMembershipNotFound
			}
			return err
		}

		if err := memberships.UpdateStatus(ctx, membership.ID, models.MembershipStatusAccepted); err != nil {
			return err
		}
		membership.Status = models.MembershipStatusAccepted

		_, err = memberships.RejectOtherPending(ctx, studentID, grouping.AssessmentID, groupingID)
		return err
	})
	if err != nil {
		return dto.MembershipResponse{}, err
	}

	if s.events != nil {
		_ = s.events.Publish(ctx, MembershipEvent{
			Event:        "joined",
			StudentID:    studentID,
			GroupingID:   groupingID,
			AssessmentID: grouping.AssessmentID,
		})
	}

	return dto.NewMembershipResponse(membership), nil
}

// DestroyAllPendingMemberships hard-deletes the student's pending
// memberships under the assessment. Pending members never had repository
// access, so no permission resync follows.
func (s *membershipService) DestroyAllPendingMemberships(ctx context.Context, studentID, assessmentID uint) error {
	deleted, err := s.memberships.DeletePendingForAssessment(ctx, studentID, assessmentID)
	if err != nil {
		return err
	}

	if deleted > 0 {
		s.logger.Debug().
			Uint("student_id", studentID).
			Uint("assessment_id", assessmentID).
			Int64("deleted", deleted).
			Msg("cleared pending memberships")
	}

	return nil
}
