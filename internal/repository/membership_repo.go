package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/coursehub-go-api/internal/models"
)

// MembershipRepository persists student↔grouping memberships and the grace
// period deductions hanging off them.
type MembershipRepository interface {
	WithTx(tx *gorm.DB) MembershipRepository
	Create(ctx context.Context, membership *models.Membership) error
	FindJoinable(ctx context.Context, studentID, groupingID uint) (models.Membership, error)
	UpdateStatus(ctx context.Context, id uint, status models.MembershipStatus) error
	RejectOtherPending(ctx context.Context, studentID, assessmentID, keepGroupingID uint) (int64, error)
	DeletePendingForAssessment(ctx context.Context, studentID, assessmentID uint) (int64, error)
	AcceptedGroupingFor(ctx context.Context, studentID, assessmentID uint) (models.Grouping, error)
	PendingGroupingsFor(ctx context.Context, studentID, assessmentID uint) ([]models.Grouping, error)
	ListForStudent(ctx context.Context, studentID uint, statuses ...models.MembershipStatus) ([]models.Membership, error)
	TotalDeductions(ctx context.Context, studentID uint) (int, error)
}

type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository constructs a membership repository.
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) WithTx(tx *gorm.DB) MembershipRepository {
	return &membershipRepository{db: tx}
}

func (r *membershipRepository) Create(ctx context.Context, membership *models.Membership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}

// FindJoinable returns the student's own membership on the grouping in a
// joinable state (pending or rejected).
func (r *membershipRepository) FindJoinable(ctx context.Context, studentID, groupingID uint) (models.Membership, error) {
	var membership models.Membership
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND grouping_id = ?", studentID, groupingID).
		Where("status IN ?", []models.MembershipStatus{models.MembershipStatusPending, models.MembershipStatusRejected}).
		First(&membership).Error
	if err != nil {
		return models.Membership{}, err
	}

	return membership, nil
}

func (r *membershipRepository) UpdateStatus(ctx context.Context, id uint, status models.MembershipStatus) error {
	return r.db.WithContext(ctx).Model(&models.Membership{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// RejectOtherPending flips every pending membership the student holds under
// the assessment to rejected, except the one on keepGroupingID.
func (r *membershipRepository) RejectOtherPending(ctx context.Context, studentID, assessmentID, keepGroupingID uint) (int64, error) {
	groupingIDs := r.db.WithContext(ctx).Model(&models.Grouping{}).
		Select("id").
		Where("assessment_id = ?", assessmentID)

	result := r.db.WithContext(ctx).Model(&models.Membership{}).
		Where("student_id = ? AND status = ?", studentID, models.MembershipStatusPending).
		Where("grouping_id IN (?)", groupingIDs).
		Where("grouping_id <> ?", keepGroupingID).
		Update("status", models.MembershipStatusRejected)

	return result.RowsAffected, result.Error
}

// DeletePendingForAssessment hard-deletes the student's pending memberships
// under the assessment. Pending members never had repository access, so no
// permission resync is required afterwards.
func (r *membershipRepository) DeletePendingForAssessment(ctx context.Context, studentID, assessmentID uint) (int64, error) {
	groupingIDs := r.db.WithContext(ctx).Model(&models.Grouping{}).
		Select("id").
		Where("assessment_id = ?", assessmentID)

	result := r.db.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, models.MembershipStatusPending).
		Where("grouping_id IN (?)", groupingIDs).
		Delete(&models.Membership{})

	return result.RowsAffected, result.Error
}

func (r *membershipRepository) AcceptedGroupingFor(ctx context.Context, studentID, assessmentID uint) (models.Grouping, error) {
	var grouping models.Grouping
	err := r.db.WithContext(ctx).Model(&models.Grouping{}).
		Joins("JOIN memberships ON memberships.grouping_id = groupings.id").
		Where("memberships.student_id = ?", studentID).
		Where("memberships.status IN ?", []models.MembershipStatus{models.MembershipStatusAccepted, models.MembershipStatusInviter}).
		Where("groupings.assessment_id = ?", assessmentID).
		First(&grouping).Error
	if err != nil {
		return models.Grouping{}, err
	}

	return grouping, nil
}

func (r *membershipRepository) PendingGroupingsFor(ctx context.Context, studentID, assessmentID uint) ([]models.Grouping, error) {
	var groupings []models.Grouping
	err := r.db.WithContext(ctx).Model(&models.Grouping{}).
		Joins("JOIN memberships ON memberships.grouping_id = groupings.id").
		Where("memberships.student_id = ?", studentID).
		Where("memberships.status = ?", models.MembershipStatusPending).
		Where("groupings.assessment_id = ?", assessmentID).
		Find(&groupings).Error
	if err != nil {
		return nil, err
	}

	return groupings, nil
}

func (r *membershipRepository) ListForStudent(ctx context.Context, studentID uint, statuses ...models.MembershipStatus) ([]models.Membership, error) {
	query := r.db.WithContext(ctx).Where("student_id = ?", studentID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var memberships []models.Membership
	if err := query.Find(&memberships).Error; err != nil {
		return nil, err
	}

	return memberships, nil
}

// TotalDeductions sums the grace period deductions reachable through any of
// the student's memberships.
func (r *membershipRepository) TotalDeductions(ctx context.Context, studentID uint) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.GracePeriodDeduction{}).
		Joins("JOIN memberships ON memberships.id = grace_period_deductions.membership_id").
		Where("memberships.student_id = ?", studentID).
		Select("COALESCE(SUM(grace_period_deductions.deduction), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}

	return int(total), nil
}
