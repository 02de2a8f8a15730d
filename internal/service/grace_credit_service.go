package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/coursehub-go-api/internal/dto"
	"github.com/noah-isme/coursehub-go-api/internal/models"
	"github.com/noah-isme/coursehub-go-api/internal/repository"
)

// GraceCreditService computes remaining grace credits and applies batch
// adjustments.
//
// Remaining balances are memoized per service instance. A deduction recorded
// after the first read for a student is not reflected until the cache entry
// is invalidated; callers needing freshness must call InvalidateCache. This
// mirrors the long-standing read-once behavior of the roster model and is a
// deliberate staleness trade-off.
type GraceCreditService interface {
	RemainingGraceCredits(ctx context.Context, studentID uint) (dto.GraceCreditsResponse, error)
	InvalidateCache(studentID uint)
	GiveGraceCredits(ctx context.Context, studentIDs []uint, delta int, actor ActivityActor) error
}

type graceCreditService struct {
	db          *gorm.DB
	students    repository.StudentRepository
	memberships repository.MembershipRepository
	activity    ActivityRecorder
	logger      zerolog.Logger

	mu        sync.Mutex
	remaining map[uint]int
}

// NewGraceCreditService constructs the grace credit ledger.
func NewGraceCreditService(db *gorm.DB, students repository.StudentRepository, memberships repository.MembershipRepository, activity ActivityRecorder, logger zerolog.Logger) GraceCreditService {
	return &graceCreditService{
		db:          db,
		students:    students,
		memberships: memberships,
		activity:    activity,
		logger:      logger.With().Str("component", "grace_credit_service").Logger(),
		remaining:   make(map[uint]int),
	}
}

// RemainingGraceCredits returns the student's base allotment minus the sum
// of deductions across all their memberships.
func (s *graceCreditService) RemainingGraceCredits(ctx context.Context, studentID uint) (dto.GraceCreditsResponse, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GraceCreditsResponse{}, ErrStudentNotFound
		}
		return dto.GraceCreditsResponse{}, err
	}

	s.mu.Lock()
	cached, ok := s.remaining[studentID]
	s.mu.Unlock()
	if ok {
		return dto.GraceCreditsResponse{StudentID: studentID, Total: student.GraceCredits, Remaining: cached}, nil
	}

	deductions, err := s.memberships.TotalDeductions(ctx, studentID)
	if err != nil {
		return dto.GraceCreditsResponse{}, err
	}

	remaining := student.GraceCredits - deductions

	s.mu.Lock()
	s.remaining[studentID] = remaining
	s.mu.Unlock()

	return dto.GraceCreditsResponse{StudentID: studentID, Total: student.GraceCredits, Remaining: remaining}, nil
}

// InvalidateCache drops the memoized balance for the student.
func (s *graceCreditService) InvalidateCache(studentID uint) {
	s.mu.Lock()
	delete(s.remaining, studentID)
	s.mu.Unlock()
}

// GiveGraceCredits adjusts each student's allotment by delta, clamping the
// stored value at zero. The whole batch commits in one transaction.
func (s *graceCreditService) GiveGraceCredits(ctx context.Context, studentIDs []uint, delta int, actor ActivityActor) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		students := s.students.WithTx(tx)

		batch, err := students.GetByIDs(ctx, studentIDs)
		if err != nil {
			return err
		}

		for _, student := range batch {
			credits := student.GraceCredits + delta
			if credits < 0 {
				credits = 0
			}
			if err := students.UpdateGraceCredits(ctx, student.ID, credits); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range studentIDs {
		s.InvalidateCache(id)
	}

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     models.ActivityGraceCreditsAdjusted,
			EntityType: "student",
			Metadata: map[string]interface{}{
				"student_ids": studentIDs,
				"delta":       delta,
			},
		})
	}

	return nil
}
