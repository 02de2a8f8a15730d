package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/coursehub-go-api/internal/dto"
	"github.com/noah-isme/coursehub-go-api/internal/repository"
)

// VisibilityService resolves which assessments a student may currently see,
// honoring per-section overrides ahead of the global hidden flag.
type VisibilityService interface {
	VisibleAssessments(ctx context.Context, studentID uint, filter repository.VisibleAssessmentFilter) ([]dto.AssessmentResponse, error)
	ReleasedGradeEntryResult(ctx context.Context, studentID, assessmentID uint) (bool, error)
	InvalidateStudent(ctx context.Context, studentID uint)
}

type visibilityService struct {
	students    repository.StudentRepository
	assessments repository.AssessmentRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewVisibilityService constructs the visibility resolver. A nil cache
// disables caching.
func NewVisibilityService(students repository.StudentRepository, assessments repository.AssessmentRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) VisibilityService {
	return &visibilityService{
		students:    students,
		assessments: assessments,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "visibility_service").Logger(),
	}
}

func visibilityCacheKey(studentID uint, filter repository.VisibleAssessmentFilter) string {
	return fmt.Sprintf("assessments:student:%d:%s:%d", studentID, filter.Type, filter.AssessmentID)
}

func (s *visibilityService) VisibleAssessments(ctx context.Context, studentID uint, filter repository.VisibleAssessmentFilter) ([]dto.AssessmentResponse, error) {
	cacheKey := visibilityCacheKey(studentID, filter)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var responses []dto.AssessmentResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &responses); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", studentID).Msg("visibility cache hit")
				return responses, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read visibility cache")
		}
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	assessments, err := s.assessments.VisibleForStudent(ctx, student, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AssessmentResponse, 0, len(assessments))
	for _, assessment := range assessments {
		responses = append(responses, dto.NewAssessmentResponse(assessment))
	}

	if s.cache != nil {
		if payload, err := json.Marshal(responses); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store visibility cache")
			}
		}
	}

	return responses, nil
}

// ReleasedGradeEntryResult reports whether the student's row in a
// grade-entry form has been released to them.
func (s *visibilityService) ReleasedGradeEntryResult(ctx context.Context, studentID, assessmentID uint) (bool, error) {
	row, err := s.students.GradeEntryStudentFor(ctx, studentID, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return row.ReleasedToStudent, nil
}

// InvalidateStudent drops every cached visibility listing for the student.
// Called by admin mutations that can change what the student sees.
func (s *visibilityService) InvalidateStudent(ctx context.Context, studentID uint) {
	if s.cache == nil {
		return
	}

	pattern := fmt.Sprintf("assessments:student:%d:*", studentID)
	keys, err := s.cache.Keys(ctx, pattern).Result()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to scan visibility cache keys")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate visibility cache")
	}
}
