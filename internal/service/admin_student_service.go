package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/coursehub-go-api/internal/models"
	"github.com/noah-isme/coursehub-go-api/internal/repository"
)

// AdminStudentService carries the bulk roster operations instructors run
// against many students at once.
type AdminStudentService interface {
	HideStudents(ctx context.Context, studentIDs []uint, actor ActivityActor) error
	UnhideStudents(ctx context.Context, studentIDs []uint, actor ActivityActor) error
	UpdateSection(ctx context.Context, studentIDs []uint, sectionID *uint, actor ActivityActor) error
}

type adminStudentService struct {
	students   repository.StudentRepository
	syncer     PermissionSyncer
	visibility VisibilityService
	activity   ActivityRecorder
	logger     zerolog.Logger
}

// NewAdminStudentService constructs the bulk roster operations service.
func NewAdminStudentService(students repository.StudentRepository, syncer PermissionSyncer, visibility VisibilityService, activity ActivityRecorder, logger zerolog.Logger) AdminStudentService {
	return &adminStudentService{
		students:   students,
		syncer:     syncer,
		visibility: visibility,
		activity:   activity,
		logger:     logger.With().Str("component", "admin_student_service").Logger(),
	}
}

// HideStudents flags the students hidden and revokes repository permissions.
// The permission resync runs once after the whole batch commits.
func (s *adminStudentService) HideStudents(ctx context.Context, studentIDs []uint, actor ActivityActor) error {
	return s.setHidden(ctx, studentIDs, true, models.ActivityStudentsHidden, actor)
}

// UnhideStudents makes the students visible again and grants repository
// permissions, resyncing once after the batch.
func (s *adminStudentService) UnhideStudents(ctx context.Context, studentIDs []uint, actor ActivityActor) error {
	return s.setHidden(ctx, studentIDs, false, models.ActivityStudentsUnhidden, actor)
}

func (s *adminStudentService) setHidden(ctx context.Context, studentIDs []uint, hidden bool, action string, actor ActivityActor) error {
	err := s.syncer.UpdatePermissionsAfter(ctx, func() error {
		_, err := s.students.SetHidden(ctx, studentIDs, hidden)
		return err
	})
	if err != nil {
		return err
	}

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     action,
			EntityType: "student",
			Metadata: map[string]interface{}{
				"student_ids": studentIDs,
			},
		})
	}

	return nil
}

// UpdateSection reassigns each student to the section, one update per id.
// The list is not atomic as a whole; a failure mid-way leaves earlier
// updates in place.
func (s *adminStudentService) UpdateSection(ctx context.Context, studentIDs []uint, sectionID *uint, actor ActivityActor) error {
	for _, id := range studentIDs {
		if err := s.students.UpdateSection(ctx, id, sectionID); err != nil {
			return err
		}
		if s.visibility != nil {
			s.visibility.InvalidateStudent(ctx, id)
		}
	}

	if s.activity != nil {
		metadata := map[string]interface{}{
			"student_ids": studentIDs,
		}
		if sectionID != nil {
			metadata["section_id"] = *sectionID
		}
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     models.ActivityStudentsResectioned,
			EntityType: "student",
			Metadata:   metadata,
		})
	}

	return nil
}
