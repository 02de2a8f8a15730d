package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursehub-go-api/internal/dto"
	"github.com/noah-isme/coursehub-go-api/internal/models"
	"github.com/noah-isme/coursehub-go-api/internal/repository"
)

type recordingSyncer struct {
	syncs int
}

func (s *recordingSyncer) UpdatePermissionsAfter(ctx context.Context, fn func() error) error {
	if err := fn(); err != nil {
		return err
	}
	s.syncs++
	return nil
}

type capturingRecorder struct {
	entries []ActivityEntry
}

func (r *capturingRecorder) Record(ctx context.Context, entry ActivityEntry) (dto.AdminActivityResponse, error) {
	r.entries = append(r.entries, entry)
	return dto.AdminActivityResponse{}, nil
}

func TestAdminStudentServiceHideUnhideBatchesPermissionSync(t *testing.T) {
	db := setupServiceDB(t)
	syncer := &recordingSyncer{}
	recorder := &capturingRecorder{}
	svc := NewAdminStudentService(repository.NewStudentRepository(db), syncer, nil, recorder, testLogger())
	ctx := context.Background()

	course := createCourse(t, db)
	first := createStudent(t, db, course.ID, "c5doe")
	second := createStudent(t, db, course.ID, "c5roe")

	require.NoError(t, svc.HideStudents(ctx, []uint{first.ID, second.ID}, ActivityActor{ID: 9, Role: "instructor"}))
	require.Equal(t, 1, syncer.syncs, "one resync per batch, not per student")

	var students []models.Student
	require.NoError(t, db.Find(&students).Error)
	for _, student := range students {
		require.True(t, student.Hidden)
	}

	require.NoError(t, svc.UnhideStudents(ctx, []uint{first.ID, second.ID}, ActivityActor{ID: 9, Role: "instructor"}))
	require.Equal(t, 2, syncer.syncs)

	require.NoError(t, db.Find(&students).Error)
	for _, student := range students {
		require.False(t, student.Hidden)
	}

	require.Len(t, recorder.entries, 2)
	require.Equal(t, models.ActivityStudentsHidden, recorder.entries[0].Action)
	require.Equal(t, models.ActivityStudentsUnhidden, recorder.entries[1].Action)
}

func TestAdminStudentServiceUpdateSection(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewAdminStudentService(repository.NewStudentRepository(db), &recordingSyncer{}, nil, nil, testLogger())
	ctx := context.Background()

	course := createCourse(t, db)
	section := models.Section{CourseID: course.ID, Name: "L0101"}
	require.NoError(t, db.Create(&section).Error)
	first := createStudent(t, db, course.ID, "c5doe")
	second := createStudent(t, db, course.ID, "c5roe")

	require.NoError(t, svc.UpdateSection(ctx, []uint{first.ID, second.ID}, &section.ID, ActivityActor{ID: 9, Role: "instructor"}))

	var students []models.Student
	require.NoError(t, db.Find(&students).Error)
	for _, student := range students {
		require.NotNil(t, student.SectionID)
		require.Equal(t, section.ID, *student.SectionID)
	}

	require.NoError(t, svc.UpdateSection(ctx, []uint{first.ID}, nil, ActivityActor{ID: 9, Role: "instructor"}))
	var reloaded models.Student
	require.NoError(t, db.First(&reloaded, first.ID).Error)
	require.Nil(t, reloaded.SectionID)
}
