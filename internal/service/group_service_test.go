package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/coursehub-go-api/internal/models"
	"github.com/noah-isme/coursehub-go-api/internal/repository"
)

func newGroupService(t *testing.T) (GroupService, *gorm.DB) {
	t.Helper()
	db := setupServiceDB(t)
	svc := NewGroupService(
		db,
		repository.NewGroupRepository(db),
		repository.NewMembershipRepository(db),
		repository.NewStudentRepository(db),
		repository.NewAssessmentRepository(db),
		testLogger(),
	)
	return svc, db
}

func TestGroupServiceSoloProvisioningIsIdempotent(t *testing.T) {
	svc, db := newGroupService(t)
	ctx := context.Background()

	course := createCourse(t, db)
	student := createStudent(t, db, course.ID, "c5doe")
	first := createAssignment(t, db, course.ID, "a1", false)
	second := createAssignment(t, db, course.ID, "a2", false)

	groupingA, err := svc.CreateGroupForWorkingAloneStudent(ctx, student.ID, first.ID)
	require.NoError(t, err)
	require.Equal(t, "c5doe", groupingA.Group.GroupName)
	require.Equal(t, "c5doe", groupingA.Group.RepoName)

	// a second call for the same assignment reuses both group and grouping
	groupingB, err := svc.CreateGroupForWorkingAloneStudent(ctx, student.ID, first.ID)
	require.NoError(t, err)
	require.Equal(t, groupingA.ID, groupingB.ID)
	require.Equal(t, groupingA.Group.ID, groupingB.Group.ID)

	// a different assignment reuses the group but gets its own grouping
	groupingC, err := svc.CreateGroupForWorkingAloneStudent(ctx, student.ID, second.ID)
	require.NoError(t, err)
	require.Equal(t, groupingA.Group.ID, groupingC.Group.ID)
	require.NotEqual(t, groupingA.ID, groupingC.ID)

	var groupCount int64
	require.NoError(t, db.Model(&models.Group{}).Count(&groupCount).Error)
	require.Equal(t, int64(1), groupCount)

	var groupingCount int64
	require.NoError(t, db.Model(&models.Grouping{}).Count(&groupingCount).Error)
	require.Equal(t, int64(2), groupingCount)
}

func TestGroupServiceTimedAssignmentAlwaysCreatesFreshGroup(t *testing.T) {
	svc, db := newGroupService(t)
	ctx := context.Background()

	course := createCourse(t, db)
	student := createStudent(t, db, course.ID, "c5doe")
	timed := createAssignment(t, db, course.ID, "a1", true)

	first, err := svc.CreateGroupForWorkingAloneStudent(ctx, student.ID, timed.ID)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("group_%04d", first.Group.ID), first.Group.GroupName)

	second, err := svc.CreateGroupForWorkingAloneStudent(ctx, student.ID, timed.ID)
	require.NoError(t, err)
	require.NotEqual(t, first.Group.ID, second.Group.ID)

	var groupCount int64
	require.NoError(t, db.Model(&models.Group{}).Count(&groupCount).Error)
	require.Equal(t, int64(2), groupCount)
}

func TestGroupServiceSoloProvisioningCreatesInviterAndClearsPending(t *testing.T) {
	svc, db := newGroupService(t)
	ctx := context.Background()

	course := createCourse(t, db)
	student := createStudent(t, db, course.ID, "c5doe")
	assignment := createAssignment(t, db, course.ID, "a1", false)

	stale := createGrouping(t, db, course.ID, assignment.ID, "someone-else")
	require.NoError(t, db.Create(&models.Membership{StudentID: student.ID, GroupingID: stale.ID, Status: models.MembershipStatusPending}).Error)

	grouping, err := svc.CreateGroupForWorkingAloneStudent(ctx, student.ID, assignment.ID)
	require.NoError(t, err)

	var memberships []models.Membership
	require.NoError(t, db.Where("student_id = ?", student.ID).Find(&memberships).Error)
	require.Len(t, memberships, 1)
	require.Equal(t, models.MembershipStatusInviter, memberships[0].Status)
	require.Equal(t, grouping.ID, memberships[0].GroupingID)
}

func TestGroupServiceProvisioningFailureRollsBack(t *testing.T) {
	svc, db := newGroupService(t)
	ctx := context.Background()

	course := createCourse(t, db)
	// the sanitized user name is blank, so group validation fails inside
	// the provisioning transaction
	student := createStudent(t, db, course.ID, "<script>alert(1)</script>")
	assignment := createAssignment(t, db, course.ID, "a1", false)

	_, err := svc.CreateGroupForWorkingAloneStudent(ctx, student.ID, assignment.ID)
	require.ErrorIs(t, err, ErrGroupCreationFailed)

	var groupCount, groupingCount, membershipCount int64
	require.NoError(t, db.Model(&models.Group{}).Count(&groupCount).Error)
	require.NoError(t, db.Model(&models.Grouping{}).Count(&groupingCount).Error)
	require.NoError(t, db.Model(&models.Membership{}).Count(&membershipCount).Error)
	require.Zero(t, groupCount)
	require.Zero(t, groupingCount)
	require.Zero(t, membershipCount)
}

func TestGroupServiceTimedGroupPersistenceFailure(t *testing.T) {
	svc, db := newGroupService(t)
	ctx := context.Background()

	course := createCourse(t, db)
	student := createStudent(t, db, course.ID, "c5doe")
	assignment := createAssignment(t, db, course.ID, "a1", true)

	// group persistence failures surface as ErrGroupCreationFailed on the
	// timed branch too, not as the raw storage error
	require.NoError(t, db.Migrator().DropTable(&models.Group{}))

	_, err := svc.CreateGroupForWorkingAloneStudent(ctx, student.ID, assignment.ID)
	require.ErrorIs(t, err, ErrGroupCreationFailed)
}

func TestGroupServiceCreateAutogeneratedNameGroup(t *testing.T) {
	svc, db := newGroupService(t)
	ctx := context.Background()

	course := createCourse(t, db)
	student := createStudent(t, db, course.ID, "c5doe")
	assignment := createAssignment(t, db, course.ID, "a1", false)

	grouping, err := svc.CreateAutogeneratedNameGroup(ctx, student.ID, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, assignment.ID, grouping.AssessmentID)
	require.Equal(t, fmt.Sprintf("group_%04d", grouping.Group.ID), grouping.Group.GroupName)

	// never reuses the student's individual group
	second, err := svc.CreateAutogeneratedNameGroup(ctx, student.ID, assignment.ID)
	require.NoError(t, err)
	require.NotEqual(t, grouping.Group.ID, second.Group.ID)
}

func TestGroupServiceUnknownAssignment(t *testing.T) {
	svc, db := newGroupService(t)
	ctx := context.Background()

	course := createCourse(t, db)
	student := createStudent(t, db, course.ID, "c5doe")

	_, err := svc.CreateGroupForWorkingAloneStudent(ctx, student.ID, 9999)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}
