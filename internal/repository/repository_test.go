package repository

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/coursehub-go-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Course{},
		&models.Section{},
		&models.Student{},
		&models.Assessment{},
		&models.AssessmentSectionProperties{},
		&models.Group{},
		&models.Grouping{},
		&models.Membership{},
		&models.GracePeriodDeduction{},
		&models.GradeEntryStudent{},
		&models.ActivityLog{},
	))
	return db
}

func seedCourse(t *testing.T, db *gorm.DB) models.Course {
	t.Helper()
	course := models.Course{Name: "course-" + t.Name()}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func seedStudent(t *testing.T, db *gorm.DB, courseID uint, userName string) models.Student {
	t.Helper()
	student := models.Student{
		CourseID:              courseID,
		UserName:              userName,
		GraceCredits:          5,
		ReceivesInviteEmails:  true,
		ReceivesResultsEmails: true,
	}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func seedAssignment(t *testing.T, db *gorm.DB, courseID uint, identifier string) models.Assessment {
	t.Helper()
	assessment := models.Assessment{
		CourseID:        courseID,
		Type:            models.AssessmentTypeAssignment,
		ShortIdentifier: identifier,
	}
	require.NoError(t, db.Create(&assessment).Error)
	return assessment
}

func seedGrouping(t *testing.T, db *gorm.DB, courseID, assessmentID uint, groupName string) models.Grouping {
	t.Helper()
	group := models.Group{CourseID: courseID, GroupName: groupName}
	require.NoError(t, db.Create(&group).Error)
	grouping := models.Grouping{AssessmentID: assessmentID, GroupID: group.ID}
	require.NoError(t, db.Create(&grouping).Error)
	return grouping
}
