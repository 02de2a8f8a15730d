package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/coursehub-go-api/internal/config"
	"github.com/noah-isme/coursehub-go-api/internal/handler"
	"github.com/noah-isme/coursehub-go-api/internal/middleware"
	"github.com/noah-isme/coursehub-go-api/internal/models"
	"github.com/noah-isme/coursehub-go-api/internal/repository"
	"github.com/noah-isme/coursehub-go-api/internal/router"
	"github.com/noah-isme/coursehub-go-api/internal/service"
)

const testJWTSecret = "integration-secret"

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Course{},
		&models.Section{},
		&models.Assessment{},
		&models.AssessmentSectionProperties{},
		&models.Student{},
		&models.GradeEntryStudent{},
		&models.Group{},
		&models.Grouping{},
		&models.Membership{},
		&models.GracePeriodDeduction{},
		&models.ActivityLog{},
	))

	redisServer := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: redisServer.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	studentRepo := repository.NewStudentRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, validate, logger)
	publisher := service.NewNATSMembershipPublisher(nil, "", logger)
	syncer := service.NewNATSPermissionSyncer(nil, "", logger)

	visibilityService := service.NewVisibilityService(studentRepo, assessmentRepo, cache, time.Minute, logger)
	membershipService := service.NewMembershipService(db, membershipRepo, groupRepo, studentRepo, publisher, logger)
	groupService := service.NewGroupService(db, groupRepo, membershipRepo, studentRepo, assessmentRepo, logger)
	graceCreditService := service.NewGraceCreditService(db, studentRepo, membershipRepo, activityService, logger)
	adminStudentService := service.NewAdminStudentService(studentRepo, syncer, visibilityService, activityService, logger)
	studentService := service.NewStudentService(db, studentRepo, membershipRepo, assessmentRepo, validate, logger)

	cfg := config.Config{AppName: "CourseHub API", AppEnv: "test", JWTSecret: testJWTSecret}

	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{
		StudentHandler:      handler.NewStudentHandler(studentService, visibilityService, graceCreditService, logger),
		MembershipHandler:   handler.NewMembershipHandler(membershipService, logger),
		GroupHandler:        handler.NewGroupHandler(groupService, logger),
		AdminStudentHandler: handler.NewAdminStudentHandler(adminStudentService, graceCreditService, logger),
		ActivityHandler:     handler.NewAdminActivityHandler(activityService, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	return app, db
}

func signToken(t *testing.T, userID uint, role string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", userID),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, apiEnvelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var envelope apiEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func seedFixture(t *testing.T, db *gorm.DB) (models.Assessment, models.Student, models.Student) {
	t.Helper()

	course := models.Course{Name: "CSC108"}
	require.NoError(t, db.Create(&course).Error)

	assignment := models.Assessment{
		CourseID:        course.ID,
		Type:            models.AssessmentTypeAssignment,
		ShortIdentifier: "a1",
	}
	require.NoError(t, db.Create(&assignment).Error)

	inviter := models.Student{CourseID: course.ID, UserName: "inviter", GraceCredits: 5, ReceivesInviteEmails: true, ReceivesResultsEmails: true}
	require.NoError(t, db.Create(&inviter).Error)

	invitee := models.Student{CourseID: course.ID, UserName: "invitee", GraceCredits: 5, ReceivesInviteEmails: true, ReceivesResultsEmails: true}
	require.NoError(t, db.Create(&invitee).Error)

	return assignment, inviter, invitee
}

func TestSoloGroupThenInviteAndJoin(t *testing.T) {
	app, db := setupApp(t)
	assignment, inviter, invitee := seedFixture(t, db)

	inviterToken := signToken(t, inviter.ID, "student")
	inviteeToken := signToken(t, invitee.ID, "student")

	// inviter provisions a solo group
	resp, envelope := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/v1/assignments/%d/groups/solo", assignment.ID), inviterToken, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, envelope.Success)

	var grouping struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &grouping))
	require.NotZero(t, grouping.ID)

	// inviter adds the second student to the grouping
	resp, _ = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/v1/groupings/%d/invite", grouping.ID), inviterToken,
		map[string]interface{}{"student_id": invitee.ID})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// invitee accepts
	resp, _ = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/v1/groupings/%d/join", grouping.ID), inviteeToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// both students now resolve the same accepted grouping
	resp, envelope = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/v1/students/me/assignments/%d/grouping", assignment.ID), inviteeToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var accepted struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &accepted))
	require.Equal(t, grouping.ID, accepted.ID)
}

func TestJoinWithoutInvitationFails(t *testing.T) {
	app, db := setupApp(t)
	assignment, inviter, invitee := seedFixture(t, db)

	inviterToken := signToken(t, inviter.ID, "student")
	inviteeToken := signToken(t, invitee.ID, "student")

	resp, envelope := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/v1/assignments/%d/groups/solo", assignment.ID), inviterToken, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var grouping struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &grouping))

	resp, _ = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/v1/groupings/%d/join", grouping.ID), inviteeToken, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAdminHideBlocksInvitations(t *testing.T) {
	app, db := setupApp(t)
	assignment, inviter, invitee := seedFixture(t, db)

	adminToken := signToken(t, 999, "admin")
	inviterToken := signToken(t, inviter.ID, "student")

	resp, envelope := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/v1/assignments/%d/groups/solo", assignment.ID), inviterToken, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var grouping struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &grouping))

	resp, _ = doJSON(t, app, http.MethodPatch, "/api/v1/admin/students/hide", adminToken,
		map[string]interface{}{"student_ids": []uint{invitee.ID}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// hidden students are skipped without error
	resp, envelope = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/v1/groupings/%d/invite", grouping.ID), inviterToken,
		map[string]interface{}{"student_id": invitee.ID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "student not eligible for invitation", envelope.Message)

	var count int64
	require.NoError(t, db.Model(&models.Membership{}).Where("student_id = ?", invitee.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestAdminRoutesRejectStudents(t *testing.T) {
	app, db := setupApp(t)
	_, _, invitee := seedFixture(t, db)

	studentToken := signToken(t, invitee.ID, "student")

	resp, _ := doJSON(t, app, http.MethodPatch, "/api/v1/admin/students/hide", studentToken,
		map[string]interface{}{"student_ids": []uint{invitee.ID}})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestGraceCreditsEndpoint(t *testing.T) {
	app, db := setupApp(t)
	_, inviter, _ := seedFixture(t, db)

	adminToken := signToken(t, 999, "admin")
	inviterToken := signToken(t, inviter.ID, "student")

	resp, envelope := doJSON(t, app, http.MethodGet, "/api/v1/students/me/grace-credits", inviterToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var credits struct {
		Total     int `json:"total"`
		Remaining int `json:"remaining"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &credits))
	require.Equal(t, 5, credits.Total)
	require.Equal(t, 5, credits.Remaining)

	resp, _ = doJSON(t, app, http.MethodPatch, "/api/v1/admin/students/grace-credits", adminToken,
		map[string]interface{}{"student_ids": []uint{inviter.ID}, "delta": -2})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, envelope = doJSON(t, app, http.MethodGet, "/api/v1/students/me/grace-credits", inviterToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(envelope.Data, &credits))
	require.Equal(t, 3, credits.Total)
}