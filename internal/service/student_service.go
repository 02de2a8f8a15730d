package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/coursehub-go-api/internal/dto"
	"github.com/noah-isme/coursehub-go-api/internal/models"
	"github.com/noah-isme/coursehub-go-api/internal/repository"
)

// StudentService manages student enrolment and the grouping queries hanging
// off a student's memberships.
type StudentService interface {
	Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	Get(ctx context.Context, id uint) (dto.StudentResponse, error)
	AcceptedGroupingFor(ctx context.Context, studentID, assessmentID uint) (dto.GroupingResponse, bool, error)
	PendingGroupingsFor(ctx context.Context, studentID, assessmentID uint) ([]dto.GroupingResponse, error)
}

type studentService struct {
	db          *gorm.DB
	students    repository.StudentRepository
	memberships repository.MembershipRepository
	assessments repository.AssessmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(db *gorm.DB, students repository.StudentRepository, memberships repository.MembershipRepository, assessments repository.AssessmentRepository, validate *validator.Validate, logger zerolog.Logger) StudentService {
	return &studentService{
		db:          db,
		students:    students,
		memberships: memberships,
		assessments: assessments,
		validator:   validate,
		logger:      logger.With().Str("component", "student_service").Logger(),
	}
}

// Create enrols a student and seeds one grade-entry row per existing
// grade-entry form in the course, all in one transaction.
func (s *studentService) Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	student := models.Student{
		CourseID:              payload.CourseID,
		SectionID:             payload.SectionID,
		UserName:              strings.TrimSpace(payload.UserName),
		FirstName:             strings.TrimSpace(payload.FirstName),
		LastName:              strings.TrimSpace(payload.LastName),
		Email:                 strings.TrimSpace(payload.Email),
		GraceCredits:          payload.GraceCredits,
		ReceivesInviteEmails:  true,
		ReceivesResultsEmails: true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		students := s.students.WithTx(tx)

		if err := students.Create(ctx, &student); err != nil {
			return err
		}

		forms, err := s.assessments.ListGradeEntryForms(ctx, student.CourseID)
		if err != nil {
			return err
		}

		for _, form := range forms {
			row := models.GradeEntryStudent{StudentID: student.ID, AssessmentID: form.ID}
			if err := students.CreateGradeEntryStudent(ctx, &row); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Get(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

// AcceptedGroupingFor returns the grouping the student is a confirmed member
// of for the assessment, if any.
func (s *studentService) AcceptedGroupingFor(ctx context.Context, studentID, assessmentID uint) (dto.GroupingResponse, bool, error) {
	grouping, err := s.memberships.AcceptedGroupingFor(ctx, studentID, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupingResponse{}, false, nil
		}
		return dto.GroupingResponse{}, false, err
	}

	return dto.NewGroupingResponse(grouping), true, nil
}

func (s *studentService) PendingGroupingsFor(ctx context.Context, studentID, assessmentID uint) ([]dto.GroupingResponse, error) {
	groupings, err := s.memberships.PendingGroupingsFor(ctx, studentID, assessmentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.GroupingResponse, 0, len(groupings))
	for _, grouping := range groupings {
		responses = append(responses, dto.NewGroupingResponse(grouping))
	}

	return responses, nil
}
