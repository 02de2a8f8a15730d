package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/coursehub-go-api/internal/models"
)

// VisibleAssessmentFilter narrows visibility queries to a type or a single
// assessment.
type VisibleAssessmentFilter struct {
	Type         models.AssessmentType
	AssessmentID uint
}

// AssessmentRepository provides read access to assessments and their
// per-section visibility overrides.
type AssessmentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Assessment, error)
	GetAssignment(ctx context.Context, id uint) (models.Assessment, error)
	ListGradeEntryForms(ctx context.Context, courseID uint) ([]models.Assessment, error)
	VisibleForStudent(ctx context.Context, student models.Student, filter VisibleAssessmentFilter) ([]models.Assessment, error)
}

type assessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository constructs an assessment repository.
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) GetByID(ctx context.Context, id uint) (models.Assessment, error) {
	var assessment models.Assessment
	if err := r.db.WithContext(ctx).First(&assessment, id).Error; err != nil {
		return models.Assessment{}, err
	}

	return assessment, nil
}

func (r *assessmentRepository) GetAssignment(ctx context.Context, id uint) (models.Assessment, error) {
	var assessment models.Assessment
	err := r.db.WithContext(ctx).
		Where("id = ? AND type = ?", id, models.AssessmentTypeAssignment).
		First(&assessment).Error
	if err != nil {
		return models.Assessment{}, err
	}

	return assessment, nil
}

func (r *assessmentRepository) ListGradeEntryForms(ctx context.Context, courseID uint) ([]models.Assessment, error) {
	var forms []models.Assessment
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND type = ?", courseID, models.AssessmentTypeGradeEntryForm).
		Find(&forms).Error
	if err != nil {
		return nil, err
	}

	return forms, nil
}

// VisibleForStudent returns the assessments the student may currently see.
// A per-section override takes strict precedence over the assessment's own
// is_hidden flag; without a section (or without an override value) the
// global flag decides.
func (r *assessmentRepository) VisibleForStudent(ctx context.Context, student models.Student, filter VisibleAssessmentFilter) ([]models.Assessment, error) {
	query := r.db.WithContext(ctx).Model(&models.Assessment{}).
		Where("assessments.course_id = ?", student.CourseID)

	if filter.Type != "" {
		query = query.Where("assessments.type = ?", filter.Type)
	}
	if filter.AssessmentID != 0 {
		query = query.Where("assessments.id = ?", filter.AssessmentID)
	}

	if student.SectionID != nil {
		query = query.
			Joins("LEFT JOIN assessment_section_properties asp ON asp.assessment_id = assessments.id AND asp.section_id = ?", *student.SectionID).
			Where("asp.is_hidden = ? OR (asp.is_hidden IS NULL AND assessments.is_hidden = ?)", false, false)
	} else {
		query = query.Where("assessments.is_hidden = ?", false)
	}

	var assessments []models.Assessment
	if err := query.Order("assessments.id").Find(&assessments).Error; err != nil {
		return nil, err
	}

	return assessments, nil
}
