package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/coursehub-go-api/internal/models"
)

// StudentRepository provides access to student records and the grade-entry
// rows tied to them.
type StudentRepository interface {
	WithTx(tx *gorm.DB) StudentRepository
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Student, error)
	SetHidden(ctx context.Context, ids []uint, hidden bool) (int64, error)
	UpdateSection(ctx context.Context, id uint, sectionID *uint) error
	UpdateGraceCredits(ctx context.Context, id uint, credits int) error
	CreateGradeEntryStudent(ctx context.Context, row *models.GradeEntryStudent) error
	GradeEntryStudentFor(ctx context.Context, studentID, assessmentID uint) (models.GradeEntryStudent, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) WithTx(tx *gorm.DB) StudentRepository {
	return &studentRepository{db: tx}
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Preload("Section").First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) SetHidden(ctx context.Context, ids []uint, hidden bool) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("id IN ?", ids).
		Update("hidden", hidden)

	return result.RowsAffected, result.Error
}

func (r *studentRepository) UpdateSection(ctx context.Context, id uint, sectionID *uint) error {
	return r.db.WithContext(ctx).Model(&models.Student{}).
		Where("id = ?", id).
		Update("section_id", sectionID).Error
}

func (r *studentRepository) UpdateGraceCredits(ctx context.Context, id uint, credits int) error {
	return r.db.WithContext(ctx).Model(&models.Student{}).
		Where("id = ?", id).
		Update("grace_credits", credits).Error
}

func (r *studentRepository) CreateGradeEntryStudent(ctx context.Context, row *models.GradeEntryStudent) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *studentRepository) GradeEntryStudentFor(ctx context.Context, studentID, assessmentID uint) (models.GradeEntryStudent, error) {
	var row models.GradeEntryStudent
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND assessment_id = ?", studentID, assessmentID).
		First(&row).Error
	if err != nil {
		return models.GradeEntryStudent{}, err
	}

	return row, nil
}
