package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/coursehub-go-api/internal/models"
)

// GroupRepository persists groups and groupings. The adopt-on-conflict
// helpers rely on the unique indexes on (group_name, course_id) and
// (assessment_id, group_id): the insert skips conflicting rows instead of
// erroring, so a lost race inside the caller's transaction does not abort
// it, and the existing row is adopted by re-reading.
type GroupRepository interface {
	WithTx(tx *gorm.DB) GroupRepository
	GetGroupingByID(ctx context.Context, id uint) (models.Grouping, error)
	CreateWithAutoName(ctx context.Context, courseID uint) (models.Group, error)
	AdoptOrCreateGroup(ctx context.Context, group models.Group) (models.Group, error)
	AdoptOrCreateGrouping(ctx context.Context, assessmentID, groupID uint) (models.Grouping, error)
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository constructs a group repository.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) WithTx(tx *gorm.DB) GroupRepository {
	return &groupRepository{db: tx}
}

func (r *groupRepository) GetGroupingByID(ctx context.Context, id uint) (models.Grouping, error) {
	var grouping models.Grouping
	if err := r.db.WithContext(ctx).Preload("Group").First(&grouping, id).Error; err != nil {
		return models.Grouping{}, err
	}

	return grouping, nil
}

// CreateWithAutoName inserts a fresh group and renames it to the id-derived
// autogenerated name. The name depends on the assigned id, so the save is
// two-phase; a random placeholder keeps the unique index satisfied between
// the two steps.
func (r *groupRepository) CreateWithAutoName(ctx context.Context, courseID uint) (models.Group, error) {
	group := models.Group{
		CourseID:  courseID,
		GroupName: fmt.Sprintf("pending_%s", uuid.NewString()),
	}
	if err := r.db.WithContext(ctx).Create(&group).Error; err != nil {
		return models.Group{}, err
	}

	group.GroupName = group.AutogeneratedName()
	if err := r.db.WithContext(ctx).Model(&models.Group{}).
		Where("id = ?", group.ID).
		Update("group_name", group.GroupName).Error; err != nil {
		return models.Group{}, err
	}

	return group, nil
}

func (r *groupRepository) AdoptOrCreateGroup(ctx context.Context, group models.Group) (models.Group, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&group)
	if res.Error != nil {
		return models.Group{}, res.Error
	}
	if res.RowsAffected > 0 {
		return group, nil
	}

	// the insert was skipped: another writer owns the row, adopt it
	var existing models.Group
	err := r.db.WithContext(ctx).
		Where("group_name = ? AND course_id = ?", group.GroupName, group.CourseID).
		First(&existing).Error
	if err != nil {
		return models.Group{}, err
	}

	return existing, nil
}

// AdoptOrCreateGrouping reuses an existing grouping for the same assessment
// and group when one exists. An empty grouping can be left behind when an
// instructor removes the student's membership; adopting it keeps the slot.
func (r *groupRepository) AdoptOrCreateGrouping(ctx context.Context, assessmentID, groupID uint) (models.Grouping, error) {
	grouping := models.Grouping{AssessmentID: assessmentID, GroupID: groupID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&grouping)
	if res.Error != nil {
		return models.Grouping{}, res.Error
	}
	if res.RowsAffected > 0 {
		return grouping, nil
	}

	var existing models.Grouping
	err := r.db.WithContext(ctx).
		Where("assessment_id = ? AND group_id = ?", assessmentID, groupID).
		First(&existing).Error
	if err != nil {
		return models.Grouping{}, err
	}

	return existing, nil
}
