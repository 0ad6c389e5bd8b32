package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iliyamo/kaku-api/internal/model"
)

// TaskRepo persists tasks. Reads load the assignee and the event.
type TaskRepo struct{ DB *gorm.DB }

func NewTaskRepo(db *gorm.DB) *TaskRepo { return &TaskRepo{DB: db} }

func (r *TaskRepo) withRelations(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Preload("AssignedTo").Preload("Event")
}

// Create inserts t. The caller assigns the id and must have checked that the
// referenced user and event exist.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	t.Version = 1
	return translate(r.DB.WithContext(ctx).Omit(clause.Associations).Create(t).Error)
}

// GetByID fetches a task with its relations.
func (r *TaskRepo) GetByID(ctx context.Context, id string) (*model.Task, error) {
	var t model.Task
	if err := r.withRelations(ctx).Where("id = ?", id).Take(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// Find lists tasks matching f ordered by due date ascending. The due date
// window runs from f.Now to f.DueBefore inclusive.
func (r *TaskRepo) Find(ctx context.Context, f model.TaskFilter) ([]model.Task, error) {
	q := r.withRelations(ctx).Model(&model.Task{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.AssignedTo != "" {
		q = q.Where("assigned_to_id = ?", f.AssignedTo)
	}
	if f.EventID != "" {
		q = q.Where("event_id = ?", f.EventID)
	}
	if f.DueBefore != nil {
		q = q.Where("due_date BETWEEN ? AND ?", f.Now.UTC(), f.DueBefore.UTC())
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where("LOWER(title) LIKE ?", containsPattern(s))
	}
	tasks := []model.Task{}
	if err := q.Order("due_date ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Save writes the scalar fields of t under the version check. Relations on
// t are not written; callers reload to refresh them.
func (r *TaskRepo) Save(ctx context.Context, t *model.Task) error {
	return saveVersioned(r.DB.WithContext(ctx), t, &t.Version)
}

// Delete removes the task with id.
func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
