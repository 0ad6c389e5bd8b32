package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iliyamo/kaku-api/internal/database"
	"github.com/iliyamo/kaku-api/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, repo *UserRepo, email string) *model.User {
	t.Helper()
	u := &model.User{ID: uuid.NewString(), Email: email, Role: model.RoleUser, IsActive: true}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func at(day, hour int) time.Time {
	return time.Date(2024, 6, day, hour, 0, 0, 0, time.UTC)
}

func TestUserRepo_CreateNormalizesAndRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(newTestDB(t))

	u := seedUser(t, repo, "  Alice@Example.COM ")
	if u.Email != "alice@example.com" || u.Version != 1 {
		t.Fatalf("unexpected stored user: %+v", u)
	}

	got, err := repo.GetByEmail(ctx, "ALICE@example.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("expected lookup by normalized email, got %+v err=%v", got, err)
	}

	dup := &model.User{ID: uuid.NewString(), Email: "alice@example.com", Role: model.RoleUser}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepo_SaveDetectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(newTestDB(t))
	u := seedUser(t, repo, "bob@example.com")

	first, _ := repo.GetByID(ctx, u.ID)
	second, _ := repo.GetByID(ctx, u.ID)

	first.Role = model.RoleAdmin
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if first.Version != 2 {
		t.Fatalf("expected version 2, got %d", first.Version)
	}

	second.IsActive = false
	if err := repo.Save(ctx, second); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on stale save, got %v", err)
	}
	if second.Version != 1 {
		t.Fatalf("expected version restored to 1, got %d", second.Version)
	}

	stored, _ := repo.GetByID(ctx, u.ID)
	if stored.Role != model.RoleAdmin || !stored.IsActive {
		t.Fatalf("stale write leaked: %+v", stored)
	}
}

func TestUserRepo_ListNotifiable(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(newTestDB(t))

	on := seedUser(t, repo, "on@example.com")
	on.NotificationsEnabled = true
	if err := repo.Save(ctx, on); err != nil {
		t.Fatalf("save: %v", err)
	}
	seedUser(t, repo, "off@example.com")

	users, err := repo.ListNotifiable(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 || users[0].ID != on.ID {
		t.Fatalf("expected only opted-in user, got %+v", users)
	}

	all, _ := repo.List(ctx)
	if len(all) != 2 || all[0].Email != "off@example.com" {
		t.Fatalf("expected users ordered by email, got %+v", all)
	}
}

func TestEventRepo_FindComposesFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepo(newTestDB(t))

	mk := func(title string, start time.Time, status model.EventStatus) {
		e := &model.Event{ID: uuid.NewString(), Title: title, StartDate: start, EndDate: start.Add(time.Hour), Status: status}
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	mk("Product Launch", at(12, 9), model.EventUpcoming)
	mk("Launch Retro", at(10, 9), model.EventUpcoming)
	mk("Launch Party", at(11, 9), model.EventCancelled)
	mk("Standup", at(11, 10), model.EventUpcoming)

	events, err := repo.Find(ctx, model.EventFilter{Search: "LAUNCH"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(events) != 3 || events[0].Title != "Launch Retro" || events[2].Title != "Product Launch" {
		t.Fatalf("expected 3 launch events by start date, got %+v", events)
	}

	from, to := at(10, 0), at(11, 23)
	events, _ = repo.Find(ctx, model.EventFilter{Status: model.EventUpcoming, StartFrom: &from, StartTo: &to, Search: "launch"})
	if len(events) != 1 || events[0].Title != "Launch Retro" {
		t.Fatalf("expected conjunctive match, got %+v", events)
	}

	// a single bound is ignored
	events, _ = repo.Find(ctx, model.EventFilter{StartFrom: &to})
	if len(events) != 4 {
		t.Fatalf("expected one-sided range ignored, got %d events", len(events))
	}
}

func TestEventRepo_Participants(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepo(db)
	repo := NewEventRepo(db)

	u := seedUser(t, users, "p@example.com")
	e := &model.Event{ID: uuid.NewString(), Title: "Launch", StartDate: at(10, 10), EndDate: at(10, 12), Status: model.EventUpcoming}
	if err := repo.Create(ctx, e); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.AddParticipant(ctx, e, u.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if e.Version != 2 {
		t.Fatalf("expected version bump, got %d", e.Version)
	}
	if err := repo.AddParticipant(ctx, e, u.ID); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	loaded, err := repo.GetByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !loaded.HasParticipant(u.ID) || len(loaded.Participants) != 1 {
		t.Fatalf("expected participant loaded, got %+v", loaded.Participants)
	}

	if err := repo.RemoveParticipant(ctx, loaded, u.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := repo.RemoveParticipant(ctx, loaded, u.ID); err != nil {
		t.Fatalf("second remove should be a no-op, got %v", err)
	}
	if loaded.Version != 3 {
		t.Fatalf("expected a single bump for the removal, got %d", loaded.Version)
	}

	if err := repo.AddParticipant(ctx, loaded, u.ID); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if err := repo.Delete(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var links int64
	db.Model(&model.EventParticipant{}).Where("event_id = ?", e.ID).Count(&links)
	if links != 0 {
		t.Fatalf("expected join rows removed, got %d", links)
	}
	if err := repo.Delete(ctx, e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestTaskRepo_FindAndRelations(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepo(db)
	events := NewEventRepo(db)
	repo := NewTaskRepo(db)

	u := seedUser(t, users, "worker@example.com")
	e := &model.Event{ID: uuid.NewString(), Title: "Launch", StartDate: at(10, 10), EndDate: at(10, 12), Status: model.EventUpcoming}
	if err := events.Create(ctx, e); err != nil {
		t.Fatalf("create event: %v", err)
	}

	mk := func(title string, due time.Time, p model.TaskPriority, assignee *string) *model.Task {
		task := &model.Task{ID: uuid.NewString(), Title: title, DueDate: due, Priority: p, Status: model.TaskPending, AssignedToID: assignee, EventID: &e.ID}
		if err := repo.Create(ctx, task); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
		return task
	}
	later := mk("Ship docs", at(20, 9), model.PriorityHigh, &u.ID)
	mk("Book venue", at(15, 9), model.PriorityHigh, nil)
	mk("Order snacks", at(14, 9), model.PriorityLow, &u.ID)

	got, err := repo.GetByID(ctx, later.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AssignedTo == nil || got.AssignedTo.Email != "worker@example.com" || got.Event == nil || got.Event.Title != "Launch" {
		t.Fatalf("expected relations loaded, got %+v", got)
	}

	tasks, _ := repo.Find(ctx, model.TaskFilter{Priority: model.PriorityHigh})
	if len(tasks) != 2 || tasks[0].Title != "Book venue" {
		t.Fatalf("expected high priority tasks by due date, got %+v", tasks)
	}

	tasks, _ = repo.Find(ctx, model.TaskFilter{AssignedTo: u.ID, EventID: e.ID})
	if len(tasks) != 2 {
		t.Fatalf("expected 2 assigned tasks, got %d", len(tasks))
	}

	now, before := at(13, 0), at(16, 0)
	tasks, _ = repo.Find(ctx, model.TaskFilter{DueBefore: &before, Now: now})
	if len(tasks) != 2 || tasks[0].Title != "Order snacks" {
		t.Fatalf("expected due window match, got %+v", tasks)
	}

	got.AssignedToID = nil
	got.Status = model.TaskCompleted
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("save: %v", err)
	}
	reloaded, _ := repo.GetByID(ctx, later.ID)
	if reloaded.AssignedToID != nil || reloaded.AssignedTo != nil || reloaded.Status != model.TaskCompleted {
		t.Fatalf("expected cleared assignee and new status, got %+v", reloaded)
	}

	if err := repo.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
