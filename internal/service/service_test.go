package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/iliyamo/kaku-api/internal/apperr"
	"github.com/iliyamo/kaku-api/internal/database"
	"github.com/iliyamo/kaku-api/internal/identity"
	"github.com/iliyamo/kaku-api/internal/model"
	"github.com/iliyamo/kaku-api/internal/repository"
	"github.com/iliyamo/kaku-api/internal/utils"
)

type recordingNotifier struct {
	mu       sync.Mutex
	events   []model.Event
	assigned []model.Task
}

func (r *recordingNotifier) EventCreated(e model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingNotifier) TaskAssigned(t model.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assigned = append(r.assigned, t)
}

type fakeProvider struct {
	nextUID   string
	failWith  error
	roles     map[string]model.Role
	enabled   map[string]bool
	createdAs []identity.Account
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{nextUID: "fb-1", roles: map[string]model.Role{}, enabled: map[string]bool{}}
}

func (f *fakeProvider) VerifyCredential(context.Context, string) (identity.Claims, error) {
	return identity.Claims{}, identity.ErrInvalidCredential
}

func (f *fakeProvider) CreateAccount(_ context.Context, a identity.Account) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	f.createdAs = append(f.createdAs, a)
	return f.nextUID, nil
}

func (f *fakeProvider) SetRoleClaim(_ context.Context, uid string, r model.Role) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.roles[uid] = r
	return nil
}

func (f *fakeProvider) SetEnabled(_ context.Context, uid string, on bool) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.enabled[uid] = on
	return nil
}

func (f *fakeProvider) PasswordResetLink(_ context.Context, email string) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	return "https://auth.example.com/reset?u=" + email, nil
}

type fixture struct {
	db       *gorm.DB
	users    *repository.UserRepo
	auth     *AuthService
	userSvc  *UserService
	events   *EventService
	tasks    *TaskService
	notifier *recordingNotifier
	provider *fakeProvider
}

func newFixture(t *testing.T) *fixture {
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
	users := repository.NewUserRepo(db)
	events := repository.NewEventRepo(db)
	tasks := repository.NewTaskRepo(db)
	n := &recordingNotifier{}
	p := newFakeProvider()
	return &fixture{
		db:       db,
		users:    users,
		auth:     NewAuthService(users, "test-secret", time.Hour, bcrypt.MinCost),
		userSvc:  NewUserService(users, p),
		events:   NewEventService(events, users, n),
		tasks:    NewTaskService(tasks, users, events, n),
		notifier: n,
		provider: p,
	}
}

func (f *fixture) register(t *testing.T, email string) *model.User {
	t.Helper()
	res, err := f.auth.Register(context.Background(), RegisterInput{FirstName: "A", LastName: "B", Email: email, Password: "secret1"})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return res.User
}

func expectKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if !apperr.Is(err, kind) {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}

func TestAuth_RegisterThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.Register(ctx, RegisterInput{FirstName: "Ada", LastName: "L", Email: "Ada@Example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.User.Role != model.RoleUser || !res.User.IsActive || res.User.NotificationsEnabled {
		t.Fatalf("unexpected defaults: %+v", res.User)
	}
	claims, err := utils.ParseAccessToken("test-secret", res.Token)
	if err != nil || claims.ID != res.User.ID || claims.Email != "ada@example.com" || claims.Role != "user" {
		t.Fatalf("unexpected token claims %+v err=%v", claims, err)
	}

	if _, err := f.auth.Login(ctx, "ada@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err = f.auth.Register(ctx, RegisterInput{FirstName: "Ada", LastName: "L", Email: "ada@example.com", Password: "other12"})
	expectKind(t, err, apperr.KindConflict)
	if apperr.MessageOf(err) != "User already exists" {
		t.Fatalf("unexpected message %q", apperr.MessageOf(err))
	}

	_, err = f.auth.Login(ctx, "nobody@example.com", "secret1")
	expectKind(t, err, apperr.KindNotFound)
	_, err = f.auth.Login(ctx, "ada@example.com", "wrong-pass")
	expectKind(t, err, apperr.KindInvalidCredential)
}

func TestAuth_LoginRejectsDeactivated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "gone@example.com")

	if _, err := f.userSvc.DeactivateUser(ctx, u.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err := f.auth.Login(ctx, "gone@example.com", "secret1")
	expectKind(t, err, apperr.KindForbidden)
}

func TestUserService_RegisterUserMirrorsProviderAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.userSvc.RegisterUser(ctx, RegisterInput{Email: "fb@example.com", Password: "secret1", FirstName: " Grace ", LastName: "Hopper", Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	if u.ID != "fb-1" || u.Role != model.RoleAdmin || u.PasswordHash != "" {
		t.Fatalf("unexpected mirrored user: %+v", u)
	}
	if f.provider.roles["fb-1"] != model.RoleAdmin {
		t.Fatalf("expected role claim set")
	}
	if got := f.provider.createdAs[0].DisplayName; got != "Grace Hopper" {
		t.Fatalf("expected display name %q, got %q", "Grace Hopper", got)
	}

	f.provider.nextUID = "fb-2"
	_, err = f.userSvc.RegisterUser(ctx, RegisterInput{Email: "FB@example.com", Password: "secret1"})
	expectKind(t, err, apperr.KindConflict)
}

func TestUserService_ProviderFailureSkipsLocalWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.userSvc.RegisterUser(ctx, RegisterInput{Email: "fb@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("register user: %v", err)
	}

	f.provider.failWith = errors.New("provider unavailable")
	_, err := f.userSvc.UpdateUserRole(ctx, "fb-1", model.RoleAdmin)
	expectKind(t, err, apperr.KindInternal)

	stored, _ := f.users.GetByID(ctx, "fb-1")
	if stored.Role != model.RoleUser || stored.Version != 1 {
		t.Fatalf("expected local row untouched, got %+v", stored)
	}

	_, err = f.userSvc.RegisterUser(ctx, RegisterInput{Email: "new@example.com", Password: "secret1"})
	expectKind(t, err, apperr.KindInternal)
}

func TestUserService_LocalUserUpdatedWhenProviderUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "local@example.com")
	f.provider.failWith = identity.ErrAccountNotFound

	got, err := f.userSvc.UpdateUserRole(ctx, u.ID, model.RoleAdmin)
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if got.Role != model.RoleAdmin || got.Version != 2 {
		t.Fatalf("expected local role change, got %+v", got)
	}

	_, err = f.userSvc.UpdateUserRole(ctx, "missing", model.RoleAdmin)
	expectKind(t, err, apperr.KindNotFound)
	_, err = f.userSvc.UpdateUserRole(ctx, u.ID, model.Role("root"))
	expectKind(t, err, apperr.KindValidation)
}

func TestEventService_CreateForcesUpcomingAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)

	e, err := f.events.CreateEvent(ctx, EventInput{Title: "Launch", StartDate: start, EndDate: start.Add(2 * time.Hour)}, "creator")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.Status != model.EventUpcoming || e.CreatedBy != "creator" {
		t.Fatalf("unexpected event: %+v", e)
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0].Title != "Launch" {
		t.Fatalf("expected one EventCreated, got %+v", f.notifier.events)
	}
}

func TestEventService_UpdateMergesAndValidatesDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)
	loc := "Hall A"
	e, _ := f.events.CreateEvent(ctx, EventInput{Title: "Launch", Description: "d", StartDate: start, EndDate: start.Add(time.Hour), Location: &loc}, "c")

	_, err := f.events.UpdateEvent(ctx, e.ID, EventPatch{EndDate: model.Some(start.Add(-time.Hour))})
	expectKind(t, err, apperr.KindValidation)

	got, err := f.events.UpdateEvent(ctx, e.ID, EventPatch{
		Status:   model.Some(model.EventOngoing),
		Location: model.Null[string](),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "Launch" || got.Description != "d" || got.Status != model.EventOngoing || got.Location != nil {
		t.Fatalf("unexpected merge result: %+v", got)
	}

	_, err = f.events.UpdateEvent(ctx, e.ID, EventPatch{Title: model.Null[string]()})
	expectKind(t, err, apperr.KindValidation)
	_, err = f.events.UpdateEvent(ctx, "missing", EventPatch{})
	expectKind(t, err, apperr.KindNotFound)
}

func TestEventService_Participants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "p@example.com")
	start := time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)
	e, _ := f.events.CreateEvent(ctx, EventInput{Title: "Launch", StartDate: start, EndDate: start.Add(time.Hour)}, "c")

	got, err := f.events.AddParticipant(ctx, e.ID, u.ID)
	if err != nil || len(got.Participants) != 1 {
		t.Fatalf("add: %+v err=%v", got, err)
	}

	_, err = f.events.AddParticipant(ctx, e.ID, u.ID)
	expectKind(t, err, apperr.KindConflict)
	after, _ := f.events.GetEventByID(ctx, e.ID)
	if len(after.Participants) != 1 {
		t.Fatalf("expected set size unchanged, got %d", len(after.Participants))
	}

	_, err = f.events.AddParticipant(ctx, e.ID, "ghost")
	expectKind(t, err, apperr.KindNotFound)
	_, err = f.events.AddParticipant(ctx, "missing", u.ID)
	expectKind(t, err, apperr.KindNotFound)

	for i := 0; i < 2; i++ {
		got, err = f.events.RemoveParticipant(ctx, e.ID, u.ID)
		if err != nil || len(got.Participants) != 0 {
			t.Fatalf("remove #%d: %+v err=%v", i, got, err)
		}
	}
	if _, err := f.events.RemoveParticipant(ctx, e.ID, "never-joined"); err != nil {
		t.Fatalf("expected removing a non-member to succeed, got %v", err)
	}

	msg, err := f.events.DeleteEvent(ctx, e.ID)
	if err != nil || msg != "Event deleted successfully" {
		t.Fatalf("delete: %q err=%v", msg, err)
	}
	_, err = f.events.DeleteEvent(ctx, e.ID)
	expectKind(t, err, apperr.KindNotFound)
}

func TestTaskService_CreateValidatesReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ghost := "ghost"
	due := time.Now().UTC().Add(48 * time.Hour)

	_, err := f.tasks.CreateTask(ctx, TaskInput{Title: "t", DueDate: due, AssignedTo: &ghost}, "c")
	expectKind(t, err, apperr.KindNotFound)
	if apperr.MessageOf(err) != "Assigned user not found" {
		t.Fatalf("unexpected message %q", apperr.MessageOf(err))
	}
	_, err = f.tasks.CreateTask(ctx, TaskInput{Title: "t", DueDate: due, EventID: &ghost}, "c")
	if apperr.MessageOf(err) != "Event not found" {
		t.Fatalf("unexpected message %q", apperr.MessageOf(err))
	}

	task, err := f.tasks.CreateTask(ctx, TaskInput{Title: "t", DueDate: due}, "c")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Status != model.TaskPending || task.Priority != model.PriorityMedium {
		t.Fatalf("unexpected defaults: %+v", task)
	}
	if len(f.notifier.assigned) != 0 {
		t.Fatalf("unassigned task should not notify")
	}
}

func TestTaskService_AssignNotifiesOnlyOnTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := f.register(t, "u1@example.com")
	u2 := f.register(t, "u2@example.com")
	due := time.Now().UTC().Add(48 * time.Hour)

	task, err := f.tasks.CreateTask(ctx, TaskInput{Title: "Ship", DueDate: due, AssignedTo: &u1.ID}, "c")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(f.notifier.assigned) != 1 {
		t.Fatalf("expected notification on create with assignee, got %d", len(f.notifier.assigned))
	}

	if _, err := f.tasks.AssignTask(ctx, task.ID, u1.ID); err != nil {
		t.Fatalf("reassign same: %v", err)
	}
	if _, err := f.tasks.UpdateTask(ctx, task.ID, TaskPatch{Title: model.Some("Ship it")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(f.notifier.assigned) != 1 {
		t.Fatalf("expected no new notification, got %d", len(f.notifier.assigned))
	}

	got, err := f.tasks.AssignTask(ctx, task.ID, u2.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.AssignedTo == nil || got.AssignedTo.ID != u2.ID {
		t.Fatalf("expected assignee loaded, got %+v", got.AssignedTo)
	}
	if len(f.notifier.assigned) != 2 || *f.notifier.assigned[1].AssignedToID != u2.ID {
		t.Fatalf("expected notification for new assignee")
	}

	_, err = f.tasks.AssignTask(ctx, task.ID, "ghost")
	expectKind(t, err, apperr.KindNotFound)
	stored, _ := f.tasks.GetTaskByID(ctx, task.ID)
	if *stored.AssignedToID != u2.ID {
		t.Fatalf("expected assignee unchanged after failed assign, got %s", *stored.AssignedToID)
	}
}

func TestTaskService_FilterComposition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(time.Hour)

	mk := func(title string, offset time.Duration, p model.TaskPriority) *model.Task {
		task, err := f.tasks.CreateTask(ctx, TaskInput{Title: title, DueDate: base.Add(offset), Priority: p}, "c")
		if err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
		return task
	}
	late := mk("late high", 72*time.Hour, model.PriorityHigh)
	mk("soon high", 24*time.Hour, model.PriorityHigh)
	mk("low", 12*time.Hour, model.PriorityLow)
	done := mk("done high", 1*time.Hour, model.PriorityHigh)
	if _, err := f.tasks.UpdateTaskStatus(ctx, done.ID, model.TaskCompleted); err != nil {
		t.Fatalf("status: %v", err)
	}

	tasks, err := f.tasks.GetAllTasks(ctx, model.TaskFilter{Status: model.TaskPending, Priority: model.PriorityHigh})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Title != "soon high" || tasks[1].ID != late.ID {
		t.Fatalf("expected pending high tasks by due date, got %+v", tasks)
	}

	before := base.Add(30 * time.Hour)
	tasks, _ = f.tasks.GetAllTasks(ctx, model.TaskFilter{DueBefore: &before})
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks due within window, got %d", len(tasks))
	}

	_, err = f.tasks.UpdateTaskStatus(ctx, done.ID, model.TaskStatus("done"))
	expectKind(t, err, apperr.KindValidation)
	if _, err := f.tasks.UpdateTaskStatus(ctx, done.ID, model.TaskPending); err != nil {
		t.Fatalf("expected completed -> pending allowed, got %v", err)
	}
}
