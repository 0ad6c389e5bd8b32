package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/iliyamo/kaku-api/internal/model"
	"github.com/iliyamo/kaku-api/internal/queue"
	"github.com/iliyamo/kaku-api/internal/repository"
)

// Recipients resolves who receives a notification.
type Recipients interface {
	ListNotifiable(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// Dispatcher renders and sends the emails for each message kind. Per
// recipient delivery failures are logged and swallowed; only a failure to
// resolve recipients is returned.
type Dispatcher struct {
	users  Recipients
	mailer Mailer
	appURL string
}

func NewDispatcher(users Recipients, m Mailer, appURL string) *Dispatcher {
	return &Dispatcher{users: users, mailer: m, appURL: appURL}
}

const dateLayout = "Monday, January 2, 2006 at 15:04 UTC"

var (
	eventTmpl = template.Must(template.New("event").Parse(`<h2>New Event: {{.Title}}</h2>
<p>{{.Description}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
{{if .Location}}<p><strong>Location:</strong> {{.Location}}</p>{{end}}
<p><a href="{{.Link}}">View event</a></p>
`))
	taskTmpl = template.Must(template.New("task").Parse(`<h2>New Task Assigned: {{.Title}}</h2>
<p>{{.Description}}</p>
<p><strong>Due:</strong> {{.Date}}</p>
<p><a href="{{.Link}}">View task</a></p>
`))
)

type bodyData struct {
	Title       string
	Description string
	Date        string
	Location    string
	Link        string
}

// Handle implements queue.Handler.
func (d *Dispatcher) Handle(ctx context.Context, msg queue.Message) error {
	switch msg.Kind {
	case queue.KindEventCreated:
		if msg.Event == nil {
			return errors.New("notify: event.created without payload")
		}
		return d.eventCreated(ctx, msg.Event)
	case queue.KindTaskAssigned:
		if msg.Task == nil {
			return errors.New("notify: task.assigned without payload")
		}
		return d.taskAssigned(ctx, msg.Task)
	}
	return fmt.Errorf("notify: unknown message kind %q", msg.Kind)
}

func (d *Dispatcher) eventCreated(ctx context.Context, e *queue.EventPayload) error {
	users, err := d.users.ListNotifiable(ctx)
	if err != nil {
		return fmt.Errorf("notify: list recipients: %w", err)
	}
	if len(users) == 0 {
		return nil
	}
	html, err := render(eventTmpl, bodyData{
		Title:       e.Title,
		Description: e.Description,
		Date:        e.StartDate.UTC().Format(dateLayout),
		Location:    e.Location,
		Link:        d.appURL + "/events/" + e.ID,
	})
	if err != nil {
		return err
	}
	subject := "New Event: " + e.Title
	for _, u := range users {
		d.send(ctx, Mail{To: u.Email, Subject: subject, HTML: html})
	}
	return nil
}

func (d *Dispatcher) taskAssigned(ctx context.Context, t *queue.TaskPayload) error {
	if t.AssignedTo == "" {
		return nil
	}
	u, err := d.users.GetByID(ctx, t.AssignedTo)
	if errors.Is(err, repository.ErrNotFound) {
		log.Printf("notify: assignee %s of task %s no longer exists", t.AssignedTo, t.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("notify: load assignee: %w", err)
	}
	if !u.NotificationsEnabled || !u.IsActive {
		return nil
	}
	html, err := render(taskTmpl, bodyData{
		Title:       t.Title,
		Description: t.Description,
		Date:        t.DueDate.UTC().Format(dateLayout),
		Link:        d.appURL + "/tasks/" + t.ID,
	})
	if err != nil {
		return err
	}
	d.send(ctx, Mail{To: u.Email, Subject: "New Task Assigned: " + t.Title, HTML: html})
	return nil
}

func (d *Dispatcher) send(ctx context.Context, m Mail) {
	sctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := d.mailer.Send(sctx, m); err != nil {
		log.Printf("notify: send %q to %s failed: %v", m.Subject, m.To, err)
	}
}

func render(t *template.Template, data bodyData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
