package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/kaku-api/internal/model"
	"github.com/iliyamo/kaku-api/internal/queue"
)

// Inline runs the handler on a goroutine per domain event. It satisfies
// service.Notifier when no broker is configured.
type Inline struct {
	handler queue.Handler
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewInline(h queue.Handler) *Inline {
	return &Inline{handler: h, timeout: time.Minute}
}

func (n *Inline) EventCreated(e model.Event) { n.dispatch(queue.NewEventCreated(e)) }
func (n *Inline) TaskAssigned(t model.Task)  { n.dispatch(queue.NewTaskAssigned(t)) }

// Wait blocks until every dispatched message has been handled.
func (n *Inline) Wait() { n.wg.Wait() }

func (n *Inline) dispatch(msg queue.Message) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := n.handler.Handle(ctx, msg); err != nil {
			log.Printf("notify: %s dropped: %v", msg.Kind, err)
		}
	}()
}
