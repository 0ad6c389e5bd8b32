package queue

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/kaku-api/internal/model"
)

// Publisher sends notification messages to a durable RabbitMQ queue. It
// satisfies service.Notifier: publishing happens on a goroutine and
// failures are only logged.
type Publisher struct {
	URL     string
	Queue   string
	Timeout time.Duration

	wg sync.WaitGroup
}

func NewPublisher(url, queue string) *Publisher {
	return &Publisher{URL: url, Queue: queue, Timeout: 5 * time.Second}
}

func (p *Publisher) EventCreated(e model.Event) { p.async(NewEventCreated(e)) }
func (p *Publisher) TaskAssigned(t model.Task)  { p.async(NewTaskAssigned(t)) }

// Wait blocks until in-flight publishes finish.
func (p *Publisher) Wait() { p.wg.Wait() }

func (p *Publisher) async(msg Message) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.Timeout)
		defer cancel()
		if err := p.Publish(ctx, msg); err != nil {
			log.Printf("rabbitmq: drop %s notification: %v", msg.Kind, err)
		}
	}()
}

// Publish dials the broker, declares the queue and publishes msg as a
// persistent JSON message. Each call uses its own connection.
func (p *Publisher) Publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch, p.Queue); err != nil {
		return err
	}

	return ch.PublishWithContext(ctx,
		"",      // default exchange
		p.Queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         string(msg.Kind),
			Body:         body,
		})
}

// declare ensures the durable queue exists.
func declare(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(name, true, false, false, false, nil)
	return err
}
