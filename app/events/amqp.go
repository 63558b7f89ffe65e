package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const salesCreatedType = "sales.created"

// AMQPPublisher publishes events to a durable queue through the default exchange.
type AMQPPublisher struct {
	conn  *amqp.Connection
	queue string

	mu sync.Mutex
	ch *amqp.Channel
}

// Dial connects to the broker and declares the queue.
func Dial(uri, queue string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	ch, err := openChannel(conn, queue)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &AMQPPublisher{conn: conn, ch: ch, queue: queue}, nil
}

func openChannel(conn *amqp.Connection, queue string) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return ch, nil
}

func (p *AMQPPublisher) PublishSalesCreated(ctx context.Context, ev SalesCreated) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// A channel is closed by the broker after a channel-level error; reopen once.
	if p.ch == nil || p.ch.IsClosed() {
		ch, err := openChannel(p.conn, p.queue)
		if err != nil {
			return err
		}
		p.ch = ch
	}

	return p.ch.PublishWithContext(ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         salesCreatedType,
			MessageId:    ev.OrderNo,
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		p.ch.Close()
	}
	return p.conn.Close()
}

// Consume runs workers that decode sales events and pass them to handle.
// It returns when ctx is cancelled or the delivery channels close.
func Consume(ctx context.Context, conn *amqp.Connection, queue string, workers int, logger *slog.Logger, handle func(SalesCreated)) error {
	start := func(ctx context.Context) (<-chan amqp.Delivery, func(), error) {
		ch, err := openChannel(conn, queue)
		if err != nil {
			return nil, nil, err
		}
		if err := ch.Qos(10, 0, false); err != nil {
			ch.Close()
			return nil, nil, fmt.Errorf("set qos: %w", err)
		}
		msgs, err := ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
		if err != nil {
			ch.Close()
			return nil, nil, fmt.Errorf("consume %s: %w", queue, err)
		}
		return msgs, func() { _ = ch.Close() }, nil
	}
	return runConsumers(ctx, workers, start, logger, handle)
}

// consumerStart opens one delivery stream. release must be safe to call twice.
type consumerStart func(ctx context.Context) (msgs <-chan amqp.Delivery, release func(), err error)

func runConsumers(ctx context.Context, workers int, start consumerStart, logger *slog.Logger, handle func(SalesCreated)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	releases := make([]func(), 0, workers)

	for i := 0; i < workers; i++ {
		msgs, release, err := start(ctx)
		if err != nil {
			// Workers already running hold channels on the shared connection;
			// they must be gone before the caller closes it.
			cancel()
			for _, r := range releases {
				r()
			}
			wg.Wait()
			return err
		}
		releases = append(releases, release)

		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			defer release()
			logger.Info("consumer started", "worker", id)
			if err := drain(msgs, logger.With("worker", id), handle); err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)
	return <-errs
}

// drain handles deliveries until msgs closes. Malformed bodies are dropped
// without requeue so they cannot loop.
func drain(msgs <-chan amqp.Delivery, logger *slog.Logger, handle func(SalesCreated)) error {
	for d := range msgs {
		var ev SalesCreated
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			logger.Warn("dropping malformed sales event", "err", err)
			if err := d.Nack(false, false); err != nil {
				return err
			}
			continue
		}
		handle(ev)
		if err := d.Ack(false); err != nil {
			return err
		}
	}
	return nil
}
