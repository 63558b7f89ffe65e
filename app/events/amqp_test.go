package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingAck stands in for the broker side of a delivery.
type recordingAck struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
	ackErr  error
}

func (a *recordingAck) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return a.ackErr
}

func (a *recordingAck) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *recordingAck) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func deliveries(ack amqp.Acknowledger, bodies ...string) <-chan amqp.Delivery {
	ch := make(chan amqp.Delivery, len(bodies))
	for i, b := range bodies {
		ch <- amqp.Delivery{Acknowledger: ack, DeliveryTag: uint64(i + 1), Body: []byte(b)}
	}
	close(ch)
	return ch
}

func TestDrain(t *testing.T) {
	testCases := []struct {
		name        string
		bodies      []string
		ackErr      error
		wantOrders  []string
		wantAcked   []uint64
		wantNacked  []uint64
		expectedErr bool
	}{
		{
			name:       "Acks decoded events",
			bodies:     []string{`{"order_no":"a"}`, `{"order_no":"b"}`},
			wantOrders: []string{"a", "b"},
			wantAcked:  []uint64{1, 2},
		},
		{
			name:       "Malformed body is dropped without requeue",
			bodies:     []string{`not json`, `{"order_no":"c"}`},
			wantOrders: []string{"c"},
			wantAcked:  []uint64{2},
			wantNacked: []uint64{1},
		},
		{
			name:        "Ack failure stops the worker",
			bodies:      []string{`{"order_no":"d"}`, `{"order_no":"e"}`},
			ackErr:      errors.New("channel closed"),
			wantOrders:  []string{"d"},
			wantAcked:   []uint64{1},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ack := &recordingAck{ackErr: tc.ackErr}
			var got []string

			err := drain(deliveries(ack, tc.bodies...), discardLogger(), func(ev SalesCreated) {
				got = append(got, ev.OrderNo)
			})

			if tc.expectedErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.wantOrders, got)
			assert.Equal(t, tc.wantAcked, ack.acked)
			assert.Equal(t, tc.wantNacked, ack.nacked)
			for _, rq := range ack.requeue {
				assert.False(t, rq, "malformed events must not be requeued")
			}
		})
	}
}

func TestRunConsumersFansOut(t *testing.T) {
	ack := &recordingAck{}
	streams := []<-chan amqp.Delivery{
		deliveries(ack, `{"order_no":"a"}`),
		deliveries(ack, `{"order_no":"b"}`, `{"order_no":"c"}`),
	}
	next := 0
	start := func(context.Context) (<-chan amqp.Delivery, func(), error) {
		s := streams[next]
		next++
		return s, func() {}, nil
	}

	tally := NewTally()
	err := runConsumers(context.Background(), 2, start, discardLogger(), tally.Add)

	require.NoError(t, err)
	orders, _ := tally.Snapshot()
	assert.Equal(t, int64(3), orders)
}

func TestRunConsumersUnwindsOnStartFailure(t *testing.T) {
	// The first worker blocks on an open stream until it is released.
	open := make(chan amqp.Delivery)
	var once sync.Once
	released := false
	var startCtx context.Context

	calls := 0
	start := func(ctx context.Context) (<-chan amqp.Delivery, func(), error) {
		calls++
		if calls == 1 {
			startCtx = ctx
			return open, func() {
				once.Do(func() {
					released = true
					close(open)
				})
			}, nil
		}
		return nil, nil, errors.New("channel limit reached")
	}

	err := runConsumers(context.Background(), 3, start, discardLogger(), func(SalesCreated) {})

	assert.EqualError(t, err, "channel limit reached")
	assert.Equal(t, 2, calls)
	assert.True(t, released, "running worker must be released before returning")
	assert.ErrorIs(t, startCtx.Err(), context.Canceled)
}
