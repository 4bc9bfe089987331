package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"github.com/example/buysell/internal/datamodels/order"
	"github.com/example/buysell/internal/service"
)

type fakeHistory struct {
	records map[string]*order.HistoryRecord
	err     error
}

func (f *fakeHistory) GetHistoryByTransaction(_ context.Context, id string) (*order.HistoryRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	h, ok := f.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return h, nil
}

type ackRecorder struct {
	acked   int
	nacked  int
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error { a.acked++; return nil }
func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked++
	a.requeue = requeue
	return nil
}
func (a *ackRecorder) Reject(_ uint64, requeue bool) error {
	a.nacked++
	a.requeue = requeue
	return nil
}

func delivery(t *testing.T, key string, ev interface{}) (amqp.Delivery, *ackRecorder) {
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	rec := &ackRecorder{}
	return amqp.Delivery{Acknowledger: rec, RoutingKey: key, Body: body}, rec
}

func sampleOrder() *order.Order {
	return &order.Order{ID: 7, TransactionID: "abc123", BuyerID: 1, SellerID: 2, ListingID: 3, Amount: decimal.NewFromInt(50)}
}

func TestHandleCreatedAcks(t *testing.T) {
	m := service.NewMonitor()
	w := New(&fakeHistory{}, m)
	d, rec := delivery(t, order.EventCreated, order.NewEvent(order.EventCreated, sampleOrder()))

	w.handle(context.Background(), d)
	assert.Equal(t, 1, rec.acked)
	assert.Equal(t, int64(1), m.EventsConsumed)
}

func TestHandleCompletedChecksHistory(t *testing.T) {
	o := sampleOrder()
	m := service.NewMonitor()
	w := New(&fakeHistory{records: map[string]*order.HistoryRecord{o.TransactionID: o.Archive()}}, m)

	d, rec := delivery(t, order.EventCompleted, order.NewEvent(order.EventCompleted, o))
	w.handle(context.Background(), d)
	assert.Equal(t, 1, rec.acked)

	missing := *o
	missing.TransactionID = "nope"
	d, rec = delivery(t, order.EventCompleted, order.NewEvent(order.EventCompleted, &missing))
	w.handle(context.Background(), d)
	assert.Equal(t, 1, rec.nacked)
	assert.False(t, rec.requeue)
	assert.Equal(t, int64(1), m.EventsRejected)
}

func TestHandleRequeuesOnStoreError(t *testing.T) {
	m := service.NewMonitor()
	w := New(&fakeHistory{err: errors.New("connection refused")}, m)
	d, rec := delivery(t, order.EventCompleted, order.NewEvent(order.EventCompleted, sampleOrder()))

	w.handle(context.Background(), d)
	assert.Equal(t, 1, rec.nacked)
	assert.True(t, rec.requeue)
	assert.Equal(t, int64(1), m.DBErrors)
}

func TestHandleDropsMalformed(t *testing.T) {
	w := New(&fakeHistory{}, service.NewMonitor())

	rec := &ackRecorder{}
	w.handle(context.Background(), amqp.Delivery{Acknowledger: rec, RoutingKey: order.EventCreated, Body: []byte("{")})
	assert.Equal(t, 1, rec.nacked)
	assert.False(t, rec.requeue)

	d, rec := delivery(t, "order.refunded", order.NewEvent("order.refunded", sampleOrder()))
	w.handle(context.Background(), d)
	assert.Equal(t, 1, rec.nacked)
	assert.False(t, rec.requeue)
}

func TestRunStopsOnCancel(t *testing.T) {
	w := New(&fakeHistory{}, service.NewMonitor())
	msgs := make(chan amqp.Delivery, 1)
	d, rec := delivery(t, order.EventCreated, order.NewEvent(order.EventCreated, sampleOrder()))
	msgs <- d

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, msgs) }()

	require.Eventually(t, func() bool {
		events := w.monitor.GetStats()["events"].(map[string]interface{})
		return events["consumed"] == int64(1)
	}, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 1, rec.acked)
}

func TestRunLogsStatsPeriodically(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	undo := zap.ReplaceGlobals(zap.New(core))
	defer undo()

	w := New(&fakeHistory{}, service.NewMonitor())
	w.StatsInterval = 5 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, make(chan amqp.Delivery)) }()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("order event stats").Len() >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
