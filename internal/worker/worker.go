package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/buysell/internal/datamodels/order"
	"github.com/example/buysell/internal/service"
)

// RoutingKeys worker 订阅的事件
var RoutingKeys = []string{order.EventCreated, order.EventCompleted}

// HistoryLookup 用于核对已完成订单的归档
type HistoryLookup interface {
	GetHistoryByTransaction(ctx context.Context, transactionID string) (*order.HistoryRecord, error)
}

// errRetry 暂时性失败，消息重新入队
var errRetry = errors.New("retry later")

// OrderEventWorker 消费订单事件：记录日志、更新计数、核对归档
type OrderEventWorker struct {
	history HistoryLookup
	monitor *service.Monitor

	// StatsInterval 定期输出计数的间隔，0 表示只在退出时输出
	StatsInterval time.Duration
}

func New(history HistoryLookup, monitor *service.Monitor) *OrderEventWorker {
	return &OrderEventWorker{history: history, monitor: monitor}
}

// Run 阻塞消费直到 ctx 取消或 channel 关闭
func (w *OrderEventWorker) Run(ctx context.Context, msgs <-chan amqp.Delivery) error {
	zap.L().Info("order event worker started, waiting for messages...")
	defer w.logStats()

	var tick <-chan time.Time
	if w.StatsInterval > 0 {
		ticker := time.NewTicker(w.StatsInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			w.logStats()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			w.handle(ctx, d)
		}
	}
}

func (w *OrderEventWorker) logStats() {
	zap.L().Info("order event stats", zap.Any("stats", w.monitor.GetStats()))
}

// handle 成功 Ack；格式错误丢弃；暂时性错误重新入队
func (w *OrderEventWorker) handle(ctx context.Context, d amqp.Delivery) {
	err := w.process(ctx, d.RoutingKey, d.Body)
	w.monitor.RecordEvent(err == nil)
	switch {
	case err == nil:
		if aerr := d.Ack(false); aerr != nil {
			zap.L().Warn("failed to ack message", zap.Error(aerr))
		}
	case errors.Is(err, errRetry):
		zap.L().Warn("order event requeued", zap.String("routing_key", d.RoutingKey), zap.Error(err))
		_ = d.Nack(false, true)
	default:
		zap.L().Error("order event dropped", zap.String("routing_key", d.RoutingKey), zap.Error(err))
		_ = d.Nack(false, false)
	}
}

func (w *OrderEventWorker) process(ctx context.Context, routingKey string, body []byte) error {
	var ev order.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	if ev.TransactionID == "" || ev.OrderID <= 0 {
		return errors.New("invalid message: missing order identity")
	}

	fields := []zap.Field{
		zap.Int64("order_id", ev.OrderID),
		zap.String("transaction_id", ev.TransactionID),
		zap.Int64("buyer_id", ev.BuyerID),
		zap.Int64("seller_id", ev.SellerID),
		zap.String("amount", ev.Amount.StringFixed(2)),
	}
	switch routingKey {
	case order.EventCreated:
		zap.L().Info("order created event", fields...)
		return nil
	case order.EventCompleted:
		h, err := w.history.GetHistoryByTransaction(ctx, ev.TransactionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("completed order %s has no history record", ev.TransactionID)
		}
		if err != nil {
			w.monitor.RecordDBError()
			return fmt.Errorf("%w: %v", errRetry, err)
		}
		if !h.Amount.Equal(ev.Amount) {
			zap.L().Warn("history amount differs from event", append(fields, zap.String("archived", h.Amount.StringFixed(2)))...)
		}
		zap.L().Info("order completed event", fields...)
		return nil
	}
	return fmt.Errorf("unknown routing key %q", routingKey)
}
