package service

import (
	"sync"
	"time"
)

// Monitor 进程内计数器，/api/health 与 worker 共用
type Monitor struct {
	mu sync.RWMutex

	// 错误统计
	DBErrors    int64
	MQErrors    int64
	OTPFailures int64

	// 业务统计
	Checkouts           int64
	OrdersCreated       int64
	DeliveriesConfirmed int64
	EventsConsumed      int64
	EventsRejected      int64

	LastDBError   time.Time
	LastMQError   time.Time
	LastCheckout  time.Time
	LastDelivery  time.Time
	LastEventTime time.Time
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// RecordDBError 记录数据库错误
func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
	m.LastDBError = time.Now()
}

// RecordMQError 记录MQ错误
func (m *Monitor) RecordMQError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MQErrors++
	m.LastMQError = time.Now()
}

// RecordOTPFailure 记录收货码校验失败
func (m *Monitor) RecordOTPFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OTPFailures++
}

// RecordCheckout 记录一次结算及生成的订单数
func (m *Monitor) RecordCheckout(orders int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Checkouts++
	m.OrdersCreated += int64(orders)
	m.LastCheckout = time.Now()
}

// RecordDelivery 记录确认收货
func (m *Monitor) RecordDelivery() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeliveriesConfirmed++
	m.LastDelivery = time.Now()
}

// RecordEvent 记录 worker 消费结果
func (m *Monitor) RecordEvent(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.EventsConsumed++
	} else {
		m.EventsRejected++
	}
	m.LastEventTime = time.Now()
}

// GetStats 获取统计信息
func (m *Monitor) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	eventSuccessRate := float64(0)
	totalEvents := m.EventsConsumed + m.EventsRejected
	if totalEvents > 0 {
		eventSuccessRate = float64(m.EventsConsumed) / float64(totalEvents) * 100
	}

	return map[string]interface{}{
		"errors": map[string]interface{}{
			"db":  m.DBErrors,
			"mq":  m.MQErrors,
			"otp": m.OTPFailures,
		},
		"orders": map[string]interface{}{
			"checkouts":            m.Checkouts,
			"orders_created":       m.OrdersCreated,
			"deliveries_confirmed": m.DeliveriesConfirmed,
		},
		"events": map[string]interface{}{
			"consumed":     m.EventsConsumed,
			"rejected":     m.EventsRejected,
			"success_rate": eventSuccessRate,
		},
		"last_events": map[string]interface{}{
			"db_error": m.LastDBError,
			"mq_error": m.LastMQError,
			"checkout": m.LastCheckout,
			"delivery": m.LastDelivery,
			"event":    m.LastEventTime,
		},
	}
}

// Reset 重置统计
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors, m.MQErrors, m.OTPFailures = 0, 0, 0
	m.Checkouts, m.OrdersCreated, m.DeliveriesConfirmed = 0, 0, 0
	m.EventsConsumed, m.EventsRejected = 0, 0
}
