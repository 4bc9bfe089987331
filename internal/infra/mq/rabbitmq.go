package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/example/buysell/internal/config"
)

// ErrDisabled 未配置 MQ 地址
var ErrDisabled = errors.New("rabbitmq disabled: empty url")

// Dial 建立 RabbitMQ 连接，调用方负责 Close
func Dial(cfg *config.RabbitMQConfig) (*amqp.Connection, error) {
	if cfg.URL == "" {
		return nil, ErrDisabled
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	return conn, nil
}

func declareExchange(ch *amqp.Channel, exchange string) error {
	return ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil)
}

// Publisher 向 topic exchange 发布 JSON 消息，单个 channel 由锁保护
type Publisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

// NewPublisher 打开 channel 并声明 exchange
func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := declareExchange(ch, exchange); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{ch: ch, exchange: exchange}, nil
}

// Publish 序列化 v 并以 routingKey 发布（持久化消息）
func (p *Publisher) Publish(ctx context.Context, routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Close()
}

// Subscription 绑定到 exchange 的持久队列，手动确认
type Subscription struct {
	ch         *amqp.Channel
	Deliveries <-chan amqp.Delivery
}

// Subscribe 声明 exchange 与队列，按 routingKeys 绑定后开始消费
func Subscribe(conn *amqp.Connection, cfg *config.RabbitMQConfig, routingKeys ...string) (*Subscription, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*Subscription, error) {
		_ = ch.Close()
		return nil, err
	}
	if err := declareExchange(ch, cfg.Exchange); err != nil {
		return fail(fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err))
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return fail(fmt.Errorf("declare queue %s: %w", cfg.Queue, err))
	}
	for _, key := range routingKeys {
		if err := ch.QueueBind(cfg.Queue, key, cfg.Exchange, false, nil); err != nil {
			return fail(fmt.Errorf("bind %s: %w", key, err))
		}
	}
	if err := ch.Qos(16, 0, false); err != nil {
		return fail(err)
	}
	msgs, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fail(fmt.Errorf("consume %s: %w", cfg.Queue, err))
	}
	return &Subscription{ch: ch, Deliveries: msgs}, nil
}

func (s *Subscription) Close() error {
	return s.ch.Close()
}
