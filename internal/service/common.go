package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/buysell/internal/apperr"
)

// EventPublisher 订单事件发布，mq.Publisher 实现该接口
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, v any) error
}

// NopPublisher 未配置 MQ 时丢弃事件
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// storeErr 把仓储错误转换为业务错误：记录不存在 -> NotFound，唯一键冲突 -> Conflict，其余记日志后为 Internal
func storeErr(m *Monitor, err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFoundErr(notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict("already exists")
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	m.RecordDBError()
	zap.L().Error("store operation failed", zap.Error(err))
	return apperr.Internal(err)
}

// txErr 用于多写事务：业务错误原样返回，其余持久层失败（含唯一键冲突）一律为 Internal
func txErr(m *Monitor, err error, notFound string) error {
	var ae *apperr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFoundErr(notFound)
	}
	m.RecordDBError()
	zap.L().Error("transaction failed", zap.Error(err))
	return apperr.Internal(err)
}

func notFoundErr(msg string) error {
	if msg == "" {
		msg = "not found"
	}
	return apperr.NotFound("%s", msg)
}
