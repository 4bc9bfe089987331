package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/buysell/internal/datamodels/account"
	"github.com/example/buysell/internal/datamodels/cart"
	"github.com/example/buysell/internal/datamodels/listing"
	"github.com/example/buysell/internal/datamodels/order"
)

// Store 聚合所有仓储，Transaction 内的 Store 绑定同一个事务
type Store struct {
	db       *gorm.DB
	Accounts account.Repository
	Listings listing.Repository
	Carts    cart.Repository
	Orders   order.Repository
}

// NewStore 创建仓储集合
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Accounts: NewAccountRepository(db),
		Listings: NewListingRepository(db),
		Carts:    NewCartRepository(db),
		Orders:   NewOrderRepository(db),
	}
}

// Transaction 在单个数据库事务中执行 fn，fn 返回错误时整体回滚
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// DB 底层连接，供健康检查使用
func (s *Store) DB() *gorm.DB {
	return s.db
}
