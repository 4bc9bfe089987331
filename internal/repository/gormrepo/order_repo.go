package gormrepo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/buysell/internal/datamodels/order"
)

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepo{db: db}
}

func applyFilter(db *gorm.DB, f order.Filter) *gorm.DB {
	if f.BuyerID > 0 {
		db = db.Where("buyer_id = ?", f.BuyerID)
	}
	if f.SellerID > 0 {
		db = db.Where("seller_id = ?", f.SellerID)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	return db
}

// withParties 关联商品、买家、卖家
func withParties(db *gorm.DB) *gorm.DB {
	return db.Preload("Listing").Preload("Buyer").Preload("Seller")
}

func (r *orderRepo) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Omit("Buyer", "Seller", "Listing").Create(o).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	if err := withParties(r.db.WithContext(ctx)).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id int64, f order.Filter) (*order.Order, error) {
	var o order.Order
	query := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id)
	if err := applyFilter(query, f).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) UpdateOTPHash(ctx context.Context, id int64, hash string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND status = ?", id, order.StatusPending).
		Update("otp_hash", hash)
	return res.RowsAffected == 1, res.Error
}

func (r *orderRepo) MarkCompleted(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND status = ?", id, order.StatusPending).
		Update("status", order.StatusCompleted)
	return res.RowsAffected == 1, res.Error
}

func (r *orderRepo) List(ctx context.Context, f order.Filter) ([]*order.Order, error) {
	var list []*order.Order
	if err := applyFilter(withParties(r.db.WithContext(ctx)), f).
		Order("created_at DESC").
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) CreateHistory(ctx context.Context, h *order.HistoryRecord) error {
	return r.db.WithContext(ctx).Omit("Buyer", "Seller", "Listing").Create(h).Error
}

func (r *orderRepo) GetHistoryByTransaction(ctx context.Context, transactionID string) (*order.HistoryRecord, error) {
	var h order.HistoryRecord
	if err := withParties(r.db.WithContext(ctx)).
		Where("transaction_id = ?", transactionID).
		First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *orderRepo) ListHistory(ctx context.Context, f order.Filter) ([]*order.HistoryRecord, error) {
	var list []*order.HistoryRecord
	if err := applyFilter(withParties(r.db.WithContext(ctx)), f).
		Order("placed_at DESC").
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
