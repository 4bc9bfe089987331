package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/buysell/internal/datamodels/account"
	"github.com/example/buysell/internal/datamodels/listing"
)

// Status 订单状态，pending -> completed 为唯一转移
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Order 待交付订单，每个购物车条目生成一条
type Order struct {
	ID            int64            `gorm:"primaryKey" json:"id"`
	TransactionID string           `gorm:"uniqueIndex;size:64;not null" json:"transactionId"`
	BuyerID       int64            `gorm:"index;not null" json:"buyerId"`
	Buyer         *account.Profile `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	SellerID      int64            `gorm:"index;not null" json:"sellerId"`
	Seller        *account.Profile `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	ListingID     int64            `gorm:"index;not null" json:"itemId"`
	Listing       *listing.Listing `gorm:"foreignKey:ListingID" json:"item,omitempty"`
	Amount        decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"amount"`
	OTPHash       string           `gorm:"size:255;not null" json:"-"` // 只保存哈希
	Status        Status           `gorm:"size:16;index;not null" json:"status"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// HistoryRecord 已完成订单的归档，每个交易号仅一条，写入后不再修改
type HistoryRecord struct {
	ID            int64            `gorm:"primaryKey" json:"id"`
	OrderID       int64            `gorm:"index;not null" json:"orderId"`
	TransactionID string           `gorm:"uniqueIndex;size:64;not null" json:"transactionId"`
	BuyerID       int64            `gorm:"index;not null" json:"buyerId"`
	Buyer         *account.Profile `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	SellerID      int64            `gorm:"index;not null" json:"sellerId"`
	Seller        *account.Profile `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	ListingID     int64            `gorm:"index;not null" json:"itemId"`
	Listing       *listing.Listing `gorm:"foreignKey:ListingID" json:"item,omitempty"`
	Amount        decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status        Status           `gorm:"size:16;not null" json:"status"`
	PlacedAt      time.Time        `gorm:"index;not null" json:"placedAt"` // 原订单创建时间
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func (HistoryRecord) TableName() string { return "order_history" }

// Archive 生成订单的归档副本
func (o *Order) Archive() *HistoryRecord {
	return &HistoryRecord{
		OrderID:       o.ID,
		TransactionID: o.TransactionID,
		BuyerID:       o.BuyerID,
		SellerID:      o.SellerID,
		ListingID:     o.ListingID,
		Amount:        o.Amount,
		Status:        StatusCompleted,
		PlacedAt:      o.CreatedAt,
	}
}

// Filter 查询条件，零值字段不参与过滤
type Filter struct {
	BuyerID  int64
	SellerID int64
	Status   Status
}

// Repository 订单仓储接口
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	// GetForUpdate 在事务内锁定满足条件的订单
	GetForUpdate(ctx context.Context, id int64, f Filter) (*Order, error)
	// UpdateOTPHash 仅在订单仍为 pending 时生效，返回是否更新
	UpdateOTPHash(ctx context.Context, id int64, hash string) (bool, error)
	// MarkCompleted 仅在订单仍为 pending 时生效，返回是否更新
	MarkCompleted(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, f Filter) ([]*Order, error)

	CreateHistory(ctx context.Context, h *HistoryRecord) error
	GetHistoryByTransaction(ctx context.Context, transactionID string) (*HistoryRecord, error)
	ListHistory(ctx context.Context, f Filter) ([]*HistoryRecord, error)
}
