package listing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/buysell/internal/datamodels/account"
)

// Category 商品分类
type Category string

const (
	CategoryClothing    Category = "clothing"
	CategoryGrocery     Category = "grocery"
	CategoryElectronics Category = "electronics"
	CategoryBooks       Category = "books"
	CategoryOther       Category = "other"
)

var Categories = []Category{CategoryClothing, CategoryGrocery, CategoryElectronics, CategoryBooks, CategoryOther}

// Status 商品状态
type Status string

const (
	StatusAvailable Status = "available"
	StatusSold      Status = "sold"
)

// Listing 在售商品
type Listing struct {
	ID          int64            `gorm:"primaryKey" json:"id"`
	Name        string           `gorm:"size:128;not null" json:"name"`
	Price       decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price"`
	Description string           `gorm:"size:2048;not null" json:"description"`
	Category    Category         `gorm:"size:32;index;not null" json:"category"`
	SellerID    int64            `gorm:"index;not null" json:"sellerId"`
	Seller      *account.Profile `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Status      Status           `gorm:"size:16;index;not null" json:"status"`
	Reviews     []Review         `gorm:"foreignKey:ListingID" json:"reviews"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Review 商品评价，(ListingID, ReviewerID) 唯一
type Review struct {
	ID         int64            `gorm:"primaryKey" json:"id"`
	ListingID  int64            `gorm:"uniqueIndex:idx_listing_review_pair;not null" json:"listingId"`
	ReviewerID int64            `gorm:"uniqueIndex:idx_listing_review_pair;not null" json:"reviewerId"`
	Reviewer   *account.Profile `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Rating     int              `gorm:"not null" json:"rating"`
	Comment    string           `gorm:"size:1024;not null" json:"comment"`
	CreatedAt  time.Time        `json:"createdAt"`
}

func (Review) TableName() string { return "listing_reviews" }

// Filter 列表查询条件，Search 为名称的大小写不敏感子串
type Filter struct {
	Search     string
	Categories []Category
}

// Repository 商品仓储接口，查询结果带卖家与评价人信息
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Listing, error)
	// GetForUpdate 在事务内锁定商品行，不加载关联
	GetForUpdate(ctx context.Context, id int64) (*Listing, error)
	List(ctx context.Context, f Filter) ([]*Listing, error)
	Create(ctx context.Context, l *Listing) error
	Update(ctx context.Context, l *Listing) error
	SetStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error

	CreateReview(ctx context.Context, r *Review) error
	HasReview(ctx context.Context, listingID, reviewerID int64) (bool, error)
}
