package cart

import (
	"context"
	"time"

	"github.com/example/buysell/internal/datamodels/listing"
)

// Item 购物车条目，(AccountID, ListingID) 唯一
type Item struct {
	ID        int64            `gorm:"primaryKey" json:"-"`
	AccountID int64            `gorm:"uniqueIndex:idx_cart_account_listing;not null" json:"-"`
	ListingID int64            `gorm:"uniqueIndex:idx_cart_account_listing;index;not null" json:"-"`
	Listing   *listing.Listing `gorm:"foreignKey:ListingID" json:"listing"`
	CreatedAt time.Time        `json:"-"`
}

func (Item) TableName() string { return "cart_items" }

// Repository 购物车仓储接口
type Repository interface {
	// List 按加入顺序返回条目，Listing 及其卖家已关联加载
	List(ctx context.Context, accountID int64) ([]*Item, error)
	Contains(ctx context.Context, accountID, listingID int64) (bool, error)
	Add(ctx context.Context, accountID, listingID int64) error
	Remove(ctx context.Context, accountID, listingID int64) error
	Clear(ctx context.Context, accountID int64) (int64, error)
	// RemoveListing 商品删除时从所有购物车移除
	RemoveListing(ctx context.Context, listingID int64) error
}
