package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/buysell/internal/datamodels/cart"
)

type cartRepo struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *gorm.DB) cart.Repository {
	return &cartRepo{db: db}
}

func (r *cartRepo) List(ctx context.Context, accountID int64) ([]*cart.Item, error) {
	var list []*cart.Item
	if err := r.db.WithContext(ctx).
		Preload("Listing").
		Preload("Listing.Seller").
		Where("account_id = ?", accountID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *cartRepo) Contains(ctx context.Context, accountID, listingID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&cart.Item{}).
		Where("account_id = ? AND listing_id = ?", accountID, listingID).
		Count(&n).Error
	return n > 0, err
}

func (r *cartRepo) Add(ctx context.Context, accountID, listingID int64) error {
	return r.db.WithContext(ctx).Create(&cart.Item{AccountID: accountID, ListingID: listingID}).Error
}

func (r *cartRepo) Remove(ctx context.Context, accountID, listingID int64) error {
	return r.db.WithContext(ctx).
		Where("account_id = ? AND listing_id = ?", accountID, listingID).
		Delete(&cart.Item{}).Error
}

func (r *cartRepo) Clear(ctx context.Context, accountID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&cart.Item{})
	return res.RowsAffected, res.Error
}

func (r *cartRepo) RemoveListing(ctx context.Context, listingID int64) error {
	return r.db.WithContext(ctx).Where("listing_id = ?", listingID).Delete(&cart.Item{}).Error
}
