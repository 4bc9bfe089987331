package service

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/example/buysell/internal/apperr"
	"github.com/example/buysell/internal/datamodels/cart"
	"github.com/example/buysell/internal/datamodels/listing"
	"github.com/example/buysell/internal/repository/gormrepo"
)

// CartService 购物车
type CartService struct {
	store   *gormrepo.Store
	monitor *Monitor
}

func NewCartService(store *gormrepo.Store, monitor *Monitor) *CartService {
	return &CartService{store: store, monitor: monitor}
}

// Add 加入购物车，不能加入自己的或已售出的商品，返回加入后的购物车
func (s *CartService) Add(ctx context.Context, accountID, listingID int64) ([]*listing.Listing, error) {
	l, err := s.store.Listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, storeErr(s.monitor, err, listingNotFound)
	}
	if l.SellerID == accountID {
		return nil, apperr.Validation("cannot add your own item to the cart")
	}
	if l.Status == listing.StatusSold {
		return nil, apperr.Validation("item is already sold")
	}

	in, err := s.store.Carts.Contains(ctx, accountID, listingID)
	if err != nil {
		return nil, storeErr(s.monitor, err, "")
	}
	if in {
		return nil, apperr.Conflict("item already in cart")
	}
	if err := s.store.Carts.Add(ctx, accountID, listingID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("item already in cart")
		}
		return nil, storeErr(s.monitor, err, "")
	}
	return s.List(ctx, accountID)
}

// Remove 幂等，不在购物车中也返回成功
func (s *CartService) Remove(ctx context.Context, accountID, listingID int64) ([]*listing.Listing, error) {
	if err := s.store.Carts.Remove(ctx, accountID, listingID); err != nil {
		return nil, storeErr(s.monitor, err, "")
	}
	return s.List(ctx, accountID)
}

func (s *CartService) Clear(ctx context.Context, accountID int64) error {
	if _, err := s.store.Carts.Clear(ctx, accountID); err != nil {
		return storeErr(s.monitor, err, "")
	}
	return nil
}

// List 按加入顺序返回商品，附带卖家信息
func (s *CartService) List(ctx context.Context, accountID int64) ([]*listing.Listing, error) {
	items, err := s.store.Carts.List(ctx, accountID)
	if err != nil {
		return nil, storeErr(s.monitor, err, "")
	}
	return lo.FilterMap(items, func(it *cart.Item, _ int) (*listing.Listing, bool) {
		return it.Listing, it.Listing != nil
	}), nil
}
