package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/buysell/internal/apperr"
	"github.com/example/buysell/internal/datamodels/listing"
	"github.com/example/buysell/internal/repository/gormrepo"
)

const listingNotFound = "item not found"

// ListingService 商品发布、检索、维护与评价
type ListingService struct {
	store   *gormrepo.Store
	monitor *Monitor
}

func NewListingService(store *gormrepo.Store, monitor *Monitor) *ListingService {
	return &ListingService{store: store, monitor: monitor}
}

// Create 发布商品，卖家为当前用户
func (s *ListingService) Create(ctx context.Context, sellerID int64, in listing.CreateInput) (*listing.Listing, error) {
	l, err := listing.New(sellerID, in)
	if err != nil {
		return nil, err
	}
	if err := s.store.Listings.Create(ctx, l); err != nil {
		return nil, storeErr(s.monitor, err, "")
	}
	zap.L().Info("listing created", zap.Int64("listing_id", l.ID), zap.Int64("seller_id", sellerID))
	return s.Get(ctx, l.ID)
}

// List 名称模糊搜索 + 分类过滤
func (s *ListingService) List(ctx context.Context, f listing.Filter) ([]*listing.Listing, error) {
	f.Search = strings.TrimSpace(f.Search)
	list, err := s.store.Listings.List(ctx, f)
	if err != nil {
		return nil, storeErr(s.monitor, err, "")
	}
	return list, nil
}

func (s *ListingService) Get(ctx context.Context, id int64) (*listing.Listing, error) {
	l, err := s.store.Listings.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(s.monitor, err, listingNotFound)
	}
	return l, nil
}

// getOwned 非本人商品按不存在处理
func getOwned(ctx context.Context, repo listing.Repository, m *Monitor, ownerID, id int64) (*listing.Listing, error) {
	l, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(m, err, listingNotFound)
	}
	if l.SellerID != ownerID {
		return nil, apperr.NotFound(listingNotFound)
	}
	return l, nil
}

// Update 仅卖家本人可修改，按字段合并
func (s *ListingService) Update(ctx context.Context, ownerID, id int64, patch *listing.Patch) (*listing.Listing, error) {
	l, err := getOwned(ctx, s.store.Listings, s.monitor, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(l); err != nil {
		return nil, err
	}
	if err := s.store.Listings.Update(ctx, l); err != nil {
		return nil, storeErr(s.monitor, err, listingNotFound)
	}
	return s.Get(ctx, id)
}

// Delete 仅卖家本人可删除，同一事务内从所有购物车移除
func (s *ListingService) Delete(ctx context.Context, ownerID, id int64) error {
	err := s.store.Transaction(ctx, func(tx *gormrepo.Store) error {
		if _, err := getOwned(ctx, tx.Listings, s.monitor, ownerID, id); err != nil {
			return err
		}
		if err := tx.Carts.RemoveListing(ctx, id); err != nil {
			return err
		}
		return tx.Listings.Delete(ctx, id)
	})
	if err != nil {
		return txErr(s.monitor, err, listingNotFound)
	}
	zap.L().Info("listing deleted", zap.Int64("listing_id", id), zap.Int64("seller_id", ownerID))
	return nil
}

// AddReview 非卖家用户评价商品，每人一次，返回更新后的商品
func (s *ListingService) AddReview(ctx context.Context, reviewerID, id int64, in listing.ReviewInput) (*listing.Listing, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.SellerID == reviewerID {
		return nil, apperr.Validation("cannot review your own item")
	}
	has, err := s.store.Listings.HasReview(ctx, id, reviewerID)
	if err != nil {
		return nil, storeErr(s.monitor, err, "")
	}
	if has {
		return nil, apperr.Conflict("you have already reviewed this item")
	}

	rv := &listing.Review{
		ListingID:  id,
		ReviewerID: reviewerID,
		Rating:     in.Rating,
		Comment:    strings.TrimSpace(in.Comment),
	}
	if err := s.store.Listings.CreateReview(ctx, rv); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("you have already reviewed this item")
		}
		return nil, storeErr(s.monitor, err, "")
	}
	return s.Get(ctx, id)
}
