package gormrepo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/buysell/internal/datamodels/listing"
)

type listingRepo struct {
	db *gorm.DB
}

// NewListingRepository 创建商品仓储
func NewListingRepository(db *gorm.DB) listing.Repository {
	return &listingRepo{db: db}
}

// withRelations 关联卖家与评价人
func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Seller").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("listing_reviews.id ASC") }).
		Preload("Reviews.Reviewer")
}

func (r *listingRepo) GetByID(ctx context.Context, id int64) (*listing.Listing, error) {
	var l listing.Listing
	if err := withRelations(r.db.WithContext(ctx)).First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listingRepo) GetForUpdate(ctx context.Context, id int64) (*listing.Listing, error) {
	var l listing.Listing
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (r *listingRepo) List(ctx context.Context, f listing.Filter) ([]*listing.Listing, error) {
	query := withRelations(r.db.WithContext(ctx))
	if s := strings.TrimSpace(f.Search); s != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '!'", "%"+likeEscaper.Replace(strings.ToLower(s))+"%")
	}
	if len(f.Categories) > 0 {
		query = query.Where("category IN ?", f.Categories)
	}
	var list []*listing.Listing
	if err := query.Order("id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *listingRepo) Create(ctx context.Context, l *listing.Listing) error {
	return r.db.WithContext(ctx).Omit("Seller", "Reviews").Create(l).Error
}

func (r *listingRepo) Update(ctx context.Context, l *listing.Listing) error {
	return r.db.WithContext(ctx).Omit("Seller", "Reviews").Save(l).Error
}

func (r *listingRepo) SetStatus(ctx context.Context, id int64, status listing.Status) error {
	return r.db.WithContext(ctx).Model(&listing.Listing{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *listingRepo) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Where("listing_id = ?", id).Delete(&listing.Review{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&listing.Listing{}, id).Error
}

func (r *listingRepo) CreateReview(ctx context.Context, rv *listing.Review) error {
	return r.db.WithContext(ctx).Omit("Reviewer").Create(rv).Error
}

func (r *listingRepo) HasReview(ctx context.Context, listingID, reviewerID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&listing.Review{}).
		Where("listing_id = ? AND reviewer_id = ?", listingID, reviewerID).
		Count(&n).Error
	return n > 0, err
}
