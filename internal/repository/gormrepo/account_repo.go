package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/buysell/internal/datamodels/account"
)

type accountRepo struct {
	db *gorm.DB
}

// NewAccountRepository 创建账户仓储
func NewAccountRepository(db *gorm.DB) account.Repository {
	return &accountRepo{db: db}
}

func (r *accountRepo) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	var a account.Account
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	var a account.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepo) Create(ctx context.Context, a *account.Account) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *accountRepo) Update(ctx context.Context, a *account.Account) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *accountRepo) CreateReview(ctx context.Context, rv *account.Review) error {
	return r.db.WithContext(ctx).Omit("Reviewer").Create(rv).Error
}

func (r *accountRepo) HasReview(ctx context.Context, subjectID, reviewerID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&account.Review{}).
		Where("subject_id = ? AND reviewer_id = ?", subjectID, reviewerID).
		Count(&n).Error
	return n > 0, err
}

func (r *accountRepo) ListReviews(ctx context.Context, subjectID int64) ([]*account.Review, error) {
	var list []*account.Review
	if err := r.db.WithContext(ctx).
		Preload("Reviewer").
		Where("subject_id = ?", subjectID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
