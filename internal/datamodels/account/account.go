package account

import (
	"context"
	"time"
)

// Account 用户账户
type Account struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	FirstName     string    `gorm:"size:64;not null" json:"firstName"`
	LastName      string    `gorm:"size:64" json:"lastName"`
	Email         string    `gorm:"uniqueIndex;size:128;not null" json:"email"`
	Age           int       `gorm:"not null" json:"age"`
	ContactNumber string    `gorm:"size:32" json:"contactNumber"`
	PasswordHash  string    `gorm:"size:255;not null" json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Profile 关联查询时对外展示的账户字段（卖家、买家、评价人）
type Profile struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (Profile) TableName() string { return "accounts" }

// Review 对卖家的评价，同一评价人对同一卖家只能评价一次
type Review struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	SubjectID  int64     `gorm:"uniqueIndex:idx_account_review_pair;not null" json:"subjectId"`
	ReviewerID int64     `gorm:"uniqueIndex:idx_account_review_pair;not null" json:"reviewerId"`
	Reviewer   *Profile  `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Rating     int       `gorm:"not null" json:"rating"`
	Comment    string    `gorm:"size:1024;not null" json:"comment"`
	CreatedAt  time.Time `json:"date"`
}

func (Review) TableName() string { return "account_reviews" }

// Repository 账户仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, a *Account) error
	Update(ctx context.Context, a *Account) error

	CreateReview(ctx context.Context, r *Review) error
	HasReview(ctx context.Context, subjectID, reviewerID int64) (bool, error)
	ListReviews(ctx context.Context, subjectID int64) ([]*Review, error)
}
