package listing

import (
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/example/buysell/internal/apperr"
)

// ParseCategory 校验分类，兼容旧值 "others"
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if c == "others" {
		c = CategoryOther
	}
	if !lo.Contains(Categories, c) {
		return "", apperr.Validation("unknown category %q", raw)
	}
	return c, nil
}

// ParseCategories 解析逗号分隔的分类列表，空串表示不过滤
func ParseCategories(raw string) ([]Category, error) {
	parts := lo.Filter(strings.Split(raw, ","), func(s string, _ int) bool {
		return strings.TrimSpace(s) != ""
	})
	out := make([]Category, 0, len(parts))
	for _, p := range parts {
		c, err := ParseCategory(p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return lo.Uniq(out), nil
}

// ParseStatus 校验商品状态
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusAvailable, StatusSold:
		return s, nil
	}
	return "", apperr.Validation("unknown status %q", raw)
}

// CreateInput 发布商品请求
type CreateInput struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

// New 校验请求并生成待保存的商品，卖家为当前用户
func New(sellerID int64, in CreateInput) (*Listing, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, apperr.Validation("description is required")
	}
	cat, err := ParseCategory(in.Category)
	if err != nil {
		return nil, err
	}
	return &Listing{
		Name:        name,
		Price:       in.Price,
		Description: desc,
		Category:    cat,
		SellerID:    sellerID,
		Status:      StatusAvailable,
	}, nil
}

// Patch 商品部分更新，只允许以下字段
type Patch struct {
	Name        *string          `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Status      *string          `json:"status"`
}

// Apply 逐字段校验后合并；任一字段非法时 l 不被修改
func (p *Patch) Apply(l *Listing) error {
	next := *l
	if p.Name != nil {
		next.Name = strings.TrimSpace(*p.Name)
		if next.Name == "" {
			return apperr.Validation("name must not be empty")
		}
	}
	if p.Price != nil {
		if err := validatePrice(*p.Price); err != nil {
			return err
		}
		next.Price = *p.Price
	}
	if p.Description != nil {
		next.Description = strings.TrimSpace(*p.Description)
		if next.Description == "" {
			return apperr.Validation("description must not be empty")
		}
	}
	if p.Category != nil {
		c, err := ParseCategory(*p.Category)
		if err != nil {
			return err
		}
		next.Category = c
	}
	if p.Status != nil {
		s, err := ParseStatus(*p.Status)
		if err != nil {
			return err
		}
		next.Status = s
	}
	*l = next
	return nil
}

// ReviewInput 商品评价请求
type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Validate 评分 1~5，评论必填
func (in ReviewInput) Validate() error {
	if in.Rating < 1 || in.Rating > 5 {
		return apperr.Validation("rating must be between 1 and 5")
	}
	if strings.TrimSpace(in.Comment) == "" {
		return apperr.Validation("comment is required")
	}
	return nil
}

func validatePrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return apperr.Validation("price must not be negative")
	}
	if p.Exponent() < -2 && !p.Equal(p.Round(2)) {
		return apperr.Validation("price supports at most two decimal places")
	}
	return nil
}
