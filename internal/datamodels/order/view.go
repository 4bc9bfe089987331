package order

import (
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/example/buysell/internal/datamodels/account"
	"github.com/example/buysell/internal/datamodels/listing"
)

// View 买家/卖家订单列表中的一项，来源可能是待交付订单或归档记录
type View struct {
	ID            int64            `json:"id"`
	TransactionID string           `json:"transactionId"`
	Buyer         *account.Profile `json:"buyer,omitempty"`
	Seller        *account.Profile `json:"seller,omitempty"`
	Item          *listing.Listing `json:"item,omitempty"`
	Amount        decimal.Decimal  `json:"amount"`
	Status        Status           `json:"status"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func ViewOf(o *Order) View {
	return View{
		ID:            o.ID,
		TransactionID: o.TransactionID,
		Buyer:         o.Buyer,
		Seller:        o.Seller,
		Item:          o.Listing,
		Amount:        o.Amount,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// ViewOfHistory 归档记录的 CreatedAt 取原订单下单时间，UpdatedAt 为完成时间
func ViewOfHistory(h *HistoryRecord) View {
	return View{
		ID:            h.OrderID,
		TransactionID: h.TransactionID,
		Buyer:         h.Buyer,
		Seller:        h.Seller,
		Item:          h.Listing,
		Amount:        h.Amount,
		Status:        h.Status,
		CreatedAt:     h.PlacedAt,
		UpdatedAt:     h.CreatedAt,
	}
}

// Merge 合并订单与归档，按交易号去重（归档优先），按下单时间倒序
func Merge(orders []*Order, history []*HistoryRecord) []View {
	all := make([]View, 0, len(orders)+len(history))
	for _, h := range history {
		all = append(all, ViewOfHistory(h))
	}
	for _, o := range orders {
		all = append(all, ViewOf(o))
	}
	out := lo.UniqBy(all, func(v View) string { return v.TransactionID })
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
