package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// 订单事件路由键
const (
	EventCreated   = "order.created"
	EventCompleted = "order.completed"
)

// Event 订单状态变更事件，事务提交后发布到 MQ
type Event struct {
	Type          string          `json:"type"`
	OrderID       int64           `json:"order_id"`
	TransactionID string          `json:"transaction_id"`
	BuyerID       int64           `json:"buyer_id"`
	SellerID      int64           `json:"seller_id"`
	ListingID     int64           `json:"listing_id"`
	Amount        decimal.Decimal `json:"amount"`
	At            time.Time       `json:"at"`
}

func NewEvent(typ string, o *Order) *Event {
	return &Event{
		Type:          typ,
		OrderID:       o.ID,
		TransactionID: o.TransactionID,
		BuyerID:       o.BuyerID,
		SellerID:      o.SellerID,
		ListingID:     o.ListingID,
		Amount:        o.Amount,
		At:            time.Now(),
	}
}
