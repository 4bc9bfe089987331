package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/buysell/internal/apperr"
	"github.com/example/buysell/internal/auth"
	"github.com/example/buysell/internal/datamodels/listing"
	"github.com/example/buysell/internal/datamodels/order"
	"github.com/example/buysell/internal/repository/gormrepo"
)

const (
	orderNotFound = "order not found"
	codeMin       = 100000
	codeSpan      = 900000 // [100000, 999999]
)

var errCodeMismatch = apperr.Validation("invalid delivery code")

// CheckoutResult 新建订单及其收货码明文，明文只在此返回一次
type CheckoutResult struct {
	Order         *order.Order `json:"order"`
	PlaintextCode string       `json:"plaintextCode"`
}

// OrderService 结算、收货码与确认收货
type OrderService struct {
	store    *gormrepo.Store
	hasher   auth.Hasher
	attempts auth.AttemptGuard
	events   EventPublisher
	monitor  *Monitor
}

func NewOrderService(store *gormrepo.Store, hasher auth.Hasher, attempts auth.AttemptGuard, events EventPublisher, monitor *Monitor) *OrderService {
	return &OrderService{store: store, hasher: hasher, attempts: attempts, events: events, monitor: monitor}
}

// generateCode 均匀生成 6 位数字收货码
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}

func newTransactionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func otpAttemptKey(orderID int64) string {
	return "otp:" + strconv.FormatInt(orderID, 10)
}

func (s *OrderService) publish(ctx context.Context, typ string, o *order.Order) {
	if err := s.events.Publish(ctx, typ, order.NewEvent(typ, o)); err != nil {
		s.monitor.RecordMQError()
		zap.L().Warn("publish order event failed",
			zap.String("type", typ), zap.Int64("order_id", o.ID), zap.Error(err))
	}
}

// reload 带买家、卖家、商品返回；查询失败时退回原对象
func (s *OrderService) reload(ctx context.Context, o *order.Order) *order.Order {
	full, err := s.store.Orders.GetByID(ctx, o.ID)
	if err != nil {
		zap.L().Warn("reload order failed", zap.Int64("order_id", o.ID), zap.Error(err))
		return o
	}
	return full
}

// Checkout 购物车中每个商品生成一个待交付订单并清空购物车，整体在一个事务内完成
func (s *OrderService) Checkout(ctx context.Context, buyerID int64) ([]CheckoutResult, error) {
	var results []CheckoutResult
	err := s.store.Transaction(ctx, func(tx *gormrepo.Store) error {
		items, err := tx.Carts.List(ctx, buyerID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return apperr.Validation("cart is empty")
		}

		results = make([]CheckoutResult, 0, len(items))
		for _, it := range items {
			l := it.Listing
			switch {
			case l == nil:
				return apperr.Validation("item %d is no longer available", it.ListingID)
			case l.Status == listing.StatusSold:
				return apperr.Validation("item %q is already sold", l.Name)
			case l.SellerID == buyerID:
				return apperr.Validation("cannot buy your own item")
			}

			code, err := generateCode()
			if err != nil {
				return apperr.Internal(err)
			}
			hash, err := s.hasher.Hash(code)
			if err != nil {
				return apperr.Internal(err)
			}
			o := &order.Order{
				TransactionID: newTransactionID(),
				BuyerID:       buyerID,
				SellerID:      l.SellerID,
				ListingID:     l.ID,
				Amount:        l.Price,
				OTPHash:       hash,
				Status:        order.StatusPending,
			}
			if err := tx.Orders.Create(ctx, o); err != nil {
				return err
			}
			results = append(results, CheckoutResult{Order: o, PlaintextCode: code})
		}

		_, err = tx.Carts.Clear(ctx, buyerID)
		return err
	})
	if err != nil {
		return nil, txErr(s.monitor, err, "")
	}

	s.monitor.RecordCheckout(len(results))
	for i := range results {
		o := results[i].Order
		zap.L().Info("order checked out",
			zap.Int64("order_id", o.ID),
			zap.String("transaction_id", o.TransactionID),
			zap.Int64("buyer_id", o.BuyerID),
			zap.Int64("seller_id", o.SellerID))
		s.publish(ctx, order.EventCreated, o)
		results[i].Order = s.reload(ctx, o)
	}
	return results, nil
}

// RegenerateCode 买家重新生成待交付订单的收货码，旧码立即失效
func (s *OrderService) RegenerateCode(ctx context.Context, buyerID, orderID int64) (*CheckoutResult, error) {
	code, err := generateCode()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	hash, err := s.hasher.Hash(code)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	var o *order.Order
	err = s.store.Transaction(ctx, func(tx *gormrepo.Store) error {
		locked, err := tx.Orders.GetForUpdate(ctx, orderID, order.Filter{BuyerID: buyerID, Status: order.StatusPending})
		if err != nil {
			return err
		}
		ok, err := tx.Orders.UpdateOTPHash(ctx, locked.ID, hash)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound(orderNotFound)
		}
		o = locked
		return nil
	})
	if err != nil {
		return nil, txErr(s.monitor, err, orderNotFound)
	}

	if err := s.attempts.Reset(ctx, otpAttemptKey(o.ID)); err != nil {
		zap.L().Warn("reset otp attempts", zap.Int64("order_id", o.ID), zap.Error(err))
	}
	zap.L().Info("otp regenerated", zap.Int64("order_id", o.ID), zap.Int64("buyer_id", buyerID))
	return &CheckoutResult{Order: s.reload(ctx, o), PlaintextCode: code}, nil
}

// ConfirmDelivery 卖家凭收货码确认交付：归档、订单完成、商品售出在同一事务内
func (s *OrderService) ConfirmDelivery(ctx context.Context, sellerID, orderID int64, code string) (*order.Order, error) {
	key := otpAttemptKey(orderID)
	if err := s.attempts.Check(ctx, key); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.Validation("otp is required")
	}

	var done *order.Order
	err := s.store.Transaction(ctx, func(tx *gormrepo.Store) error {
		o, err := tx.Orders.GetForUpdate(ctx, orderID, order.Filter{SellerID: sellerID, Status: order.StatusPending})
		if err != nil {
			return err
		}
		if !s.hasher.Verify(code, o.OTPHash) {
			return errCodeMismatch
		}
		l, err := tx.Listings.GetForUpdate(ctx, o.ListingID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Validation("item %d is no longer available", o.ListingID)
		}
		if err != nil {
			return err
		}
		if l.Status == listing.StatusSold {
			return apperr.Validation("item %q is already sold", l.Name)
		}
		if err := tx.Orders.CreateHistory(ctx, o.Archive()); err != nil {
			return err
		}
		ok, err := tx.Orders.MarkCompleted(ctx, o.ID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound(orderNotFound)
		}
		if err := tx.Listings.SetStatus(ctx, o.ListingID, listing.StatusSold); err != nil {
			return err
		}
		done = o
		return nil
	})
	if errors.Is(err, errCodeMismatch) {
		s.monitor.RecordOTPFailure()
		if ferr := s.attempts.Fail(ctx, key); ferr != nil {
			zap.L().Warn("record otp failure", zap.Int64("order_id", orderID), zap.Error(ferr))
		}
		return nil, err
	}
	if err != nil {
		return nil, txErr(s.monitor, err, orderNotFound)
	}

	if err := s.attempts.Reset(ctx, key); err != nil {
		zap.L().Warn("reset otp attempts", zap.Int64("order_id", orderID), zap.Error(err))
	}
	s.monitor.RecordDelivery()
	zap.L().Info("delivery confirmed",
		zap.Int64("order_id", done.ID),
		zap.String("transaction_id", done.TransactionID),
		zap.Int64("seller_id", sellerID))
	done.Status = order.StatusCompleted
	s.publish(ctx, order.EventCompleted, done)
	return s.reload(ctx, done), nil
}

// ListPendingForSeller 卖家待交付订单，最新在前
func (s *OrderService) ListPendingForSeller(ctx context.Context, sellerID int64) ([]*order.Order, error) {
	list, err := s.store.Orders.List(ctx, order.Filter{SellerID: sellerID, Status: order.StatusPending})
	if err != nil {
		return nil, storeErr(s.monitor, err, "")
	}
	return list, nil
}

// ListForBuyer 买家的待交付订单与已完成归档
func (s *OrderService) ListForBuyer(ctx context.Context, buyerID int64) ([]order.View, error) {
	return s.combined(ctx, order.Filter{BuyerID: buyerID, Status: order.StatusPending}, order.Filter{BuyerID: buyerID})
}

// ListForSeller 卖家的全部订单与已完成归档
func (s *OrderService) ListForSeller(ctx context.Context, sellerID int64) ([]order.View, error) {
	return s.combined(ctx, order.Filter{SellerID: sellerID}, order.Filter{SellerID: sellerID})
}

func (s *OrderService) combined(ctx context.Context, orders, history order.Filter) ([]order.View, error) {
	pending, err := s.store.Orders.List(ctx, orders)
	if err != nil {
		return nil, storeErr(s.monitor, err, "")
	}
	archived, err := s.store.Orders.ListHistory(ctx, history)
	if err != nil {
		return nil, storeErr(s.monitor, err, "")
	}
	return order.Merge(pending, archived), nil
}
