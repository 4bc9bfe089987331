package service

import (
	"context"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/buysell/internal/apperr"
	"github.com/example/buysell/internal/auth"
	"github.com/example/buysell/internal/config"
	"github.com/example/buysell/internal/datamodels/account"
	"github.com/example/buysell/internal/datamodels/listing"
	"github.com/example/buysell/internal/infra/database"
	"github.com/example/buysell/internal/repository/gormrepo"
)

type memAttempts struct {
	mu  sync.Mutex
	max int
	n   map[string]int
}

func newMemAttempts(max int) *memAttempts {
	return &memAttempts{max: max, n: map[string]int{}}
}

func (g *memAttempts) Check(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.max > 0 && g.n[key] >= g.max {
		return apperr.TooManyAttempts("too many failed attempts")
	}
	return nil
}

func (g *memAttempts) Fail(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n[key]++
	return nil
}

func (g *memAttempts) Reset(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.n, key)
	return nil
}

type published struct {
	key   string
	value any
}

type memPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *memPublisher) Publish(_ context.Context, routingKey string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{key: routingKey, value: v})
	return nil
}

func (p *memPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.key)
	}
	return out
}

type fixedCaptcha bool

func (c fixedCaptcha) Verify(context.Context, string) (bool, error) { return bool(c), nil }

type testEnv struct {
	store     *gormrepo.Store
	hasher    auth.Hasher
	gate      *auth.Gate
	monitor   *Monitor
	attempts  *memAttempts
	publisher *memPublisher
	accounts  *AccountService
	listings  *ListingService
	carts     *CartService
	orders    *OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "svc.db")})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	e := &testEnv{
		store:     gormrepo.NewStore(db),
		hasher:    auth.NewBcryptHasher(bcrypt.MinCost),
		gate:      auth.NewGate(&config.JWTConfig{Secret: "test-secret", TTL: time.Hour}, nil),
		monitor:   NewMonitor(),
		attempts:  newMemAttempts(3),
		publisher: &memPublisher{},
	}
	pattern := regexp.MustCompile(config.DefaultConfig().Account.EmailPattern)
	e.accounts = NewAccountService(e.store, e.hasher, e.gate, fixedCaptcha(true), e.attempts, e.monitor, pattern, "iiit.ac.in")
	e.listings = NewListingService(e.store, e.monitor)
	e.carts = NewCartService(e.store, e.monitor)
	e.orders = NewOrderService(e.store, e.hasher, e.attempts, e.publisher, e.monitor)
	return e
}

func (e *testEnv) account(t *testing.T, email string) *account.Account {
	t.Helper()
	hash, err := e.hasher.Hash("secret123")
	require.NoError(t, err)
	a := &account.Account{FirstName: "F", LastName: "L", Email: email, Age: 21, ContactNumber: "9", PasswordHash: hash}
	require.NoError(t, e.store.Accounts.Create(context.Background(), a))
	return a
}

func (e *testEnv) listing(t *testing.T, sellerID int64, name string, price string) *listing.Listing {
	t.Helper()
	l, err := e.listings.Create(context.Background(), sellerID, listing.CreateInput{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Description: "desc",
		Category:    "books",
	})
	require.NoError(t, err)
	return l
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperr.KindOf(err), "error: %v", err)
}
