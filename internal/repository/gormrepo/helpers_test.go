package gormrepo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/example/buysell/internal/config"
	"github.com/example/buysell/internal/datamodels/account"
	"github.com/example/buysell/internal/datamodels/listing"
	"github.com/example/buysell/internal/infra/database"
)

// newTestStore 每个测试独立的 sqlite 数据库
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return NewStore(db)
}

func seedAccount(t *testing.T, s *Store, email string) *account.Account {
	t.Helper()
	a := &account.Account{FirstName: "F-" + email, LastName: "L", Email: email, Age: 20, ContactNumber: "1", PasswordHash: "x"}
	require.NoError(t, s.Accounts.Create(context.Background(), a))
	return a
}

func seedListing(t *testing.T, s *Store, sellerID int64, name string, cat listing.Category, price int64) *listing.Listing {
	t.Helper()
	l := &listing.Listing{Name: name, Price: decimal.NewFromInt(price), Description: "d", Category: cat, SellerID: sellerID, Status: listing.StatusAvailable}
	require.NoError(t, s.Listings.Create(context.Background(), l))
	return l
}
