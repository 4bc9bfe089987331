package database

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/example/buysell/internal/config"
	"github.com/example/buysell/internal/datamodels/account"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	db, err := Open(&config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "buysell.db")})
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Migrate(db))
	// 重复迁移是幂等的
	require.NoError(t, Migrate(db))

	for _, table := range []string{"accounts", "account_reviews", "listings", "listing_reviews", "cart_items", "orders", "order_history"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestQueryLogsGoThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	db, err := Open(&config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "log.db")})
	require.NoError(t, err)
	defer Close(db)
	require.NoError(t, Migrate(db))
	logs.TakeAll()

	var a account.Account
	err = db.Where("email = ?", "nobody@iiit.ac.in").First(&a).Error
	require.Error(t, err)
	assert.Zero(t, logs.Len())

	require.Error(t, db.Exec("SELECT * FROM missing_table WHERE email = ?", "leak@iiit.ac.in").Error)
	entries := logs.TakeAll()
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.Equal(t, zapcore.WarnLevel, e.Level)
		assert.False(t, strings.Contains(e.Message, "leak@iiit.ac.in"), e.Message)
	}
}
