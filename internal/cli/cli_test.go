package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandWiring(t *testing.T) {
	cmd := NewRootCommand()
	names := []string{}
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "worker", "migrate"}, names)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestMigrateCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cli.db")
	cfgPath := filepath.Join(dir, "buysell.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("jwt:\n  secret: cli-secret\ndatabase:\n  driver: sqlite\n  dsn: "+dbPath+"\n"), 0o600))

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"migrate", "--config", cfgPath})
	require.NoError(t, cmd.Execute())

	rt, err := bootstrap(&RootOptions{ConfigPath: cfgPath})
	require.NoError(t, err)
	defer rt.Close()
	for _, table := range []string{"accounts", "listings", "cart_items", "orders", "order_history", "listing_reviews", "account_reviews"} {
		assert.True(t, rt.db.Migrator().HasTable(table), table)
	}
}
