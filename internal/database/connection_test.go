package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/config"
)

func TestOpenSQLiteMigratesModels(t *testing.T) {
	cfg := &config.DatabaseConfig{URL: "sqlite:///" + filepath.Join(t.TempDir(), "test.db")}

	conn, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(conn) })

	for _, table := range []string{"contacts", "conversations", "messages", "feedback", "analytics_events"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
	assert.True(t, conn.Migrator().HasIndex("conversations", "idx_conversations_session_id"))

	require.NoError(t, HealthCheck(conn))
	stats, err := GetStats(conn)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
}
