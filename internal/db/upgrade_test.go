package db

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMigrate_UpgradePath_BackfillsSeq simulates a database created before
// BOQ items and tasks carried project-scoped numbers. Existing rows must keep
// their data, receive seq values in creation order, and leave the allocator
// positioned after the highest one.
func TestMigrate_UpgradePath_BackfillsSeq(t *testing.T) {
	db, err := sql.Open("sqlite", MemoryPath)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`PRAGMA foreign_keys = ON`)
	require.NoError(t, err)

	for i, stmt := range migrations {
		if strings.Contains(stmt, "seq INTEGER") || strings.Contains(stmt, "_seq ON") {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err, "legacy statement %d failed", i)
	}

	legacy := []string{
		`INSERT INTO projects (id, code, name, status, created_at, updated_at)
			VALUES ('p1', 'LEG01', 'Legacy', 'active', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`,
		`INSERT INTO boq_items (id, project_id, name, quantity, unit_price, total_price, created_at, updated_at)
			VALUES ('b1', 'p1', 'Concrete', 10, 10, 100, '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`,
		`INSERT INTO boq_items (id, project_id, name, quantity, unit_price, total_price, created_at, updated_at)
			VALUES ('b2', 'p1', 'Steel', 5, 50, 250, '2025-01-02T00:00:00Z', '2025-01-02T00:00:00Z')`,
		`INSERT INTO tasks (id, project_id, name, leaf_progress, progress_percent, created_at, updated_at)
			VALUES ('t1', 'p1', 'Pour', 80, 80, '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`,
	}
	for _, stmt := range legacy {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	require.NoError(t, Migrate(db), "migration on legacy schema should succeed")

	var total float64
	require.NoError(t, db.QueryRow(`SELECT total_price FROM boq_items WHERE id = 'b2'`).Scan(&total))
	assert.Equal(t, 250.0, total, "BOQ data should survive migration")

	seqOf := func(table, id string) int {
		var seq int
		require.NoError(t, db.QueryRow(`SELECT seq FROM `+table+` WHERE id = ?`, id).Scan(&seq))
		return seq
	}
	assert.Equal(t, 1, seqOf("boq_items", "b1"))
	assert.Equal(t, 2, seqOf("boq_items", "b2"))
	assert.Equal(t, 3, seqOf("tasks", "t1"))

	var next int
	require.NoError(t, db.QueryRow(`SELECT next_seq FROM project_sequences WHERE project_id = 'p1'`).Scan(&next))
	assert.Equal(t, 4, next)

	// Re-running keeps numbers stable.
	require.NoError(t, Migrate(db))
	assert.Equal(t, 3, seqOf("tasks", "t1"))
}
