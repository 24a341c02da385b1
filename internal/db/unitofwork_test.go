package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openUoW(t *testing.T) (*sql.DB, *db.SQLiteUnitOfWork) {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database, db.NewSQLiteUnitOfWork(database)
}

func insertProject(ctx context.Context, tx db.DBTX, id, code string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO projects (id, code, name, created_at, updated_at)
		VALUES (?, ?, 'Tower', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`, id, code)
	return err
}

func insertBOQ(ctx context.Context, tx db.DBTX, id, projectID string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO boq_items (id, project_id, name, created_at, updated_at)
		VALUES (?, ?, 'Concrete', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`, id, projectID)
	return err
}

func count(t *testing.T, database *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func TestWithinTx_CommitOnSuccess(t *testing.T) {
	database, uow := openUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insertProject(ctx, tx, "p1", "TWR01"); err != nil {
			return err
		}
		return insertBOQ(ctx, tx, "b1", "p1")
	})
	require.NoError(t, err)

	assert.Equal(t, 1, count(t, database, "projects"))
	assert.Equal(t, 1, count(t, database, "boq_items"))
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	database, uow := openUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insertProject(ctx, tx, "p1", "TWR01"); err != nil {
			return err
		}
		return errors.New("deliberate failure")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deliberate failure")
	assert.Zero(t, count(t, database, "projects"), "row should not exist after rollback")
}

func TestWithinTx_RollbackSpansTables(t *testing.T) {
	database, uow := openUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insertProject(ctx, tx, "p1", "TWR01"); err != nil {
			return err
		}
		if err := insertBOQ(ctx, tx, "b1", "p1"); err != nil {
			return err
		}
		// Unknown project violates the foreign key.
		return insertBOQ(ctx, tx, "b2", "missing")
	})
	require.Error(t, err)
	assert.Zero(t, count(t, database, "projects"))
	assert.Zero(t, count(t, database, "boq_items"))
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	database, uow := openUoW(t)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = insertProject(ctx, tx, "p1", "TWR01")
			panic("boom")
		})
	})

	assert.Zero(t, count(t, database, "projects"), "row should not exist after panic rollback")
}

func TestWithinReadTx_DiscardsWrites(t *testing.T) {
	database, uow := openUoW(t)

	var seen int
	err := uow.WithinReadTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insertProject(ctx, tx, "p1", "TWR01"); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&seen)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, seen, "reads inside the tx see its own writes")
	assert.Zero(t, count(t, database, "projects"))
}
