package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillSeq(db); err != nil {
		return fmt.Errorf("backfilling seq values: %w", err)
	}
	if err := migrateBackfillProjectSequences(db); err != nil {
		return fmt.Errorf("backfilling project sequence allocator state: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id                  TEXT PRIMARY KEY,
		code                TEXT NOT NULL,
		name                TEXT NOT NULL,
		description         TEXT NOT NULL DEFAULT '',
		customer            TEXT NOT NULL DEFAULT '',
		currency            TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL DEFAULT 'draft'
		                    CHECK(status IN ('draft','active','completed','cancelled','archived')),
		start_date          TEXT,
		end_date            TEXT,
		expected_start      TEXT,
		expected_end        TEXT,
		contract_value      REAL NOT NULL DEFAULT 0,
		expected_material   REAL NOT NULL DEFAULT 0,
		expected_labor      REAL NOT NULL DEFAULT 0,
		expected_equipment  REAL NOT NULL DEFAULT 0,
		expected_contract   REAL NOT NULL DEFAULT 0,
		material_cost       REAL NOT NULL DEFAULT 0,
		labor_cost          REAL NOT NULL DEFAULT 0,
		equipment_cost      REAL NOT NULL DEFAULT 0,
		total_cost          REAL NOT NULL DEFAULT 0,
		progress_percent    REAL NOT NULL DEFAULT 0,
		expected_total_cost REAL NOT NULL DEFAULT 0,
		total_invoiced      REAL NOT NULL DEFAULT 0,
		total_paid          REAL NOT NULL DEFAULT 0,
		archived_at         TEXT,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_code ON projects(code)`,

	`CREATE TABLE IF NOT EXISTS project_sequences (
		project_id TEXT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
		next_seq   INTEGER NOT NULL CHECK(next_seq > 0)
	)`,

	`CREATE TABLE IF NOT EXISTS boq_items (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		parent_id   TEXT REFERENCES boq_items(id) ON DELETE CASCADE,
		code        TEXT NOT NULL DEFAULT '',
		name        TEXT NOT NULL,
		unit        TEXT NOT NULL DEFAULT '',
		quantity    REAL NOT NULL DEFAULT 0,
		unit_price  REAL NOT NULL DEFAULT 0,
		total_price REAL NOT NULL DEFAULT 0,
		labor_hours REAL NOT NULL DEFAULT 0,
		labor_cost  REAL NOT NULL DEFAULT 0,
		order_index INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_boq_items_project ON boq_items(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_boq_items_parent ON boq_items(parent_id)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id               TEXT PRIMARY KEY,
		project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		parent_id        TEXT REFERENCES tasks(id) ON DELETE CASCADE,
		name             TEXT NOT NULL,
		start_date       TEXT,
		end_date         TEXT,
		leaf_progress    REAL NOT NULL DEFAULT 0
		                 CHECK(leaf_progress >= 0 AND leaf_progress <= 100),
		progress_percent REAL NOT NULL DEFAULT 0,
		status           TEXT NOT NULL DEFAULT 'not_started'
		                 CHECK(status IN ('not_started','in_progress','completed')),
		assigned_to      TEXT NOT NULL DEFAULT '',
		description      TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id)`,

	`CREATE TABLE IF NOT EXISTS dprs (
		id             TEXT PRIMARY KEY,
		project_id     TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		report_date    TEXT NOT NULL,
		summary        TEXT NOT NULL DEFAULT '',
		issues         TEXT NOT NULL DEFAULT '',
		employee_count INTEGER NOT NULL DEFAULT 0 CHECK(employee_count >= 0),
		working_hours  REAL NOT NULL DEFAULT 8,
		per_day_cost   REAL NOT NULL DEFAULT 0,
		created_at     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_dprs_project ON dprs(project_id)`,

	`CREATE TABLE IF NOT EXISTS dpr_materials (
		id        TEXT PRIMARY KEY,
		dpr_id    TEXT NOT NULL REFERENCES dprs(id) ON DELETE CASCADE,
		product   TEXT NOT NULL,
		unit      TEXT NOT NULL DEFAULT '',
		quantity  REAL NOT NULL DEFAULT 0,
		unit_cost REAL NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_dpr_materials_dpr ON dpr_materials(dpr_id)`,

	`CREATE TABLE IF NOT EXISTS equipment_allocations (
		id                 TEXT PRIMARY KEY,
		project_id         TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		task_id            TEXT REFERENCES tasks(id) ON DELETE SET NULL,
		reference          TEXT NOT NULL DEFAULT '',
		equipment          TEXT NOT NULL,
		category           TEXT NOT NULL DEFAULT 'owned'
		                   CHECK(category IN ('owned','contractual')),
		allocation_date    TEXT NOT NULL,
		return_date        TEXT,
		actual_return_date TEXT,
		hourly_rate        REAL NOT NULL DEFAULT 0,
		total_hours        REAL NOT NULL DEFAULT 0,
		state              TEXT NOT NULL DEFAULT 'draft'
		                   CHECK(state IN ('draft','allocated','in_use','returned','cancelled')),
		notes              TEXT NOT NULL DEFAULT '',
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_equipment_project ON equipment_allocations(project_id)`,

	`CREATE TABLE IF NOT EXISTS purchase_orders (
		id           TEXT PRIMARY KEY,
		project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		boq_item_id  TEXT REFERENCES boq_items(id) ON DELETE SET NULL,
		reference    TEXT NOT NULL DEFAULT '',
		supplier     TEXT NOT NULL DEFAULT '',
		amount_total REAL NOT NULL DEFAULT 0,
		state        TEXT NOT NULL DEFAULT 'draft'
		             CHECK(state IN ('draft','purchase','done','cancel')),
		order_date   TEXT NOT NULL,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_purchase_orders_project ON purchase_orders(project_id)`,

	`CREATE TABLE IF NOT EXISTS invoices (
		id                 TEXT PRIMARY KEY,
		project_id         TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		reference          TEXT NOT NULL DEFAULT '',
		amount             REAL NOT NULL DEFAULT 0,
		state              TEXT NOT NULL DEFAULT 'draft'
		                   CHECK(state IN ('draft','posted','cancel')),
		progress_billing   INTEGER NOT NULL DEFAULT 0,
		billing_percentage REAL NOT NULL DEFAULT 0,
		invoice_date       TEXT NOT NULL,
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_project ON invoices(project_id)`,

	`CREATE TABLE IF NOT EXISTS payments (
		id           TEXT PRIMARY KEY,
		project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		reference    TEXT NOT NULL DEFAULT '',
		amount       REAL NOT NULL DEFAULT 0,
		kind         TEXT NOT NULL DEFAULT 'progress'
		             CHECK(kind IN ('advance','progress','retention','final')),
		state        TEXT NOT NULL DEFAULT 'draft'
		             CHECK(state IN ('draft','posted','cancel')),
		payment_date TEXT NOT NULL,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_project ON payments(project_id)`,

	`CREATE TABLE IF NOT EXISTS quotations (
		id             TEXT PRIMARY KEY,
		reference      TEXT NOT NULL,
		customer       TEXT NOT NULL,
		currency       TEXT NOT NULL DEFAULT '',
		quote_date     TEXT NOT NULL,
		valid_until    TEXT,
		transport_cost REAL NOT NULL DEFAULT 0,
		margin_percent REAL NOT NULL DEFAULT 15,
		vat_percent    REAL NOT NULL DEFAULT 18,
		contract_value REAL NOT NULL DEFAULT 0,
		notes          TEXT NOT NULL DEFAULT '',
		state          TEXT NOT NULL DEFAULT 'draft'
		               CHECK(state IN ('draft','sent','approved','rejected','converted')),
		project_id     TEXT REFERENCES projects(id) ON DELETE SET NULL,
		total_amount   REAL NOT NULL DEFAULT 0,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_quotations_reference ON quotations(reference)`,

	`CREATE TABLE IF NOT EXISTS quotation_lines (
		id                 TEXT PRIMARY KEY,
		quotation_id       TEXT NOT NULL REFERENCES quotations(id) ON DELETE CASCADE,
		sequence           INTEGER NOT NULL DEFAULT 0,
		work_type          TEXT NOT NULL,
		description        TEXT NOT NULL DEFAULT '',
		surface_area       REAL NOT NULL DEFAULT 0,
		quantity           REAL NOT NULL DEFAULT 0,
		unit               TEXT NOT NULL DEFAULT '',
		waste_percent      REAL NOT NULL DEFAULT 0,
		material_unit_cost REAL NOT NULL DEFAULT 0,
		labor_days         REAL NOT NULL DEFAULT 0,
		labor_rate_per_day REAL NOT NULL DEFAULT 0,
		equipment_cost     REAL NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quotation_lines_quotation ON quotation_lines(quotation_id)`,

	// Project-scoped sequential numbers for BOQ items and tasks
	`ALTER TABLE boq_items ADD COLUMN seq INTEGER NOT NULL DEFAULT 0`,
	`ALTER TABLE tasks ADD COLUMN seq INTEGER NOT NULL DEFAULT 0`,
	`CREATE INDEX IF NOT EXISTS idx_boq_items_project_seq ON boq_items(project_id, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project_seq ON tasks(project_id, seq)`,
}

// migrateBackfillSeq numbers rows created before the seq columns existed.
// BOQ items come first, then tasks, each in creation order.
func migrateBackfillSeq(db *sql.DB) error {
	ctx := context.Background()

	var pending int
	if err := db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM boq_items WHERE seq = 0) + (SELECT COUNT(*) FROM tasks WHERE seq = 0)`,
	).Scan(&pending); err != nil {
		return fmt.Errorf("counting unnumbered rows: %w", err)
	}
	if pending == 0 {
		return nil
	}

	rows, err := db.QueryContext(ctx, `SELECT id FROM projects ORDER BY created_at`)
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}
	var projectIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		projectIDs = append(projectIDs, id)
	}
	rows.Close()

	for _, pid := range projectIDs {
		var top int
		if err := db.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(s), 0) FROM (
				SELECT seq AS s FROM boq_items WHERE project_id = ?
				UNION ALL
				SELECT seq AS s FROM tasks WHERE project_id = ?
			)`, pid, pid).Scan(&top); err != nil {
			return fmt.Errorf("reading max seq: %w", err)
		}
		seq := top + 1
		for _, table := range []string{"boq_items", "tasks"} {
			ids, err := unnumbered(ctx, db, table, pid)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if _, err := db.ExecContext(ctx,
					`UPDATE `+table+` SET seq = ? WHERE id = ? AND seq = 0`, seq, id); err != nil {
					return fmt.Errorf("updating %s seq: %w", table, err)
				}
				seq++
			}
		}
	}
	return nil
}

func unnumbered(ctx context.Context, db *sql.DB, table, projectID string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id FROM `+table+` WHERE project_id = ? AND seq = 0 ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing unnumbered %s: %w", table, err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func migrateBackfillProjectSequences(db *sql.DB) error {
	ctx := context.Background()

	// Populate (or raise) next_seq for every known project using the current
	// max assigned seq across BOQ items and tasks.
	query := `INSERT INTO project_sequences (project_id, next_seq)
		SELECT p.id, COALESCE(MAX(seq_val), 0) + 1
		FROM projects p
		LEFT JOIN (
			SELECT project_id, seq AS seq_val FROM boq_items WHERE seq > 0
			UNION ALL
			SELECT project_id, seq AS seq_val FROM tasks WHERE seq > 0
		) s ON s.project_id = p.id
		GROUP BY p.id
		ON CONFLICT(project_id) DO UPDATE
		SET next_seq = MAX(project_sequences.next_seq, excluded.next_seq)`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("upserting project sequence rows: %w", err)
	}

	return nil
}
