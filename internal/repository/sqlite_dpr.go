package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/domain"
)

const dprColumns = `id, project_id, report_date, summary, issues, employee_count,
		working_hours, per_day_cost, created_at`

// SQLiteDPRRepo implements DPRRepo using a SQLite database. Material lines
// live in dpr_materials and are loaded with their report.
type SQLiteDPRRepo struct {
	db db.DBTX
}

func NewSQLiteDPRRepo(conn db.DBTX) *SQLiteDPRRepo {
	return &SQLiteDPRRepo{db: conn}
}

func (r *SQLiteDPRRepo) Create(ctx context.Context, d *domain.DPR) error {
	query := `INSERT INTO dprs (` + dprColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.ProjectID,
		d.Date.Format(dateLayout),
		d.Summary,
		d.Issues,
		d.EmployeeCount,
		d.WorkingHours,
		d.PerDayCost,
		timestamp(d.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting DPR: %w", err)
	}
	for i := range d.Materials {
		m := &d.Materials[i]
		m.DPRID = d.ID
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO dpr_materials (id, dpr_id, product, unit, quantity, unit_cost) VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, m.DPRID, m.Product, m.Unit, m.Quantity, m.UnitCost)
		if err != nil {
			return fmt.Errorf("inserting DPR material %q: %w", m.Product, err)
		}
	}
	return nil
}

func (r *SQLiteDPRRepo) GetByID(ctx context.Context, id string) (*domain.DPR, error) {
	query := `SELECT ` + dprColumns + ` FROM dprs WHERE id = ?`
	d, err := scanDPR(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	byReport, err := r.materials(ctx, `WHERE dpr_id = ?`, id)
	if err != nil {
		return nil, err
	}
	d.Materials = byReport[d.ID]
	return d, nil
}

func (r *SQLiteDPRRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.DPR, error) {
	query := `SELECT ` + dprColumns + ` FROM dprs WHERE project_id = ? ORDER BY report_date, created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing DPRs: %w", err)
	}
	var reports []*domain.DPR
	for rows.Next() {
		d, err := scanDPR(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		reports = append(reports, d)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating DPRs: %w", err)
	}
	rows.Close()

	byReport, err := r.materials(ctx,
		`WHERE dpr_id IN (SELECT id FROM dprs WHERE project_id = ?)`, projectID)
	if err != nil {
		return nil, err
	}
	for _, d := range reports {
		d.Materials = byReport[d.ID]
	}
	return reports, nil
}

func (r *SQLiteDPRRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dprs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting DPR: %w", err)
	}
	return checkAffected(res, "DPR")
}

func (r *SQLiteDPRRepo) materials(ctx context.Context, where string, arg any) (map[string][]domain.DPRMaterial, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, dpr_id, product, unit, quantity, unit_cost FROM dpr_materials `+where+` ORDER BY rowid`, arg)
	if err != nil {
		return nil, fmt.Errorf("listing DPR materials: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.DPRMaterial)
	for rows.Next() {
		var m domain.DPRMaterial
		if err := rows.Scan(&m.ID, &m.DPRID, &m.Product, &m.Unit, &m.Quantity, &m.UnitCost); err != nil {
			return nil, fmt.Errorf("scanning DPR material: %w", err)
		}
		out[m.DPRID] = append(out[m.DPRID], m)
	}
	return out, rows.Err()
}

func scanDPR(row rowScanner) (*domain.DPR, error) {
	var d domain.DPR
	var dateStr, createdAtStr string
	err := row.Scan(
		&d.ID, &d.ProjectID, &dateStr, &d.Summary, &d.Issues, &d.EmployeeCount,
		&d.WorkingHours, &d.PerDayCost, &createdAtStr,
	)
	if err != nil {
		return nil, notFound("DPR", err)
	}
	if d.Date, err = parseTime(dateStr, dateLayout, "report_date"); err != nil {
		return nil, err
	}
	if d.CreatedAt, err = parseTime(createdAtStr, time.RFC3339, "created_at"); err != nil {
		return nil, err
	}
	return &d, nil
}
