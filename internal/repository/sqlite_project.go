package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/domain"
)

// projectColumns is the canonical SELECT column list for projects.
const projectColumns = `id, code, name, description, customer, currency, status,
		start_date, end_date, expected_start, expected_end,
		contract_value, expected_material, expected_labor, expected_equipment, expected_contract,
		material_cost, labor_cost, equipment_cost, total_cost, progress_percent,
		expected_total_cost, total_invoiced, total_paid,
		archived_at, created_at, updated_at`

// SQLiteProjectRepo implements ProjectRepo using a SQLite database.
type SQLiteProjectRepo struct {
	db db.DBTX
}

func NewSQLiteProjectRepo(conn db.DBTX) *SQLiteProjectRepo {
	return &SQLiteProjectRepo{db: conn}
}

func (r *SQLiteProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	query := `INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Code,
		p.Name,
		p.Description,
		p.Customer,
		p.Currency,
		string(p.Status),
		nullableTimeToString(p.StartDate, dateLayout),
		nullableTimeToString(p.EndDate, dateLayout),
		nullableTimeToString(p.ExpectedStart, dateLayout),
		nullableTimeToString(p.ExpectedEnd, dateLayout),
		p.ContractValue,
		p.Expected.Material,
		p.Expected.Labor,
		p.Expected.Equipment,
		p.Expected.ContractValue,
		p.MaterialCost,
		p.LaborCost,
		p.EquipmentCost,
		p.TotalCost,
		p.ProgressPercent,
		p.ExpectedTotalCost,
		p.TotalInvoiced,
		p.TotalPaid,
		nullableTimeToString(p.ArchivedAt, time.RFC3339),
		timestamp(p.CreatedAt),
		timestamp(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

func (r *SQLiteProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	return scanProject(r.db.QueryRowContext(ctx, query, id))
}

// GetByCode looks a project up by its short code, ignoring case.
func (r *SQLiteProjectRepo) GetByCode(ctx context.Context, code string) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE UPPER(code) = UPPER(?)`
	return scanProject(r.db.QueryRowContext(ctx, query, code))
}

func (r *SQLiteProjectRepo) List(ctx context.Context, includeArchived bool) ([]*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE status != 'archived' ORDER BY created_at, code`
	if includeArchived {
		query = `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at, code`
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func (r *SQLiteProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	query := `UPDATE projects SET code = ?, name = ?, description = ?, customer = ?, currency = ?, status = ?,
		start_date = ?, end_date = ?, expected_start = ?, expected_end = ?,
		contract_value = ?, expected_material = ?, expected_labor = ?, expected_equipment = ?, expected_contract = ?,
		archived_at = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		p.Code,
		p.Name,
		p.Description,
		p.Customer,
		p.Currency,
		string(p.Status),
		nullableTimeToString(p.StartDate, dateLayout),
		nullableTimeToString(p.EndDate, dateLayout),
		nullableTimeToString(p.ExpectedStart, dateLayout),
		nullableTimeToString(p.ExpectedEnd, dateLayout),
		p.ContractValue,
		p.Expected.Material,
		p.Expected.Labor,
		p.Expected.Equipment,
		p.Expected.ContractValue,
		nullableTimeToString(p.ArchivedAt, time.RFC3339),
		timestamp(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	return checkAffected(res, "project")
}

func (r *SQLiteProjectRepo) UpdateDerived(ctx context.Context, p *domain.Project) error {
	query := `UPDATE projects SET material_cost = ?, labor_cost = ?, equipment_cost = ?, total_cost = ?,
		progress_percent = ?, expected_total_cost = ?, total_invoiced = ?, total_paid = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		p.MaterialCost,
		p.LaborCost,
		p.EquipmentCost,
		p.TotalCost,
		p.ProgressPercent,
		p.ExpectedTotalCost,
		p.TotalInvoiced,
		p.TotalPaid,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating project costs: %w", err)
	}
	return checkAffected(res, "project")
}

func (r *SQLiteProjectRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	return checkAffected(res, "project")
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	var statusStr, createdAtStr, updatedAtStr string
	var startStr, endStr, expStartStr, expEndStr, archivedAtStr sql.NullString

	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.Description, &p.Customer, &p.Currency, &statusStr,
		&startStr, &endStr, &expStartStr, &expEndStr,
		&p.ContractValue, &p.Expected.Material, &p.Expected.Labor, &p.Expected.Equipment, &p.Expected.ContractValue,
		&p.MaterialCost, &p.LaborCost, &p.EquipmentCost, &p.TotalCost, &p.ProgressPercent,
		&p.ExpectedTotalCost, &p.TotalInvoiced, &p.TotalPaid,
		&archivedAtStr, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, notFound("project", err)
	}

	p.Status = domain.ProjectStatus(statusStr)
	if p.CreatedAt, err = parseTime(createdAtStr, time.RFC3339, "created_at"); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAtStr, time.RFC3339, "updated_at"); err != nil {
		return nil, err
	}
	p.StartDate = parseNullableTime(startStr, dateLayout)
	p.EndDate = parseNullableTime(endStr, dateLayout)
	p.ExpectedStart = parseNullableTime(expStartStr, dateLayout)
	p.ExpectedEnd = parseNullableTime(expEndStr, dateLayout)
	p.ArchivedAt = parseNullableTime(archivedAtStr, time.RFC3339)

	return &p, nil
}
