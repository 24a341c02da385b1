package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/domain"
)

// boqColumns is the canonical SELECT column list for boq_items.
const boqColumns = `id, project_id, parent_id, seq, code, name, unit, quantity, unit_price,
		total_price, labor_hours, labor_cost, order_index, created_at, updated_at`

// SQLiteBOQRepo implements BOQRepo using a SQLite database.
type SQLiteBOQRepo struct {
	db db.DBTX
}

func NewSQLiteBOQRepo(conn db.DBTX) *SQLiteBOQRepo {
	return &SQLiteBOQRepo{db: conn}
}

func (r *SQLiteBOQRepo) Create(ctx context.Context, b *domain.BOQItem) error {
	query := `INSERT INTO boq_items (` + boqColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		b.ID,
		b.ProjectID,
		nullableString(b.ParentID),
		b.Seq,
		b.Code,
		b.Name,
		b.Unit,
		b.Quantity,
		b.UnitPrice,
		b.TotalPrice,
		b.LaborHours,
		b.LaborCost,
		b.OrderIndex,
		timestamp(b.CreatedAt),
		timestamp(b.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting BOQ item: %w", err)
	}
	return nil
}

func (r *SQLiteBOQRepo) GetByID(ctx context.Context, id string) (*domain.BOQItem, error) {
	query := `SELECT ` + boqColumns + ` FROM boq_items WHERE id = ?`
	return scanBOQItem(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteBOQRepo) GetBySeq(ctx context.Context, projectID string, seq int) (*domain.BOQItem, error) {
	query := `SELECT ` + boqColumns + ` FROM boq_items WHERE project_id = ? AND seq = ?`
	return scanBOQItem(r.db.QueryRowContext(ctx, query, projectID, seq))
}

// ListByProject returns every item of a project, siblings in display order.
func (r *SQLiteBOQRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.BOQItem, error) {
	query := `SELECT ` + boqColumns + ` FROM boq_items WHERE project_id = ? ORDER BY order_index, seq, created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing BOQ items: %w", err)
	}
	defer rows.Close()

	var items []*domain.BOQItem
	for rows.Next() {
		b, err := scanBOQItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating BOQ items: %w", err)
	}
	return items, nil
}

func (r *SQLiteBOQRepo) Update(ctx context.Context, b *domain.BOQItem) error {
	query := `UPDATE boq_items SET parent_id = ?, code = ?, name = ?, unit = ?, quantity = ?, unit_price = ?,
		total_price = ?, labor_hours = ?, labor_cost = ?, order_index = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableString(b.ParentID),
		b.Code,
		b.Name,
		b.Unit,
		b.Quantity,
		b.UnitPrice,
		b.TotalPrice,
		b.LaborHours,
		b.LaborCost,
		b.OrderIndex,
		timestamp(b.UpdatedAt),
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("updating BOQ item: %w", err)
	}
	return checkAffected(res, "BOQ item")
}

func (r *SQLiteBOQRepo) SetTotalPrice(ctx context.Context, id string, total float64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE boq_items SET total_price = ? WHERE id = ?`, total, id)
	if err != nil {
		return fmt.Errorf("updating BOQ total: %w", err)
	}
	return checkAffected(res, "BOQ item")
}

// Delete removes the item; descendants go with it through the parent_id
// cascade.
func (r *SQLiteBOQRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM boq_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting BOQ item: %w", err)
	}
	return checkAffected(res, "BOQ item")
}

func scanBOQItem(row rowScanner) (*domain.BOQItem, error) {
	var b domain.BOQItem
	var parentID sql.NullString
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&b.ID, &b.ProjectID, &parentID, &b.Seq, &b.Code, &b.Name, &b.Unit,
		&b.Quantity, &b.UnitPrice, &b.TotalPrice, &b.LaborHours, &b.LaborCost,
		&b.OrderIndex, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, notFound("BOQ item", err)
	}
	b.ParentID = stringPtr(parentID)
	if b.CreatedAt, err = parseTime(createdAtStr, time.RFC3339, "created_at"); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAtStr, time.RFC3339, "updated_at"); err != nil {
		return nil, err
	}
	return &b, nil
}
