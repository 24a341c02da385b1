package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/domain"
)

const quotationColumns = `id, reference, customer, currency, quote_date, valid_until,
		transport_cost, margin_percent, vat_percent, contract_value, notes, state,
		project_id, total_amount, created_at, updated_at`

const quotationLineColumns = `id, quotation_id, sequence, work_type, description, surface_area,
		quantity, unit, waste_percent, material_unit_cost, labor_days, labor_rate_per_day, equipment_cost`

// SQLiteQuotationRepo implements QuotationRepo using a SQLite database.
// Lines are stored in quotation_lines and replaced wholesale on update.
type SQLiteQuotationRepo struct {
	db db.DBTX
}

func NewSQLiteQuotationRepo(conn db.DBTX) *SQLiteQuotationRepo {
	return &SQLiteQuotationRepo{db: conn}
}

func (r *SQLiteQuotationRepo) Create(ctx context.Context, q *domain.Quotation) error {
	query := `INSERT INTO quotations (` + quotationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		q.ID, q.Reference, q.Customer, q.Currency, q.Date.Format(dateLayout),
		nullableTimeToString(q.ValidUntil, dateLayout),
		q.TransportCost, q.MarginPercent, q.VATPercent, q.ContractValue, q.Notes, string(q.State),
		nullableString(q.ProjectID), q.TotalAmount, timestamp(q.CreatedAt), timestamp(q.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting quotation: %w", err)
	}
	return r.insertLines(ctx, q)
}

func (r *SQLiteQuotationRepo) GetByID(ctx context.Context, id string) (*domain.Quotation, error) {
	query := `SELECT ` + quotationColumns + ` FROM quotations WHERE id = ?`
	return r.withLines(ctx, r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteQuotationRepo) GetByReference(ctx context.Context, ref string) (*domain.Quotation, error) {
	query := `SELECT ` + quotationColumns + ` FROM quotations WHERE UPPER(reference) = UPPER(?)`
	return r.withLines(ctx, r.db.QueryRowContext(ctx, query, ref))
}

// List returns quotation headers without their lines.
func (r *SQLiteQuotationRepo) List(ctx context.Context) ([]*domain.Quotation, error) {
	query := `SELECT ` + quotationColumns + ` FROM quotations ORDER BY quote_date, reference`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing quotations: %w", err)
	}
	defer rows.Close()

	var out []*domain.Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating quotations: %w", err)
	}
	return out, nil
}

func (r *SQLiteQuotationRepo) Update(ctx context.Context, q *domain.Quotation) error {
	query := `UPDATE quotations SET reference = ?, customer = ?, currency = ?, quote_date = ?, valid_until = ?,
		transport_cost = ?, margin_percent = ?, vat_percent = ?, contract_value = ?, notes = ?, state = ?,
		project_id = ?, total_amount = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		q.Reference, q.Customer, q.Currency, q.Date.Format(dateLayout),
		nullableTimeToString(q.ValidUntil, dateLayout),
		q.TransportCost, q.MarginPercent, q.VATPercent, q.ContractValue, q.Notes, string(q.State),
		nullableString(q.ProjectID), q.TotalAmount, timestamp(q.UpdatedAt), q.ID,
	)
	if err != nil {
		return fmt.Errorf("updating quotation: %w", err)
	}
	if err := checkAffected(res, "quotation"); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM quotation_lines WHERE quotation_id = ?`, q.ID); err != nil {
		return fmt.Errorf("clearing quotation lines: %w", err)
	}
	return r.insertLines(ctx, q)
}

func (r *SQLiteQuotationRepo) insertLines(ctx context.Context, q *domain.Quotation) error {
	query := `INSERT INTO quotation_lines (` + quotationLineColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for i := range q.Lines {
		l := &q.Lines[i]
		l.QuotationID = q.ID
		_, err := r.db.ExecContext(ctx, query,
			l.ID, l.QuotationID, l.Sequence, string(l.WorkType), l.Description, l.SurfaceArea,
			l.Quantity, l.Unit, l.WastePercent, l.MaterialUnitCost, l.LaborDays, l.LaborRatePerDay, l.EquipmentCost,
		)
		if err != nil {
			return fmt.Errorf("inserting quotation line %d: %w", l.Sequence, err)
		}
	}
	return nil
}

func (r *SQLiteQuotationRepo) withLines(ctx context.Context, row *sql.Row) (*domain.Quotation, error) {
	q, err := scanQuotation(row)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+quotationLineColumns+` FROM quotation_lines WHERE quotation_id = ? ORDER BY sequence`, q.ID)
	if err != nil {
		return nil, fmt.Errorf("listing quotation lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l domain.QuotationLine
		var workType string
		if err := rows.Scan(&l.ID, &l.QuotationID, &l.Sequence, &workType, &l.Description, &l.SurfaceArea,
			&l.Quantity, &l.Unit, &l.WastePercent, &l.MaterialUnitCost, &l.LaborDays, &l.LaborRatePerDay,
			&l.EquipmentCost); err != nil {
			return nil, fmt.Errorf("scanning quotation line: %w", err)
		}
		l.WorkType = domain.WorkType(workType)
		q.Lines = append(q.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating quotation lines: %w", err)
	}
	return q, nil
}

func scanQuotation(row rowScanner) (*domain.Quotation, error) {
	var q domain.Quotation
	var validUntil, projectID sql.NullString
	var dateStr, stateStr, createdAtStr, updatedAtStr string
	err := row.Scan(&q.ID, &q.Reference, &q.Customer, &q.Currency, &dateStr, &validUntil,
		&q.TransportCost, &q.MarginPercent, &q.VATPercent, &q.ContractValue, &q.Notes, &stateStr,
		&projectID, &q.TotalAmount, &createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, notFound("quotation", err)
	}
	q.State = domain.QuotationState(stateStr)
	q.ValidUntil = parseNullableTime(validUntil, dateLayout)
	q.ProjectID = stringPtr(projectID)
	if q.Date, err = parseTime(dateStr, dateLayout, "quote_date"); err != nil {
		return nil, err
	}
	if q.CreatedAt, err = parseTime(createdAtStr, time.RFC3339, "created_at"); err != nil {
		return nil, err
	}
	if q.UpdatedAt, err = parseTime(updatedAtStr, time.RFC3339, "updated_at"); err != nil {
		return nil, err
	}
	return &q, nil
}
