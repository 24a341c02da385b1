package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/domain"
)

const equipmentColumns = `id, project_id, task_id, reference, equipment, category,
		allocation_date, return_date, actual_return_date, hourly_rate, total_hours,
		state, notes, created_at, updated_at`

// SQLiteEquipmentRepo implements EquipmentRepo using a SQLite database.
type SQLiteEquipmentRepo struct {
	db db.DBTX
}

func NewSQLiteEquipmentRepo(conn db.DBTX) *SQLiteEquipmentRepo {
	return &SQLiteEquipmentRepo{db: conn}
}

func (r *SQLiteEquipmentRepo) Create(ctx context.Context, e *domain.EquipmentAllocation) error {
	query := `INSERT INTO equipment_allocations (` + equipmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.ProjectID,
		nullableString(e.TaskID),
		e.Reference,
		e.Equipment,
		string(e.Category),
		e.AllocationDate.Format(dateLayout),
		nullableTimeToString(e.ReturnDate, dateLayout),
		nullableTimeToString(e.ActualReturnDate, dateLayout),
		e.HourlyRate,
		e.TotalHours,
		string(e.State),
		e.Notes,
		timestamp(e.CreatedAt),
		timestamp(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting equipment allocation: %w", err)
	}
	return nil
}

func (r *SQLiteEquipmentRepo) GetByID(ctx context.Context, id string) (*domain.EquipmentAllocation, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment_allocations WHERE id = ?`
	return scanEquipment(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteEquipmentRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.EquipmentAllocation, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment_allocations WHERE project_id = ?
		ORDER BY allocation_date, created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing equipment allocations: %w", err)
	}
	defer rows.Close()

	var out []*domain.EquipmentAllocation
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating equipment allocations: %w", err)
	}
	return out, nil
}

func (r *SQLiteEquipmentRepo) Update(ctx context.Context, e *domain.EquipmentAllocation) error {
	query := `UPDATE equipment_allocations SET task_id = ?, reference = ?, equipment = ?, category = ?,
		allocation_date = ?, return_date = ?, actual_return_date = ?, hourly_rate = ?, total_hours = ?,
		state = ?, notes = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableString(e.TaskID),
		e.Reference,
		e.Equipment,
		string(e.Category),
		e.AllocationDate.Format(dateLayout),
		nullableTimeToString(e.ReturnDate, dateLayout),
		nullableTimeToString(e.ActualReturnDate, dateLayout),
		e.HourlyRate,
		e.TotalHours,
		string(e.State),
		e.Notes,
		timestamp(e.UpdatedAt),
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating equipment allocation: %w", err)
	}
	return checkAffected(res, "equipment allocation")
}

func (r *SQLiteEquipmentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM equipment_allocations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting equipment allocation: %w", err)
	}
	return checkAffected(res, "equipment allocation")
}

func scanEquipment(row rowScanner) (*domain.EquipmentAllocation, error) {
	var e domain.EquipmentAllocation
	var taskID, returnStr, actualStr sql.NullString
	var categoryStr, allocStr, stateStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&e.ID, &e.ProjectID, &taskID, &e.Reference, &e.Equipment, &categoryStr,
		&allocStr, &returnStr, &actualStr, &e.HourlyRate, &e.TotalHours,
		&stateStr, &e.Notes, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, notFound("equipment allocation", err)
	}
	e.TaskID = stringPtr(taskID)
	e.Category = domain.EquipmentCategory(categoryStr)
	e.State = domain.EquipmentState(stateStr)
	e.ReturnDate = parseNullableTime(returnStr, dateLayout)
	e.ActualReturnDate = parseNullableTime(actualStr, dateLayout)
	if e.AllocationDate, err = parseTime(allocStr, dateLayout, "allocation_date"); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(createdAtStr, time.RFC3339, "created_at"); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAtStr, time.RFC3339, "updated_at"); err != nil {
		return nil, err
	}
	return &e, nil
}
