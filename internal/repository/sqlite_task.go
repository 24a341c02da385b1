package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/domain"
)

// taskColumns is the canonical SELECT column list for tasks.
const taskColumns = `id, project_id, parent_id, seq, name, start_date, end_date,
		leaf_progress, progress_percent, status, assigned_to, description, created_at, updated_at`

// SQLiteTaskRepo implements TaskRepo using a SQLite database.
type SQLiteTaskRepo struct {
	db db.DBTX
}

func NewSQLiteTaskRepo(conn db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: conn}
}

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.ProjectID,
		nullableString(t.ParentID),
		t.Seq,
		t.Name,
		nullableTimeToString(t.StartDate, dateLayout),
		nullableTimeToString(t.EndDate, dateLayout),
		t.LeafProgress,
		t.ProgressPercent,
		string(t.Status),
		t.AssignedTo,
		t.Description,
		timestamp(t.CreatedAt),
		timestamp(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	return scanTask(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteTaskRepo) GetBySeq(ctx context.Context, projectID string, seq int) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ? AND seq = ?`
	return scanTask(r.db.QueryRowContext(ctx, query, projectID, seq))
}

func (r *SQLiteTaskRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ? ORDER BY seq, created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	query := `UPDATE tasks SET parent_id = ?, name = ?, start_date = ?, end_date = ?,
		leaf_progress = ?, progress_percent = ?, status = ?, assigned_to = ?, description = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableString(t.ParentID),
		t.Name,
		nullableTimeToString(t.StartDate, dateLayout),
		nullableTimeToString(t.EndDate, dateLayout),
		t.LeafProgress,
		t.ProgressPercent,
		string(t.Status),
		t.AssignedTo,
		t.Description,
		timestamp(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return checkAffected(res, "task")
}

func (r *SQLiteTaskRepo) SetProgress(ctx context.Context, id string, pct float64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tasks SET progress_percent = ? WHERE id = ?`, pct, id)
	if err != nil {
		return fmt.Errorf("updating task progress: %w", err)
	}
	return checkAffected(res, "task")
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return checkAffected(res, "task")
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var parentID, startStr, endStr sql.NullString
	var statusStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&t.ID, &t.ProjectID, &parentID, &t.Seq, &t.Name, &startStr, &endStr,
		&t.LeafProgress, &t.ProgressPercent, &statusStr, &t.AssignedTo, &t.Description,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, notFound("task", err)
	}
	t.ParentID = stringPtr(parentID)
	t.Status = domain.TaskStatus(statusStr)
	t.StartDate = parseNullableTime(startStr, dateLayout)
	t.EndDate = parseNullableTime(endStr, dateLayout)
	if t.CreatedAt, err = parseTime(createdAtStr, time.RFC3339, "created_at"); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAtStr, time.RFC3339, "updated_at"); err != nil {
		return nil, err
	}
	return &t, nil
}
