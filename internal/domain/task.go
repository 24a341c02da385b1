package domain

import (
	"fmt"
	"math"
	"time"
)

// Task is a node of the project timeline. LeafProgress is entered by hand;
// ProgressPercent is what observers read and is the mean of the children for
// tasks that have any.
type Task struct {
	ID              string
	ProjectID       string
	ParentID        *string
	Name            string
	Seq             int
	StartDate       *time.Time
	EndDate         *time.Time
	LeafProgress    float64
	ProgressPercent float64
	Status          TaskStatus
	AssignedTo      string
	Description     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ValidateProgress checks a percentage lies in [0, 100].
func ValidateProgress(pct float64) error {
	if math.IsNaN(pct) || pct < 0 || pct > 100 {
		return Invalidf("progress must be between 0 and 100, got %g", pct)
	}
	return nil
}

func (t *Task) Validate() error {
	if t.Name == "" {
		return Invalidf("task name is required")
	}
	if t.ProjectID == "" {
		return Invalidf("task %q has no project", t.Name)
	}
	if err := ValidateProgress(t.LeafProgress); err != nil {
		return err
	}
	if t.StartDate != nil && t.EndDate != nil && t.EndDate.Before(*t.StartDate) {
		return Invalidf("task %q ends before it starts", t.Name)
	}
	if t.Status != "" && !ValidTaskStatuses[string(t.Status)] {
		return Invalidf("invalid task status %q", t.Status)
	}
	return nil
}

// Duration is the inclusive number of days between StartDate and EndDate, or
// 0 when either is missing.
func (t *Task) Duration() int {
	if t.StartDate == nil || t.EndDate == nil {
		return 0
	}
	days := int(t.EndDate.Sub(*t.StartDate).Hours()/24) + 1
	if days < 0 {
		return 0
	}
	return days
}

// IsOverdue reports whether an unfinished task is past its end date.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.EndDate != nil && t.Status != TaskCompleted && t.EndDate.Before(now.Truncate(24*time.Hour))
}

// SetStatus moves the task to s. Completed tasks can only be reopened to
// in_progress.
func (t *Task) SetStatus(s TaskStatus, now time.Time) error {
	if !ValidTaskStatuses[string(s)] {
		return Invalidf("invalid task status %q", s)
	}
	if t.Status == TaskCompleted && s == TaskNotStarted {
		return fmt.Errorf("%w: completed task can only be reopened to in_progress", ErrInvalidTransition)
	}
	t.Status = s
	t.UpdatedAt = now
	return nil
}
