package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/alexanderramin/siteledger/internal/ledger"
	"github.com/alexanderramin/siteledger/internal/repository"
	"github.com/google/uuid"
)

type taskService struct {
	engine
	observer UseCaseObserver
}

func NewTaskService(uow db.UnitOfWork, locker ProjectLocker, observers ...UseCaseObserver) TaskService {
	return &taskService{
		engine:   newEngine(uow, locker),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *taskService) Add(ctx context.Context, t *domain.Task) (err error) {
	defer observe(ctx, s.observer, "add-task", t.ProjectID, map[string]any{"name": t.Name}, &err)()

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = domain.TaskNotStarted
	}
	if err = t.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, t.ProjectID, func(ctx context.Context, ws *workspace) error {
		return addTask(ctx, ws, t)
	})
}

func addTask(ctx context.Context, ws *workspace, t *domain.Task) error {
	if t.ParentID != nil {
		if _, err := ws.task(*t.ParentID); err != nil {
			return fmt.Errorf("parent: %w", err)
		}
	}
	if t.Seq == 0 {
		seq, err := ws.store.seqs.NextProjectSeq(ctx, t.ProjectID)
		if err != nil {
			return err
		}
		t.Seq = seq
	}
	t.CreatedAt = ws.now
	t.UpdatedAt = ws.now
	t.ProgressPercent = t.LeafProgress

	err := ws.ledger.Batch(func(m ledger.Mutator) error {
		if err := m.AddTask(t.ID, t.LeafProgress); err != nil {
			return err
		}
		if t.ParentID != nil {
			return m.AttachTask(*t.ParentID, t.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := ws.store.tasks.Create(ctx, t); err != nil {
		return err
	}
	ws.tasks[t.ID] = t
	return nil
}

// Get resolves ref as "#<seq>", a bare number or a task id.
func (s *taskService) Get(ctx context.Context, projectID, ref string) (*domain.Task, error) {
	var t *domain.Task
	err := s.query(ctx, func(ctx context.Context, r repos) error {
		var err error
		if seq, ok := parseSeq(ref); ok {
			t, err = r.tasks.GetBySeq(ctx, projectID, seq)
			return err
		}
		t, err = r.tasks.GetByID(ctx, ref)
		if err == nil && t.ProjectID != projectID {
			return fmt.Errorf("task %s: %w", ref, repository.ErrNotFound)
		}
		return err
	})
	return t, err
}

func (s *taskService) List(ctx context.Context, projectID string) ([]*domain.Task, error) {
	var out []*domain.Task
	err := s.query(ctx, func(ctx context.Context, r repos) error {
		var err error
		out, err = r.tasks.ListByProject(ctx, projectID)
		return err
	})
	return out, err
}

// SetProgress records the manual progress of a task. A task with children
// keeps the value but reports the mean of its children until they are gone.
func (s *taskService) SetProgress(ctx context.Context, projectID, taskID string, pct float64) (err error) {
	fields := map[string]any{"task": taskID, "progress": pct}
	defer observe(ctx, s.observer, "set-task-progress", projectID, fields, &err)()

	if err = domain.ValidateProgress(pct); err != nil {
		return err
	}
	return s.mutate(ctx, projectID, func(ctx context.Context, ws *workspace) error {
		t, err := ws.task(taskID)
		if err != nil {
			return err
		}
		if err := ws.ledger.SetTaskProgress(taskID, pct); err != nil {
			return err
		}
		t.LeafProgress = pct
		t.UpdatedAt = ws.now
		return ws.store.tasks.Update(ctx, t)
	})
}

func (s *taskService) SetStatus(ctx context.Context, projectID, taskID string, status domain.TaskStatus) (err error) {
	fields := map[string]any{"task": taskID, "status": string(status)}
	defer observe(ctx, s.observer, "set-task-status", projectID, fields, &err)()

	return s.mutate(ctx, projectID, func(ctx context.Context, ws *workspace) error {
		t, err := ws.task(taskID)
		if err != nil {
			return err
		}
		if err := t.SetStatus(status, ws.now); err != nil {
			return err
		}
		return ws.store.tasks.Update(ctx, t)
	})
}

// Move re-parents a task; an empty parentID makes it a main task.
func (s *taskService) Move(ctx context.Context, projectID, taskID, parentID string) (err error) {
	fields := map[string]any{"task": taskID, "parent": parentID}
	defer observe(ctx, s.observer, "move-task", projectID, fields, &err)()

	return s.mutate(ctx, projectID, func(ctx context.Context, ws *workspace) error {
		t, err := ws.task(taskID)
		if err != nil {
			return err
		}
		if parentID == "" {
			if t.ParentID == nil {
				return nil
			}
			if err := ws.ledger.DetachTask(*t.ParentID, taskID); err != nil {
				return err
			}
			t.ParentID = nil
		} else {
			if _, err := ws.task(parentID); err != nil {
				return fmt.Errorf("parent: %w", err)
			}
			if err := ws.ledger.AttachTask(parentID, taskID); err != nil {
				return err
			}
			t.ParentID = &parentID
		}
		t.UpdatedAt = ws.now
		return ws.store.tasks.Update(ctx, t)
	})
}

// Remove deletes the task and its subtasks.
func (s *taskService) Remove(ctx context.Context, projectID, taskID string) (removed []string, err error) {
	fields := map[string]any{"task": taskID}
	defer observe(ctx, s.observer, "remove-task", projectID, fields, &err)()

	err = s.mutate(ctx, projectID, func(ctx context.Context, ws *workspace) error {
		if _, err := ws.task(taskID); err != nil {
			return err
		}
		ids, err := ws.ledger.RemoveTask(taskID)
		if err != nil {
			return err
		}
		if err := ws.store.tasks.Delete(ctx, taskID); err != nil {
			return err
		}
		for _, id := range ids {
			delete(ws.tasks, id)
		}
		removed = ids
		return nil
	})
	fields["removed"] = len(removed)
	return removed, err
}

func (s *taskService) Snapshot(ctx context.Context, projectID, rootID string) (map[string]float64, error) {
	var snap map[string]float64
	err := s.read(ctx, projectID, func(ctx context.Context, ws *workspace) error {
		if rootID != "" {
			if _, err := ws.task(rootID); err != nil {
				return err
			}
		}
		var err error
		snap, err = ws.ledger.TaskSnapshot(rootID)
		return err
	})
	return snap, err
}
