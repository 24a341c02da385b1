package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/siteledger/internal/db"
)

// engine runs project-scoped units of work: lock the project, open one
// transaction, load the project into a ledger, apply the change, write back
// derived values and commit.
type engine struct {
	uow    db.UnitOfWork
	locker ProjectLocker
	now    func() time.Time
}

func newEngine(uow db.UnitOfWork, locker ProjectLocker) engine {
	if locker == nil {
		locker = noLocker{}
	}
	return engine{uow: uow, locker: locker, now: func() time.Time { return time.Now().UTC() }}
}

// mutate applies fn to a mutable project. Archived and cancelled projects
// are rejected with domain.ErrProjectLocked before fn runs.
func (e engine) mutate(ctx context.Context, projectID string, fn func(ctx context.Context, ws *workspace) error) error {
	return e.write(ctx, projectID, true, fn)
}

// transition applies fn whatever the project status; lifecycle changes use it.
func (e engine) transition(ctx context.Context, projectID string, fn func(ctx context.Context, ws *workspace) error) error {
	return e.write(ctx, projectID, false, fn)
}

func (e engine) write(ctx context.Context, projectID string, requireMutable bool, fn func(ctx context.Context, ws *workspace) error) error {
	unlock, err := e.locker.Lock(ctx, projectID)
	if err != nil {
		return fmt.Errorf("locking project: %w", err)
	}
	defer unlock()

	return e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		ws, err := loadWorkspace(ctx, newRepos(tx), projectID, e.now())
		if err != nil {
			return err
		}
		if requireMutable {
			if err := ws.project.EnsureMutable(); err != nil {
				return err
			}
		}
		if err := fn(ctx, ws); err != nil {
			return err
		}
		return ws.persist(ctx)
	})
}

// read loads the project in a read-only transaction.
func (e engine) read(ctx context.Context, projectID string, fn func(ctx context.Context, ws *workspace) error) error {
	return e.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		ws, err := loadWorkspace(ctx, newRepos(tx), projectID, e.now())
		if err != nil {
			return err
		}
		return fn(ctx, ws)
	})
}

// query runs fn against tx-bound repositories without loading a project.
func (e engine) query(ctx context.Context, fn func(ctx context.Context, r repos) error) error {
	return e.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, newRepos(tx))
	})
}

type noLocker struct{}

func (noLocker) Lock(context.Context, string) (func(), error) { return func() {}, nil }
