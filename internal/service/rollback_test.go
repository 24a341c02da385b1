package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/alexanderramin/siteledger/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected exec failure")

func TestRollback_FailedDerivedWriteLeavesStoreUnchanged(t *testing.T) {
	database := testutil.NewTestDB(t)
	s := newServices(testutil.NewTestUoW(database))
	ctx := context.Background()

	p := s.createProject(t, "Villa")
	root := s.addBOQ(t, p.ID, "Structure", 0, 0, nil)
	leaf := s.addBOQ(t, p.ID, "Concrete", 10, 10, root)

	// SetLine writes the item, then the root total, then the project
	// figures. Fail the second write.
	failing := &testutil.FailOnNthExecUoW{DB: database, FailOn: 2, Err: errInjected}
	boq := NewBOQService(failing, nil)

	err := boq.SetLine(ctx, p.ID, leaf.ID, 20, 10)
	require.ErrorIs(t, err, errInjected)

	stored, err := s.boq.Get(ctx, p.ID, leaf.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, stored.Quantity)
	assert.Equal(t, 100.0, stored.TotalPrice)

	parent, err := s.boq.Get(ctx, p.ID, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, parent.TotalPrice)
	assert.Equal(t, 100.0, s.reload(t, p.ID).MaterialCost)
}

func TestRollback_ConvertIsAllOrNothing(t *testing.T) {
	database := testutil.NewTestDB(t)
	s := newServices(testutil.NewTestUoW(database))
	ctx := context.Background()

	q := newQuotation()
	require.NoError(t, s.quotations.Create(ctx, q))
	require.NoError(t, s.quotations.Approve(ctx, q.Reference))

	// Project insert, sequence seed, BOQ insert: fail on the BOQ item.
	failing := &testutil.FailOnNthExecUoW{DB: database, FailOn: 3, Err: errInjected}
	_, err := NewQuotationService(failing).Convert(ctx, q.Reference, "ACME01")
	require.ErrorIs(t, err, errInjected)

	all, err := s.projects.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, all)

	stored, err := s.quotations.Get(ctx, q.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.QuotationApproved, stored.State)
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (r *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestObserver_ReportsSuccessAndFailure(t *testing.T) {
	uow := testutil.NewTestUoW(testutil.NewTestDB(t))
	obs := &recordingObserver{}
	projects := NewProjectService(uow, nil, obs)
	tasks := NewTaskService(uow, nil, obs)
	ctx := context.Background()

	p := testutil.NewTestProject("Villa")
	require.NoError(t, projects.Create(ctx, p))
	task := testutil.NewTestTask(p.ID, "Dig")
	require.NoError(t, tasks.Add(ctx, task))
	assert.Error(t, tasks.SetProgress(ctx, p.ID, task.ID, 200))

	require.Len(t, obs.events, 3)
	assert.Equal(t, "create-project", obs.events[0].Name)
	assert.True(t, obs.events[0].Success)
	assert.Equal(t, "add-task", obs.events[1].Name)
	assert.Equal(t, p.ID, obs.events[1].ProjectID)

	failed := obs.events[2]
	assert.Equal(t, "set-task-progress", failed.Name)
	assert.False(t, failed.Success)
	assert.Error(t, failed.Err)
	assert.Equal(t, 200.0, failed.Fields["progress"])
}

func TestLogUseCaseObserver_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogUseCaseObserver(zerolog.New(&buf))

	obs.ObserveUseCase(context.Background(), UseCaseEvent{
		Name:      "add-boq-item",
		ProjectID: "p1",
		Success:   true,
		Fields:    map[string]any{"name": "Concrete"},
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "service_use_case", line["message"])
	assert.Equal(t, "add-boq-item", line["use_case"])
	assert.Equal(t, "p1", line["project_id"])
	assert.Equal(t, "Concrete", line["name"])
	assert.Equal(t, "info", line["level"])
}

func TestLogUseCaseObserver_PrefersContextLogger(t *testing.T) {
	var base, scoped bytes.Buffer
	obs := NewLogUseCaseObserver(zerolog.New(&base))
	ctx := zerolog.New(&scoped).With().Str("request_id", "r1").Logger().WithContext(context.Background())

	obs.ObserveUseCase(ctx, UseCaseEvent{Name: "recompute-project", Err: errInjected})

	assert.Empty(t, base.String())
	assert.Contains(t, scoped.String(), `"request_id":"r1"`)
	assert.Contains(t, scoped.String(), `"level":"error"`)
}
