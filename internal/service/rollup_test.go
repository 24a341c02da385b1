package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/alexanderramin/siteledger/internal/repository"
	"github.com/alexanderramin/siteledger/internal/rollup"
	"github.com/alexanderramin/siteledger/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBOQ_ParentSumsChildren(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa")

	root := s.addBOQ(t, p.ID, "Structure", 0, 0, nil)
	a := s.addBOQ(t, p.ID, "Concrete", 10, 10, root)
	b := s.addBOQ(t, p.ID, "Rebar", 5, 50, root)

	snap, err := s.boq.Snapshot(ctx, p.ID, root.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{root.ID: 350, a.ID: 100, b.ID: 250}, snap)

	stored, err := s.boq.Get(ctx, p.ID, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 350.0, stored.TotalPrice)
	assert.Equal(t, 350.0, s.reload(t, p.ID).MaterialCost)
}

func TestBOQ_SetLinePropagatesToAncestors(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa")

	root := s.addBOQ(t, p.ID, "Structure", 0, 0, nil)
	mid := s.addBOQ(t, p.ID, "Ground floor", 0, 0, root)
	leaf := s.addBOQ(t, p.ID, "Slab", 2, 50, mid)

	require.NoError(t, s.boq.SetLine(ctx, p.ID, leaf.ID, 4, 50))

	snap, err := s.boq.Snapshot(ctx, p.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 200.0, snap[leaf.ID])
	assert.Equal(t, 200.0, snap[mid.ID])
	assert.Equal(t, 200.0, snap[root.ID])
	assert.Equal(t, 200.0, s.reload(t, p.ID).MaterialCost)
}

func TestBOQ_GetBySeq(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa")

	first := s.addBOQ(t, p.ID, "Structure", 1, 1, nil)
	s.addTask(t, p.ID, "Dig", 0, nil)
	second := s.addBOQ(t, p.ID, "Finishes", 1, 1, nil)

	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, 3, second.Seq, "tasks and BOQ items share the project sequence")

	got, err := s.boq.Get(ctx, p.ID, "#3")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	_, err = s.boq.Get(ctx, p.ID, "#2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBOQ_MoveIntoDescendantIsRejected(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa")

	root := s.addBOQ(t, p.ID, "Structure", 0, 0, nil)
	child := s.addBOQ(t, p.ID, "Frame", 0, 0, root)
	grandchild := s.addBOQ(t, p.ID, "Columns", 3, 100, child)

	before, err := s.boq.Snapshot(ctx, p.ID, "")
	require.NoError(t, err)
	projectBefore := s.reload(t, p.ID)

	err = s.boq.Move(ctx, p.ID, root.ID, grandchild.ID)
	var cycle *rollup.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.True(t, errors.Is(err, rollup.ErrCycle))
	assert.Equal(t, root.ID, cycle.Child)

	after, err := s.boq.Snapshot(ctx, p.ID, "")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	stored, err := s.boq.Get(ctx, p.ID, root.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ParentID)
	assert.Equal(t, projectBefore.MaterialCost, s.reload(t, p.ID).MaterialCost)
}

func TestBOQ_MoveBetweenParents(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa")

	a := s.addBOQ(t, p.ID, "Block A", 0, 0, nil)
	b := s.addBOQ(t, p.ID, "Block B", 0, 0, nil)
	leaf := s.addBOQ(t, p.ID, "Walls", 2, 60, a)

	require.NoError(t, s.boq.Move(ctx, p.ID, leaf.ID, b.ID))

	snap, err := s.boq.Snapshot(ctx, p.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap[a.ID], "a parent that lost its last child shows its own line value")
	assert.Equal(t, 120.0, snap[b.ID])

	require.NoError(t, s.boq.Move(ctx, p.ID, leaf.ID, ""))
	stored, err := s.boq.Get(ctx, p.ID, leaf.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ParentID)
	assert.Equal(t, 120.0, s.reload(t, p.ID).MaterialCost)
}

func TestBOQ_RemoveDropsSubtree(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa")

	root := s.addBOQ(t, p.ID, "Structure", 0, 0, nil)
	child := s.addBOQ(t, p.ID, "Frame", 0, 0, root)
	leaf := s.addBOQ(t, p.ID, "Columns", 3, 100, child)
	other := s.addBOQ(t, p.ID, "Finishes", 1, 40, nil)

	removed, err := s.boq.Remove(ctx, p.ID, child.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{child.ID, leaf.ID}, removed)

	items, err := s.boq.List(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 40.0, s.reload(t, p.ID).MaterialCost)

	_, err = s.boq.Get(ctx, p.ID, leaf.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.boq.Get(ctx, p.ID, other.ID)
	assert.NoError(t, err)
}

func TestBOQ_UnknownParentIsNotFound(t *testing.T) {
	s := setupServices(t)
	p := s.createProject(t, "Villa")

	item := testutil.NewTestBOQItem(p.ID, "Orphan", testutil.WithBOQParent("missing"))
	err := s.boq.Add(context.Background(), item)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTasks_ParentIsMeanOfChildren(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa")

	root := s.addTask(t, p.ID, "Build", 0, nil)
	s.addTask(t, p.ID, "Dig", 100, root)
	s.addTask(t, p.ID, "Pour", 80, root)
	s.addTask(t, p.ID, "Frame", 20, root)

	snap, err := s.tasks.Snapshot(ctx, p.ID, root.ID)
	require.NoError(t, err)
	assert.InDelta(t, 66.67, snap[root.ID], 0.01)

	stored, err := s.tasks.Get(ctx, p.ID, root.ID)
	require.NoError(t, err)
	assert.InDelta(t, 66.67, stored.ProgressPercent, 0.01)
	assert.InDelta(t, 66.67, s.reload(t, p.ID).ProgressPercent, 0.01)
}

func TestTasks_LeafProgressReturnsWhenChildrenLeave(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa")

	parent := s.addTask(t, p.ID, "Build", 40, nil)
	child := s.addTask(t, p.ID, "Dig", 90, parent)

	snap, err := s.tasks.Snapshot(ctx, p.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 90.0, snap[parent.ID])

	require.NoError(t, s.tasks.Move(ctx, p.ID, child.ID, ""))

	snap, err = s.tasks.Snapshot(ctx, p.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 40.0, snap[parent.ID])
	assert.Equal(t, 65.0, s.reload(t, p.ID).ProgressPercent)
}

func TestTasks_SetProgressValidatesRange(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa")
	task := s.addTask(t, p.ID, "Dig", 10, nil)

	assert.Error(t, s.tasks.SetProgress(ctx, p.ID, task.ID, 101))
	assert.Error(t, s.tasks.SetProgress(ctx, p.ID, task.ID, -1))
	require.NoError(t, s.tasks.SetProgress(ctx, p.ID, task.ID, 75))

	assert.Equal(t, 75.0, s.reload(t, p.ID).ProgressPercent)
}

func TestTasks_CycleRejected(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa")

	root := s.addTask(t, p.ID, "Build", 0, nil)
	child := s.addTask(t, p.ID, "Dig", 50, root)

	err := s.tasks.Move(ctx, p.ID, root.ID, child.ID)
	assert.ErrorIs(t, err, rollup.ErrCycle)

	stored, err := s.tasks.Get(ctx, p.ID, root.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ParentID)
}

func TestTasks_StatusIsIndependentOfProgress(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa")
	task := s.addTask(t, p.ID, "Dig", 10, nil)

	require.NoError(t, s.tasks.SetStatus(ctx, p.ID, task.ID, domain.TaskCompleted))
	stored, err := s.tasks.Get(ctx, p.ID, "#1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCompleted, stored.Status)
	assert.Equal(t, 10.0, stored.ProgressPercent)

	err = s.tasks.SetStatus(ctx, p.ID, task.ID, domain.TaskNotStarted)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTasks_RemoveSubtree(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa")

	root := s.addTask(t, p.ID, "Build", 0, nil)
	s.addTask(t, p.ID, "Dig", 100, root)
	other := s.addTask(t, p.ID, "Paint", 20, nil)

	removed, err := s.tasks.Remove(ctx, p.ID, root.ID)
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	tasks, err := s.tasks.List(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, other.ID, tasks[0].ID)
	assert.Equal(t, 20.0, s.reload(t, p.ID).ProgressPercent)
}

func TestProjectCosts_TotalIncludesEveryCategory(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa", testutil.WithContractValue(1000))

	root := s.addBOQ(t, p.ID, "Structure", 0, 0, nil)
	s.addBOQ(t, p.ID, "Concrete", 10, 10, root)
	s.addBOQ(t, p.ID, "Rebar", 5, 50, root)
	require.NoError(t, s.dprs.Add(ctx, testutil.NewTestDPR(p.ID, 2, 50)))

	costs, err := s.projects.Costs(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 350.0, costs.MaterialCost)
	assert.Equal(t, 800.0, costs.LaborCost)
	assert.Equal(t, 0.0, costs.EquipmentCost)
	assert.Equal(t, 2150.0, costs.TotalCost)

	stored := s.reload(t, p.ID)
	assert.Equal(t, 2150.0, stored.TotalCost)
	assert.Equal(t, 0.0, stored.ProgressPercent, "no tasks means no progress")
}

func TestProjectCosts_ConfirmedPurchasesReplaceBOQ(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa")

	root := s.addBOQ(t, p.ID, "Structure", 0, 0, nil)
	s.addBOQ(t, p.ID, "Concrete", 10, 10, root)
	s.addBOQ(t, p.ID, "Rebar", 5, 50, root)

	po1 := testutil.NewTestPurchase(p.ID, 300, domain.PurchaseDraft)
	po2 := testutil.NewTestPurchase(p.ID, 200, domain.PurchaseDraft)
	require.NoError(t, s.purchases.Add(ctx, po1))
	require.NoError(t, s.purchases.Add(ctx, po2))
	assert.Equal(t, 350.0, s.reload(t, p.ID).MaterialCost, "draft orders do not count")

	require.NoError(t, s.purchases.Confirm(ctx, p.ID, po1.ID))
	assert.Equal(t, 300.0, s.reload(t, p.ID).MaterialCost)

	require.NoError(t, s.purchases.Confirm(ctx, p.ID, po2.ID))
	require.NoError(t, s.purchases.Receive(ctx, p.ID, po2.ID))
	assert.Equal(t, 500.0, s.reload(t, p.ID).MaterialCost)

	require.NoError(t, s.purchases.Cancel(ctx, p.ID, po1.ID))
	assert.Equal(t, 200.0, s.reload(t, p.ID).MaterialCost)

	err := s.purchases.Confirm(ctx, p.ID, po1.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestProjectCosts_EquipmentAllocationsReplaceKeywordItems(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa")

	s.addBOQ(t, p.ID, "Equipment hire", 1, 400, nil)
	s.addBOQ(t, p.ID, "Concrete", 1, 100, nil)
	assert.Equal(t, 400.0, s.reload(t, p.ID).EquipmentCost)

	e := testutil.NewTestEquipment(p.ID, "Excavator", 10, testutil.WithEquipmentHours(5))
	require.NoError(t, s.equipment.Allocate(ctx, e))
	assert.Equal(t, 50.0, s.reload(t, p.ID).EquipmentCost)

	require.NoError(t, s.equipment.LogUsage(ctx, p.ID, e.ID, 3))
	assert.Equal(t, 80.0, s.reload(t, p.ID).EquipmentCost)

	list, err := s.equipment.List(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.EquipmentInUse, list[0].State)

	require.NoError(t, s.equipment.Cancel(ctx, p.ID, e.ID))
	assert.Equal(t, 0.0, s.reload(t, p.ID).EquipmentCost, "a cancelled allocation still replaces the keyword estimate")
}

func TestProjectCosts_RemoveDPRDropsLabor(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa")

	d := testutil.NewTestDPR(p.ID, 2, 50)
	require.NoError(t, s.dprs.Add(ctx, d))
	assert.Equal(t, 800.0, s.reload(t, p.ID).LaborCost)

	require.NoError(t, s.dprs.Remove(ctx, p.ID, d.ID))
	assert.Equal(t, 0.0, s.reload(t, p.ID).LaborCost)

	err := s.dprs.Remove(ctx, p.ID, d.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectCosts_RecomputeIsIdempotent(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa", testutil.WithContractValue(1000))
	s.addBOQ(t, p.ID, "Concrete", 10, 10, nil)
	s.addTask(t, p.ID, "Dig", 30, nil)

	first, err := s.projects.Recompute(ctx, p.ID)
	require.NoError(t, err)
	second, err := s.projects.Recompute(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	costs, err := s.projects.Costs(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, first, costs)
}

func TestBOQ_SetLineRejectsNonFiniteValues(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa", testutil.WithExpected(500, 300, 0, 0))
	item := s.addBOQ(t, p.ID, "Slab", 2, 50, nil)

	for _, tc := range []struct {
		name       string
		qty, price float64
	}{
		{"NaN quantity", math.NaN(), 1},
		{"infinite price", 1, math.Inf(1)},
		{"overflowing line", 1e200, 1e200},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := s.boq.SetLine(ctx, p.ID, item.ID, tc.qty, tc.price)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)
		})
	}

	costs, err := s.projects.Costs(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, costs.MaterialCost)
	_, err = json.Marshal(costs)
	require.NoError(t, err)

	d, err := s.dashboard.Project(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 87.5, d.Variance.Percent)
}

func TestBOQ_AddRejectsNonFiniteLine(t *testing.T) {
	s := setupServices(t)
	p := s.createProject(t, "Villa")

	item := testutil.NewTestBOQItem(p.ID, "Slab", testutil.WithBOQLine(math.Inf(1), 1))
	err := s.boq.Add(context.Background(), item)
	assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)
}

func TestTasks_SetProgressRejectsNaN(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa")
	task := s.addTask(t, p.ID, "Dig", 10, nil)

	err := s.tasks.SetProgress(ctx, p.ID, task.ID, math.NaN())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)
	assert.Equal(t, 10.0, s.reload(t, p.ID).ProgressPercent)
}

func TestProjects_FiguresRejectNonFinite(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createProject(t, "Villa")

	err := s.projects.SetContractValue(ctx, p.ID, math.NaN())
	assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)

	err = s.projects.SetExpected(ctx, p.ID, domain.ExpectedCosts{Material: math.Inf(1)})
	assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)

	_, err = s.projects.Bill(ctx, p.ID, math.NaN())
	assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)

	reloaded := s.reload(t, p.ID)
	assert.Equal(t, 0.0, reloaded.ContractValue)
	assert.Equal(t, domain.ExpectedCosts{}, reloaded.Expected)
}
