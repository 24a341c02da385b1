// Package ledger holds the in-memory recompute state of one project: its BOQ
// and task trees, the flat collections feeding project costs, and the derived
// figures. Every mutation and its propagation happen under one lock, so
// readers never observe a half-propagated state.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/alexanderramin/siteledger/internal/costing"
	"github.com/alexanderramin/siteledger/internal/recompute"
	"github.com/alexanderramin/siteledger/internal/rollup"
)

// ErrLocked is returned by mutators of a frozen ledger.
var ErrLocked = errors.New("ledger is frozen")

// State is the set of derived project figures.
type State struct {
	Costs         costing.Costs
	ExpectedTotal float64
	Variance      float64
	Financials    costing.Financials
}

// Snapshot is a consistent read of every derived value.
type Snapshot struct {
	BOQ   map[string]float64
	Tasks map[string]float64
	State State
}

type Ledger struct {
	mu        sync.Mutex
	projectID string
	frozen    bool

	boq      *rollup.Tree
	boqNames map[string]string
	tasks    *rollup.Tree

	purchases map[string]costing.Purchase
	labor     map[string]costing.Labor
	equipment map[string]float64
	invoices  map[string]costing.PostedAmount
	payments  map[string]costing.PostedAmount
	contract  float64
	expected  costing.Expected

	state State
	sched *recompute.Scheduler
}

// New returns an empty ledger for projectID.
func New(projectID string) *Ledger {
	l := &Ledger{
		projectID: projectID,
		boq:       rollup.New(rollup.Sum),
		boqNames:  make(map[string]string),
		tasks:     rollup.New(rollup.Mean),
		purchases: make(map[string]costing.Purchase),
		labor:     make(map[string]costing.Labor),
		equipment: make(map[string]float64),
		invoices:  make(map[string]costing.PostedAmount),
		payments:  make(map[string]costing.PostedAmount),
		sched:     recompute.NewScheduler(projectGraph),
	}
	l.bind()
	return l
}

func (l *Ledger) ProjectID() string {
	return l.projectID
}

func (l *Ledger) bind() {
	binds := map[recompute.Key]recompute.ComputeFunc{
		KeyBOQRollup:  func() { l.boq.Settle() },
		KeyTaskRollup: func() { l.tasks.Settle() },
		KeyMaterialCost: func() {
			l.state.Costs.Material = costing.MaterialCost(l.boq.RootAggregates(), sortedValues(l.purchases))
		},
		KeyLaborCost: func() {
			l.state.Costs.Labor = costing.LaborCost(sortedValues(l.labor))
		},
		KeyEquipmentCost: func() {
			l.state.Costs.Equipment = costing.EquipmentCost(sortedValues(l.equipment), l.namedBOQ())
		},
		KeyProgress: func() {
			l.state.Costs.ProgressPercent = costing.Progress(l.tasks.RootAggregates())
		},
		KeyTotalCost: func() {
			c := &l.state.Costs
			c.Total = costing.TotalCost(c.Material, c.Labor, c.Equipment, l.contract)
		},
		KeyExpectedTotal: func() {
			l.state.ExpectedTotal = costing.ExpectedTotal(l.expected)
		},
		KeyVariance: func() {
			l.state.Variance = costing.Variance(l.state.ExpectedTotal, l.state.Costs.Total)
		},
		KeyFinancials: func() {
			l.state.Financials = costing.Summarize(sortedValues(l.invoices), sortedValues(l.payments))
		},
	}
	for k, fn := range binds {
		if err := l.sched.Bind(k, fn); err != nil {
			panic(err)
		}
	}
}

// Freeze makes every later mutator fail with ErrLocked. Reads still work.
func (l *Ledger) Freeze() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frozen = true
}

// Batch applies fn with recomputation deferred, then recomputes each affected
// derived field once. The final state equals applying the same mutations one
// by one. If fn fails the mutations it already applied stay and are settled.
func (l *Ledger) Batch(fn func(m Mutator) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sched.Begin()
	l.boq.Defer()
	l.tasks.Defer()
	err := fn(txn{l})
	l.sched.Flush()
	l.boq.Settle()
	l.tasks.Settle()
	return err
}

// Recompute derives every field from scratch.
func (l *Ledger) Recompute() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sched.RecomputeAll()
}

// Runs returns how many times a derived field has been computed.
func (l *Ledger) Runs(key recompute.Key) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sched.Runs(key)
}

func (l *Ledger) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Ledger) Costs() costing.Costs {
	return l.State().Costs
}

// Snapshot returns every BOQ and task aggregate plus the derived figures.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{
		BOQ:   l.boq.SnapshotAll(),
		Tasks: l.tasks.SnapshotAll(),
		State: l.state,
	}
}

// BOQSnapshot returns the totals of the subtree rooted at rootID, or of every
// item when rootID is empty.
func (l *Ledger) BOQSnapshot(rootID string) (map[string]float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return subtree(l.boq, rootID)
}

// TaskSnapshot returns the progress of the subtree rooted at rootID, or of
// every task when rootID is empty.
func (l *Ledger) TaskSnapshot(rootID string) (map[string]float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return subtree(l.tasks, rootID)
}

func (l *Ledger) BOQTotal(id string) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.boq.Aggregate(id)
}

func (l *Ledger) TaskProgress(id string) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tasks.Aggregate(id)
}

func subtree(t *rollup.Tree, rootID string) (map[string]float64, error) {
	if rootID == "" {
		return t.SnapshotAll(), nil
	}
	return t.Snapshot(rootID)
}

func (l *Ledger) namedBOQ() []costing.NamedAmount {
	all := l.boq.SnapshotAll()
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]costing.NamedAmount, len(ids))
	for i, id := range ids {
		out[i] = costing.NamedAmount{Name: l.boqNames[id], Amount: all[id]}
	}
	return out
}

// sortedValues returns map values ordered by key so float sums are stable.
func sortedValues[V any](m map[string]V) []V {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]V, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

func (l *Ledger) checkMutable() error {
	if l.frozen {
		return fmt.Errorf("%w: project %s", ErrLocked, l.projectID)
	}
	return nil
}
