package rollup

import (
	"fmt"
	"sort"
)

type node struct {
	id       string
	parent   *node
	children []*node
	leaf     float64
	agg      float64
	seq      int
}

func (n *node) depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Tree owns a forest of nodes keyed by id. The zero value is not usable; use
// New.
type Tree struct {
	reduce   Reducer
	nodes    map[string]*node
	nextSeq  int
	deferred bool
	dirty    map[*node]struct{}
}

// New returns an empty Tree that derives internal nodes with reduce.
func New(reduce Reducer) *Tree {
	if reduce == nil {
		reduce = Sum
	}
	return &Tree{
		reduce: reduce,
		nodes:  make(map[string]*node),
		dirty:  make(map[*node]struct{}),
	}
}

// Add inserts a root node with the given leaf value.
func (t *Tree) Add(id string, leaf float64) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidNode)
	}
	if _, ok := t.nodes[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	t.nextSeq++
	t.nodes[id] = &node{id: id, leaf: leaf, agg: leaf, seq: t.nextSeq}
	return nil
}

// SetLeafValue stores v as the node's own value and propagates the change.
func (t *Tree) SetLeafValue(id string, v float64) error {
	n, ok := t.nodes[id]
	if !ok {
		return notFound(id)
	}
	n.leaf = v
	t.invalidate(n)
	return nil
}

// Attach makes childID a child of parentID. A child that already has another
// parent is moved. Attaching a node under itself or one of its descendants
// returns a *CycleError and leaves the tree unchanged.
func (t *Tree) Attach(parentID, childID string) error {
	parent, ok := t.nodes[parentID]
	if !ok {
		return notFound(parentID)
	}
	child, ok := t.nodes[childID]
	if !ok {
		return notFound(childID)
	}
	if child.parent == parent {
		return nil
	}
	if path := cyclePath(parent, child); path != nil {
		return &CycleError{Parent: parentID, Child: childID, Path: path}
	}

	if old := child.parent; old != nil {
		old.children = removeChild(old.children, child)
		t.invalidate(old)
	}
	child.parent = parent
	parent.children = append(parent.children, child)
	t.invalidate(parent)
	return nil
}

// Detach unlinks childID from parentID; the child becomes a root.
func (t *Tree) Detach(parentID, childID string) error {
	parent, ok := t.nodes[parentID]
	if !ok {
		return notFound(parentID)
	}
	child, ok := t.nodes[childID]
	if !ok {
		return notFound(childID)
	}
	if child.parent != parent {
		return fmt.Errorf("%w: %s under %s", ErrNotChild, childID, parentID)
	}
	parent.children = removeChild(parent.children, child)
	child.parent = nil
	t.invalidate(parent)
	return nil
}

// Remove deletes the node and its whole subtree and returns the removed ids,
// parents before children.
func (t *Tree) Remove(id string) ([]string, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, notFound(id)
	}
	removed := make([]string, 0, 1)
	walk(n, func(d *node) {
		removed = append(removed, d.id)
		delete(t.nodes, d.id)
		delete(t.dirty, d)
	})
	if p := n.parent; p != nil {
		p.children = removeChild(p.children, n)
		n.parent = nil
		t.invalidate(p)
	}
	return removed, nil
}

// Defer suspends eager propagation. Mutations mark nodes dirty until Settle.
func (t *Tree) Defer() {
	t.deferred = true
}

// Settle recomputes every dirty node and its ancestors once, deepest first,
// and resumes eager propagation.
func (t *Tree) Settle() {
	t.settle()
	t.deferred = false
}

// Deferred reports whether propagation is currently suspended.
func (t *Tree) Deferred() bool {
	return t.deferred
}

// Has reports whether id exists.
func (t *Tree) Has(id string) bool {
	_, ok := t.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Aggregate returns the value observers read for id.
func (t *Tree) Aggregate(id string) (float64, error) {
	t.settle()
	n, ok := t.nodes[id]
	if !ok {
		return 0, notFound(id)
	}
	return n.agg, nil
}

// Leaf returns the stored leaf value for id, whether or not it is in effect.
func (t *Tree) Leaf(id string) (float64, error) {
	n, ok := t.nodes[id]
	if !ok {
		return 0, notFound(id)
	}
	return n.leaf, nil
}

// Parent returns the parent id, or false for a root.
func (t *Tree) Parent(id string) (string, bool) {
	n, ok := t.nodes[id]
	if !ok || n.parent == nil {
		return "", false
	}
	return n.parent.id, true
}

// Children returns the child ids in attach order.
func (t *Tree) Children(id string) []string {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	ids := make([]string, len(n.children))
	for i, c := range n.children {
		ids[i] = c.id
	}
	return ids
}

// Depth returns the number of ancestors of id.
func (t *Tree) Depth(id string) (int, error) {
	n, ok := t.nodes[id]
	if !ok {
		return 0, notFound(id)
	}
	return n.depth(), nil
}

// Descendants returns every node below id in depth-first order.
func (t *Tree) Descendants(id string) []string {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	var ids []string
	for _, c := range n.children {
		walk(c, func(d *node) { ids = append(ids, d.id) })
	}
	return ids
}

// Roots returns the ids of parentless nodes in insertion order.
func (t *Tree) Roots() []string {
	roots := t.roots()
	ids := make([]string, len(roots))
	for i, r := range roots {
		ids[i] = r.id
	}
	return ids
}

// RootAggregates returns the aggregates of the roots in insertion order.
func (t *Tree) RootAggregates() []float64 {
	t.settle()
	roots := t.roots()
	vals := make([]float64, len(roots))
	for i, r := range roots {
		vals[i] = r.agg
	}
	return vals
}

// Snapshot returns the aggregate of every node in the subtree rooted at id.
func (t *Tree) Snapshot(id string) (map[string]float64, error) {
	t.settle()
	n, ok := t.nodes[id]
	if !ok {
		return nil, notFound(id)
	}
	out := make(map[string]float64)
	walk(n, func(d *node) { out[d.id] = d.agg })
	return out, nil
}

// SnapshotAll returns the aggregate of every node.
func (t *Tree) SnapshotAll() map[string]float64 {
	t.settle()
	out := make(map[string]float64, len(t.nodes))
	for id, n := range t.nodes {
		out[id] = n.agg
	}
	return out
}

func (t *Tree) roots() []*node {
	var roots []*node
	for _, n := range t.nodes {
		if n.parent == nil {
			roots = append(roots, n)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].seq < roots[j].seq })
	return roots
}

func (t *Tree) invalidate(n *node) {
	if t.deferred {
		t.dirty[n] = struct{}{}
		return
	}
	for cur := n; cur != nil; cur = cur.parent {
		t.recompute(cur)
	}
}

// settle recomputes the union of dirty nodes and their ancestors. Deeper nodes
// go first so every parent reads settled children.
func (t *Tree) settle() {
	if len(t.dirty) == 0 {
		return
	}
	affected := make(map[*node]int)
	for n := range t.dirty {
		for cur := n; cur != nil; cur = cur.parent {
			if _, seen := affected[cur]; seen {
				break
			}
			affected[cur] = cur.depth()
		}
	}
	order := make([]*node, 0, len(affected))
	for n := range affected {
		order = append(order, n)
	}
	sort.Slice(order, func(i, j int) bool {
		di, dj := affected[order[i]], affected[order[j]]
		if di != dj {
			return di > dj
		}
		return order[i].seq < order[j].seq
	})
	for _, n := range order {
		t.recompute(n)
	}
	clear(t.dirty)
}

func (t *Tree) recompute(n *node) {
	if len(n.children) == 0 {
		n.agg = n.leaf
		return
	}
	vals := make([]float64, len(n.children))
	for i, c := range n.children {
		vals[i] = c.agg
	}
	n.agg = t.reduce(vals)
}

// cyclePath returns the offending path when attaching child under parent
// would close a loop, or nil.
func cyclePath(parent, child *node) []string {
	var chain []string
	for cur := parent; cur != nil; cur = cur.parent {
		chain = append(chain, cur.id)
		if cur == child {
			path := make([]string, 0, len(chain)+1)
			for i := len(chain) - 1; i >= 0; i-- {
				path = append(path, chain[i])
			}
			return append(path, child.id)
		}
	}
	return nil
}

func removeChild(children []*node, target *node) []*node {
	for i, c := range children {
		if c == target {
			return append(children[:i:i], children[i+1:]...)
		}
	}
	return children
}

func walk(n *node, fn func(*node)) {
	fn(n)
	for _, c := range n.children {
		walk(c, fn)
	}
}
