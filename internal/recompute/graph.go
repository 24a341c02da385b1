// Package recompute orders the recomputation of derived fields from an
// explicit dependency graph and batches recomputation across many writes.
package recompute

import (
	"container/heap"
	"sort"
)

// Key names an input or derived field, e.g. "project.total_cost".
type Key string

// Graph is a dependency graph of fields. Inputs are written by callers;
// derived keys are recomputed from their dependencies. Build must succeed
// before Plan or Order is used.
type Graph struct {
	keys     []Key
	index    map[Key]int
	deps     map[Key][]Key
	derived  map[Key]bool
	outgoing [][]int
	order    []int
	built    bool
	errs     []error
}

func NewGraph() *Graph {
	return &Graph{
		index:   make(map[Key]int),
		deps:    make(map[Key][]Key),
		derived: make(map[Key]bool),
	}
}

// Input declares fields written directly by callers.
func (g *Graph) Input(keys ...Key) *Graph {
	for _, k := range keys {
		g.declare(k)
	}
	return g
}

// Derive declares key as computed from deps. Every dependency must be
// declared, before or after, by the time Build runs.
func (g *Graph) Derive(key Key, deps ...Key) *Graph {
	g.declare(key)
	g.derived[key] = true
	g.deps[key] = append([]Key(nil), deps...)
	return g
}

func (g *Graph) declare(k Key) {
	if k == "" {
		g.errs = append(g.errs, invalidf("empty key"))
		return
	}
	if _, ok := g.index[k]; ok {
		g.errs = append(g.errs, invalidf("duplicate key %q", k))
		return
	}
	g.index[k] = len(g.keys)
	g.keys = append(g.keys, k)
	g.built = false
}

// Build validates the graph and fixes a deterministic topological order.
// Ties are broken by declaration order.
func (g *Graph) Build() error {
	if len(g.errs) > 0 {
		return g.errs[0]
	}
	g.outgoing = make([][]int, len(g.keys))
	indeg := make([]int, len(g.keys))
	for i, k := range g.keys {
		for _, d := range g.deps[k] {
			di, ok := g.index[d]
			if !ok {
				return invalidf("%q depends on undeclared key %q", k, d)
			}
			if d == k {
				return cycleError([]Key{k, k})
			}
			g.outgoing[di] = append(g.outgoing[di], i)
			indeg[i]++
		}
	}
	for i := range g.outgoing {
		sort.Ints(g.outgoing[i])
	}

	order := topoOrder(g.outgoing, indeg)
	if len(order) != len(g.keys) {
		return cycleError(g.findCycle())
	}
	g.order = order
	g.built = true
	return nil
}

// MustBuild is Build for graphs declared in code; it panics on error.
func (g *Graph) MustBuild() *Graph {
	if err := g.Build(); err != nil {
		panic(err)
	}
	return g
}

// IsDerived reports whether k was declared with Derive.
func (g *Graph) IsDerived(k Key) bool {
	return g.derived[k]
}

// Order returns every derived key in recompute order.
func (g *Graph) Order() []Key {
	var out []Key
	for _, i := range g.order {
		if k := g.keys[i]; g.derived[k] {
			out = append(out, k)
		}
	}
	return out
}

// Plan returns the derived keys affected by a change to any of changed,
// dependencies first. A derived key passed in changed is included itself.
// Unknown keys are ignored.
func (g *Graph) Plan(changed ...Key) []Key {
	if !g.built || len(changed) == 0 {
		return nil
	}
	reached := make([]bool, len(g.keys))
	var stack []int
	for _, k := range changed {
		i, ok := g.index[k]
		if !ok || reached[i] {
			continue
		}
		reached[i] = true
		stack = append(stack, i)
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, m := range g.outgoing[n] {
			if !reached[m] {
				reached[m] = true
				stack = append(stack, m)
			}
		}
	}

	var plan []Key
	for _, i := range g.order {
		if reached[i] && g.derived[g.keys[i]] {
			plan = append(plan, g.keys[i])
		}
	}
	return plan
}

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topoOrder is Kahn's algorithm with a min-heap ready queue.
func topoOrder(outgoing [][]int, indegree []int) []int {
	indeg := make([]int, len(indegree))
	copy(indeg, indegree)

	ready := &intMinHeap{}
	heap.Init(ready)
	for i := range indeg {
		if indeg[i] == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]int, 0, len(indeg))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		out = append(out, n)
		for _, m := range outgoing[n] {
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}
	return out
}

// findCycle returns one stable cycle witness via DFS over declaration order.
func (g *Graph) findCycle() []Key {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(g.keys))
	parent := make([]int, len(g.keys))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range g.outgoing[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				cycle = append(cycle, v)
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}
	for i := range g.keys {
		if color[i] == white && dfs(i) {
			break
		}
	}

	out := make([]Key, len(cycle))
	for i := range cycle {
		out[i] = g.keys[cycle[len(cycle)-1-i]]
	}
	return out
}
