package recompute

import "fmt"

// ComputeFunc recomputes one derived field from current state.
type ComputeFunc func()

// Scheduler runs bound compute funcs in graph order whenever inputs are
// touched. Between Begin and the matching Flush touches accumulate and every
// affected derived field runs once.
type Scheduler struct {
	graph   *Graph
	compute map[Key]ComputeFunc
	depth   int
	pending []Key
	runs    map[Key]int
}

// NewScheduler returns a Scheduler over a built graph.
func NewScheduler(g *Graph) *Scheduler {
	return &Scheduler{
		graph:   g,
		compute: make(map[Key]ComputeFunc),
		runs:    make(map[Key]int),
	}
}

// Bind registers fn as the computation of a derived key.
func (s *Scheduler) Bind(key Key, fn ComputeFunc) error {
	if !s.graph.IsDerived(key) {
		return fmt.Errorf("binding %q: not a derived key", key)
	}
	s.compute[key] = fn
	return nil
}

// Touch records that keys changed. Outside a batch the affected fields are
// recomputed before Touch returns.
func (s *Scheduler) Touch(keys ...Key) {
	if s.depth > 0 {
		s.pending = append(s.pending, keys...)
		return
	}
	s.run(keys)
}

// Begin opens a batch. Batches nest; only the outermost Flush recomputes.
func (s *Scheduler) Begin() {
	s.depth++
}

// Flush closes a batch and recomputes everything touched inside it.
func (s *Scheduler) Flush() {
	if s.depth == 0 {
		return
	}
	s.depth--
	if s.depth > 0 {
		return
	}
	pending := s.pending
	s.pending = nil
	s.run(pending)
}

// InBatch reports whether a batch is open.
func (s *Scheduler) InBatch() bool {
	return s.depth > 0
}

// Runs returns how many times key has been recomputed.
func (s *Scheduler) Runs(key Key) int {
	return s.runs[key]
}

// RecomputeAll runs every bound field once in graph order.
func (s *Scheduler) RecomputeAll() {
	for _, k := range s.graph.Order() {
		s.exec(k)
	}
}

func (s *Scheduler) run(changed []Key) {
	for _, k := range s.graph.Plan(changed...) {
		s.exec(k)
	}
}

func (s *Scheduler) exec(k Key) {
	fn, ok := s.compute[k]
	if !ok {
		return
	}
	fn()
	s.runs[k]++
}
