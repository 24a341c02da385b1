package recompute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type diamondState struct {
	a, b             float64
	left, right, top float64
	trace            []Key
}

func bindDiamond(t *testing.T, st *diamondState) *Scheduler {
	t.Helper()
	s := NewScheduler(diamond(t))
	require.NoError(t, s.Bind("left", func() {
		st.left = st.a * 2
		st.trace = append(st.trace, "left")
	}))
	require.NoError(t, s.Bind("right", func() {
		st.right = st.a + st.b
		st.trace = append(st.trace, "right")
	}))
	require.NoError(t, s.Bind("top", func() {
		st.top = st.left + st.right
		st.trace = append(st.trace, "top")
	}))
	return s
}

func TestTouch_EagerRecomputesInOrder(t *testing.T) {
	st := &diamondState{}
	s := bindDiamond(t, st)

	st.a = 3
	s.Touch("a")

	assert.Equal(t, 6.0, st.left)
	assert.Equal(t, 3.0, st.right)
	assert.Equal(t, 9.0, st.top)
	assert.Equal(t, []Key{"left", "right", "top"}, st.trace)
}

func TestBatch_EachFieldOnce(t *testing.T) {
	st := &diamondState{}
	s := bindDiamond(t, st)

	s.Begin()
	for i := 1; i <= 5; i++ {
		st.a = float64(i)
		s.Touch("a")
		st.b = float64(i * 10)
		s.Touch("b")
	}
	assert.True(t, s.InBatch())
	assert.Empty(t, st.trace)
	s.Flush()

	assert.False(t, s.InBatch())
	assert.Equal(t, 1, s.Runs("left"))
	assert.Equal(t, 1, s.Runs("right"))
	assert.Equal(t, 1, s.Runs("top"))
	assert.Equal(t, 10.0+55.0, st.top)
}

func TestBatch_MatchesEager(t *testing.T) {
	eager := &diamondState{}
	es := bindDiamond(t, eager)
	eager.a, eager.b = 2, 7
	es.Touch("a")
	es.Touch("b")

	batched := &diamondState{}
	bs := bindDiamond(t, batched)
	bs.Begin()
	batched.a, batched.b = 2, 7
	bs.Touch("a", "b")
	bs.Flush()

	assert.Equal(t, eager.top, batched.top)
	assert.Equal(t, eager.left, batched.left)
	assert.Equal(t, eager.right, batched.right)
}

func TestBatch_Nested(t *testing.T) {
	st := &diamondState{}
	s := bindDiamond(t, st)

	s.Begin()
	s.Begin()
	st.b = 4
	s.Touch("b")
	s.Flush()
	assert.Empty(t, st.trace, "inner flush must not recompute")
	s.Flush()

	assert.Equal(t, []Key{"right", "top"}, st.trace)
}

func TestFlush_WithoutBeginIsNoop(t *testing.T) {
	st := &diamondState{}
	s := bindDiamond(t, st)
	s.Flush()
	assert.Empty(t, st.trace)
}

func TestBind_RejectsInputKey(t *testing.T) {
	s := NewScheduler(diamond(t))
	assert.Error(t, s.Bind("a", func() {}))
	assert.Error(t, s.Bind("unknown", func() {}))
}

func TestRecomputeAll(t *testing.T) {
	st := &diamondState{a: 1, b: 1}
	s := bindDiamond(t, st)

	s.RecomputeAll()

	assert.Equal(t, 4.0, st.top)
	assert.Equal(t, []Key{"left", "right", "top"}, st.trace)
}
