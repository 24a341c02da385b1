// Package rollup maintains trees of numeric nodes whose internal values are
// derived from their children through a Reducer.
//
// A node carries two numbers:
//   - leaf: the value entered for the node itself
//   - aggregate: the value observers read
//
// A node without children reports its leaf as the aggregate. A node with
// children reports reduce(children aggregates) and its leaf stays stored but
// inert until the last child is removed. Every mutator propagates the change
// to the root before it returns, unless the tree is deferred, in which case
// Settle recomputes each affected ancestor exactly once.
//
// A Tree is not safe for concurrent use; callers serialize access.
package rollup
