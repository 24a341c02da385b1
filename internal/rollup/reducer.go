package rollup

// Reducer folds the aggregates of a node's children into the node's aggregate.
// It is only called with a non-empty slice by Tree, but the provided reducers
// also accept an empty one.
type Reducer func(values []float64) float64

// Sum adds the values. Used for bill-of-quantity totals.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Mean averages the values and returns 0 for an empty slice. Used for task
// progress.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}
