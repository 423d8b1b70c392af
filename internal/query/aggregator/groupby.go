package aggregator

// OrderedGroups accumulates per-key state and remembers the order in which
// keys were first seen. Iteration never depends on map order, so pipelines
// built on it produce the same output for the same input.
type OrderedGroups[K comparable, A any] struct {
	index  map[K]int
	keys   []K
	accs   []A
	newAcc func(K) A
}

// NewOrderedGroups creates an empty grouping. newAcc builds the accumulator
// for a key the first time it is seen.
func NewOrderedGroups[K comparable, A any](newAcc func(K) A) *OrderedGroups[K, A] {
	return &OrderedGroups[K, A]{
		index:  make(map[K]int),
		newAcc: newAcc,
	}
}

// Get returns the accumulator for key, creating it on first use.
func (g *OrderedGroups[K, A]) Get(key K) A {
	if i, ok := g.index[key]; ok {
		return g.accs[i]
	}
	acc := g.newAcc(key)
	g.index[key] = len(g.keys)
	g.keys = append(g.keys, key)
	g.accs = append(g.accs, acc)
	return acc
}

// Len returns the number of distinct keys seen.
func (g *OrderedGroups[K, A]) Len() int {
	return len(g.keys)
}

// Each calls fn for every group in first-encounter order.
func (g *OrderedGroups[K, A]) Each(fn func(key K, acc A)) {
	for i, k := range g.keys {
		fn(k, g.accs[i])
	}
}

// GroupBy partitions rows by keyFn and folds each row into its group's
// accumulator with add. Groups are returned in first-encounter order.
func GroupBy[T any, K comparable, A any](rows []T, keyFn func(*T) K, newAcc func(K) A, add func(A, *T)) *OrderedGroups[K, A] {
	groups := NewOrderedGroups[K, A](newAcc)
	for i := range rows {
		row := &rows[i]
		add(groups.Get(keyFn(row)), row)
	}
	return groups
}

// Distinct returns the distinct keys of rows in first-encounter order.
func Distinct[T any, K comparable](rows []T, keyFn func(*T) K) []K {
	seen := make(map[K]struct{})
	var keys []K
	for i := range rows {
		k := keyFn(&rows[i])
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}
