package aggregator

import (
	"cmp"
	"sort"
)

// SortKey is one ORDER BY term: a three-way comparison and a direction.
type SortKey[T any] struct {
	Compare func(a, b *T) int
	Desc    bool
}

// Asc orders by the value extracted with field, ascending.
func Asc[T any, V cmp.Ordered](field func(*T) V) SortKey[T] {
	return SortKey[T]{Compare: func(a, b *T) int { return cmp.Compare(field(a), field(b)) }}
}

// Desc orders by the value extracted with field, descending.
func Desc[T any, V cmp.Ordered](field func(*T) V) SortKey[T] {
	return SortKey[T]{Compare: func(a, b *T) int { return cmp.Compare(field(a), field(b)) }, Desc: true}
}

// OrderBySorter sorts rows by one or more keys.
// Equal rows keep their input order.
type OrderBySorter[T any] struct {
	keys []SortKey[T]
}

// NewOrderBySorter creates a new sorter for the given keys, most significant first.
func NewOrderBySorter[T any](keys ...SortKey[T]) *OrderBySorter[T] {
	return &OrderBySorter[T]{keys: keys}
}

// Sort sorts the rows in place.
func (s *OrderBySorter[T]) Sort(rows []T) {
	if len(s.keys) == 0 || len(rows) <= 1 {
		return
	}

	// Stable sort preserves insertion order for equal elements
	sort.SliceStable(rows, func(i, j int) bool {
		return s.less(&rows[i], &rows[j])
	})
}

func (s *OrderBySorter[T]) less(a, b *T) bool {
	for _, key := range s.keys {
		c := key.Compare(a, b)
		if c == 0 {
			continue
		}
		if key.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

// SortAndLimit sorts rows and applies LIMIT/OFFSET. A negative limit means
// no limit.
func (s *OrderBySorter[T]) SortAndLimit(rows []T, limit, offset int) []T {
	s.Sort(rows)

	if offset > 0 {
		if offset >= len(rows) {
			return rows[:0]
		}
		rows = rows[offset:]
	}

	return Limit(rows, limit)
}

// TopN returns the first n rows in sort order.
func (s *OrderBySorter[T]) TopN(rows []T, n int) []T {
	return s.SortAndLimit(rows, n, 0)
}

// Limit truncates rows to at most n elements. A negative n means no limit.
func Limit[T any](rows []T, n int) []T {
	if n >= 0 && n < len(rows) {
		return rows[:n]
	}
	return rows
}
