package workload

import (
	"fmt"
	"strings"

	benchErrors "github.com/arkilian/pipebench/internal/errors"
	"github.com/arkilian/pipebench/pkg/types"
)

// Operation labels, as printed in the results table.
const (
	LabelComplexStreamChain   = "Complex Stream Chain"
	LabelGroupByAggregation   = "GroupBy with Aggregation"
	LabelStringOperations     = "String Operations"
	LabelNestedQueries        = "Nested Queries"
	LabelProjectionWithFilter = "Projection with Filter"
)

// Operation is a named pipeline the harness can time.
type Operation struct {
	Label string
	Run   func(people []types.Person) Result
}

// Operations returns every pipeline in reporting order.
func (w *Workload) Operations() []Operation {
	return []Operation{
		{
			Label: LabelComplexStreamChain,
			Run: func(people []types.Person) Result {
				return DepartmentStatsResult(w.ComplexStreamChain(people))
			},
		},
		{
			Label: LabelGroupByAggregation,
			Run: func(people []types.Person) Result {
				return AgeGroupStatsResult(w.GroupByAggregation(people))
			},
		},
		{
			Label: LabelStringOperations,
			Run: func(people []types.Person) Result {
				return PersonProjectionResult(w.StringOperations(people))
			},
		},
		{
			Label: LabelNestedQueries,
			Run: func(people []types.Person) Result {
				return DepartmentAnalysisResult(w.NestedQueries(people))
			},
		},
		{
			Label: LabelProjectionWithFilter,
			Run: func(people []types.Person) Result {
				return YoungProfessionalResult(w.ProjectionWithFilter(people))
			},
		},
	}
}

// Select filters ops down to the named labels, keeping reporting order.
// Names match case-insensitively. An empty names list selects everything.
func Select(ops []Operation, names []string) ([]Operation, error) {
	if len(names) == 0 {
		return ops, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(strings.TrimSpace(n))] = true
	}

	selected := make([]Operation, 0, len(names))
	for _, op := range ops {
		key := strings.ToLower(op.Label)
		if wanted[key] {
			selected = append(selected, op)
			delete(wanted, key)
		}
	}

	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for _, n := range names {
			if wanted[strings.ToLower(strings.TrimSpace(n))] {
				unknown = append(unknown, n)
			}
		}
		return nil, benchErrors.NewValidationError(benchErrors.CodeUnknownOperation,
			fmt.Sprintf("unknown operation(s): %s", strings.Join(unknown, ", ")))
	}
	return selected, nil
}
