// Package workload implements the five analytical pipelines that are timed
// by the benchmark harness. Every pipeline reads a shared, immutable
// []types.Person snapshot and recomputes its result from scratch.
package workload

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/arkilian/pipebench/internal/query/aggregator"
	"github.com/arkilian/pipebench/pkg/types"
)

// Pipeline thresholds.
const (
	complexMinAge       = 25
	complexMinSalary    = 50000.0
	complexMinGroupSize = 10

	ageGroupMinGroupSize = 5

	projectionMinNameLength = 5
	managerSalary           = 100000.0

	highEarnerSalary  = 75000.0
	nestedMinDeptSize = 50

	recentHireWindowDays = 5 * 365.25
	daysPerYear          = 365.25
	youngMaxAge          = 30
	youngMinSalary       = 60000.0
	recentHireLimit      = 1000
)

// Workload runs the pipelines. It is safe to reuse across runs; it holds no
// per-run state.
type Workload struct {
	clock   func() time.Time
	printer *message.Printer
}

// Option configures a Workload.
type Option func(*Workload)

// WithClock sets the source of "now". Each pipeline reads it once per
// invocation.
func WithClock(clock func() time.Time) Option {
	return func(w *Workload) {
		w.clock = clock
	}
}

// New creates a Workload using the wall clock and US-English currency
// formatting.
func New(opts ...Option) *Workload {
	w := &Workload{
		clock:   time.Now,
		printer: message.NewPrinter(language.AmericanEnglish),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// departmentAggregates is the per-department state of ComplexStreamChain.
type departmentAggregates struct {
	salary    *aggregator.PartialAggregate
	maxSalary *aggregator.PartialAggregate
	minAge    *aggregator.PartialAggregate
}

// ComplexStreamChain keeps people older than 25 earning over 50000, groups
// them by department and returns departments with more than 10 members,
// highest average salary first.
func (w *Workload) ComplexStreamChain(people []types.Person) []types.DepartmentStats {
	groups := aggregator.NewOrderedGroups(func(string) *departmentAggregates {
		return &departmentAggregates{
			salary:    aggregator.NewPartialAggregate(aggregator.AggAvg),
			maxSalary: aggregator.NewPartialAggregate(aggregator.AggMax),
			minAge:    aggregator.NewPartialAggregate(aggregator.AggMin),
		}
	})

	for i := range people {
		p := &people[i]
		if p.Age <= complexMinAge || p.Salary <= complexMinSalary {
			continue
		}
		acc := groups.Get(p.Department)
		acc.salary.Accumulate(p.Salary)
		acc.maxSalary.Accumulate(p.Salary)
		acc.minAge.Accumulate(float64(p.Age))
	}

	out := make([]types.DepartmentStats, 0, groups.Len())
	groups.Each(func(dept string, acc *departmentAggregates) {
		count := int(acc.salary.Count)
		if count <= complexMinGroupSize {
			return
		}
		out = append(out, types.DepartmentStats{
			Department:    dept,
			Count:         count,
			AverageSalary: acc.salary.Result(),
			MaxSalary:     acc.maxSalary.Result(),
			MinAge:        int(acc.minAge.Result()),
		})
	})

	aggregator.NewOrderBySorter(
		aggregator.Desc(func(s *types.DepartmentStats) float64 { return s.AverageSalary }),
	).Sort(out)
	return out
}

type ageGroupKey struct {
	department string
	ageGroup   int
}

type ageGroupAggregates struct {
	salary *aggregator.PartialAggregate
	tenure *aggregator.PartialAggregate
}

// GroupByAggregation groups everyone by (department, age decade) and returns
// groups with more than 5 members ordered by department, then age group.
func (w *Workload) GroupByAggregation(people []types.Person) []types.AgeGroupStats {
	now := w.clock()

	groups := aggregator.GroupBy(people,
		func(p *types.Person) ageGroupKey {
			return ageGroupKey{department: p.Department, ageGroup: p.AgeGroup()}
		},
		func(ageGroupKey) *ageGroupAggregates {
			return &ageGroupAggregates{
				salary: aggregator.NewPartialAggregate(aggregator.AggSum),
				tenure: aggregator.NewPartialAggregate(aggregator.AggAvg),
			}
		},
		func(acc *ageGroupAggregates, p *types.Person) {
			acc.salary.Accumulate(p.Salary)
			acc.tenure.Accumulate(float64(types.DaysBetween(p.HireDate, now)))
		},
	)

	out := make([]types.AgeGroupStats, 0, groups.Len())
	groups.Each(func(key ageGroupKey, acc *ageGroupAggregates) {
		count := int(acc.salary.Count)
		if count <= ageGroupMinGroupSize {
			return
		}
		out = append(out, types.AgeGroupStats{
			Department:        key.department,
			AgeGroup:          key.ageGroup,
			Count:             count,
			TotalSalary:       acc.salary.Result(),
			AverageTenureDays: acc.tenure.Result(),
		})
	})

	aggregator.NewOrderBySorter(
		aggregator.Asc(func(s *types.AgeGroupStats) string { return s.Department }),
		aggregator.Asc(func(s *types.AgeGroupStats) int { return s.AgeGroup }),
	).Sort(out)
	return out
}

// StringOperations projects people whose name contains a lowercase 'a' or
// 'e', keeps names longer than 5 bytes and orders by upper-cased name.
func (w *Workload) StringOperations(people []types.Person) []types.PersonProjection {
	var out []types.PersonProjection
	for i := range people {
		p := &people[i]
		if !strings.ContainsAny(p.Name, "ae") {
			continue
		}
		proj := types.PersonProjection{
			ID:              p.ID,
			UpperName:       strings.ToUpper(p.Name),
			NameLength:      len(p.Name),
			FormattedSalary: w.FormatCurrency(p.Salary),
			IsManager:       strings.HasSuffix(p.Name, "Manager") || p.Salary > managerSalary,
		}
		if proj.NameLength <= projectionMinNameLength {
			continue
		}
		out = append(out, proj)
	}
	if out == nil {
		out = []types.PersonProjection{}
	}

	aggregator.NewOrderBySorter(
		aggregator.Asc(func(s *types.PersonProjection) string { return s.UpperName }),
	).Sort(out)
	return out
}

// FormatCurrency renders an amount in US-dollar style, e.g. $123,456.79.
func (w *Workload) FormatCurrency(amount float64) string {
	return w.printer.Sprintf("$%.2f", amount)
}

// NestedQueries re-scans the full dataset once per distinct department and
// returns departments with more than 50 members, most high earners first.
func (w *Workload) NestedQueries(people []types.Person) []types.DepartmentAnalysis {
	departments := aggregator.Distinct(people, func(p *types.Person) string { return p.Department })

	out := make([]types.DepartmentAnalysis, 0, len(departments))
	for _, dept := range departments {
		var members []*types.Person
		highEarners := 0
		age := aggregator.NewPartialAggregate(aggregator.AggAvg)

		for i := range people {
			p := &people[i]
			if p.Department != dept {
				continue
			}
			members = append(members, p)
			if p.Salary > highEarnerSalary {
				highEarners++
			}
			age.Accumulate(float64(p.Age))
		}

		if len(members) <= nestedMinDeptSize {
			continue
		}
		out = append(out, types.DepartmentAnalysis{
			Department:    dept,
			EmployeeCount: len(members),
			HighEarners:   highEarners,
			AverageAge:    age.Result(),
			Employees:     members,
		})
	}

	aggregator.NewOrderBySorter(
		aggregator.Desc(func(s *types.DepartmentAnalysis) int { return s.HighEarners }),
	).Sort(out)
	return out
}

// ProjectionWithFilter returns up to 1000 young professionals hired in the
// last five years, longest-serving first.
func (w *Workload) ProjectionWithFilter(people []types.Person) []types.YoungProfessional {
	now := w.clock()
	cutoff := RecentHireCutoff(now)

	var out []types.YoungProfessional
	for i := range people {
		p := &people[i]
		if !p.HireDate.After(cutoff) {
			continue
		}
		yp := types.YoungProfessional{
			ID:                  p.ID,
			Name:                p.Name,
			Age:                 p.Age,
			SalaryBracket:       types.SalaryBracket(p.Salary),
			YearsOfService:      float64(types.DaysBetween(p.HireDate, now)) / daysPerYear,
			IsYoungProfessional: p.Age < youngMaxAge && p.Salary > youngMinSalary,
		}
		if !yp.IsYoungProfessional {
			continue
		}
		out = append(out, yp)
	}
	if out == nil {
		out = []types.YoungProfessional{}
	}

	return aggregator.NewOrderBySorter(
		aggregator.Desc(func(s *types.YoungProfessional) float64 { return s.YearsOfService }),
	).TopN(out, recentHireLimit)
}

// RecentHireCutoff returns the instant five years (5 x 365.25 days) before now.
func RecentHireCutoff(now time.Time) time.Time {
	return now.Add(-time.Duration(recentHireWindowDays * float64(24*time.Hour)))
}
