// Package types provides the record model shared by the generator, the
// workload operations and the benchmark harness.
package types

import "time"

// Departments is the fixed department lookup table, in generation index order.
var Departments = []string{"Engineering", "Sales", "Marketing", "HR", "Finance"}

// NameTokens is the fixed name lookup table, in generation index order.
var NameTokens = []string{"John", "Jane", "Bob", "Alice", "Charlie", "Diana", "Eve", "Frank"}

// Person is a single generated row. Values are never modified after the
// dataset has been generated; every workload operation treats a []Person as
// a read-only snapshot.
type Person struct {
	// ID is the dense 1..N identifier, assigned in generation order
	ID int `json:"id"`

	// Name is a name token followed by the decimal ID (e.g. "Alice482913")
	Name string `json:"name"`

	// Age is in [22, 64]
	Age int `json:"age"`

	// Department is one of Departments
	Department string `json:"department"`

	// Salary is in [30000, 150000)
	Salary float64 `json:"salary"`

	// HireDate is the generation instant minus 1..3650 whole days
	HireDate time.Time `json:"hire_date"`
}

// AgeGroup returns the floor-decade bucket of the person's age, e.g. 37 -> 30.
// It is recomputed on each call so there is no cached state to share.
func (p *Person) AgeGroup() int {
	return AgeGroupOf(p.Age)
}

// AgeGroupOf returns the floor-decade bucket of age.
func AgeGroupOf(age int) int {
	return (age / 10) * 10
}

// DaysBetween returns the number of whole days elapsed from start to end.
// A negative span truncates toward zero.
func DaysBetween(start, end time.Time) int64 {
	return int64(end.Sub(start) / (24 * time.Hour))
}
