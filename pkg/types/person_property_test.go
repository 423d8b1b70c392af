package types

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_AgeGroupFormula checks that the age bucket is always the
// floor decade of the age and never exceeds it.
func TestProperty_AgeGroupFormula(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("age group is the floor decade", prop.ForAll(
		func(age int) bool {
			p := Person{Age: age}
			group := p.AgeGroup()
			return group == (age/10)*10 && group <= age && age-group < 10 && group%10 == 0
		},
		gen.IntRange(0, 200),
	))

	properties.Property("age group is stable across calls", prop.ForAll(
		func(age int) bool {
			p := Person{Age: age}
			return p.AgeGroup() == p.AgeGroup()
		},
		gen.IntRange(22, 64),
	))

	properties.TestingRun(t)
}

// TestProperty_SalaryBracketMonotonic checks that brackets never step down as
// salary increases.
func TestProperty_SalaryBracketMonotonic(t *testing.T) {
	rank := map[string]int{
		BracketEntryLevel: 0,
		BracketJunior:     1,
		BracketMidLevel:   2,
		BracketSenior:     3,
		BracketExecutive:  4,
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("higher salary never yields a lower bracket", prop.ForAll(
		func(a, b float64) bool {
			if a > b {
				a, b = b, a
			}
			return rank[SalaryBracket(a)] <= rank[SalaryBracket(b)]
		},
		gen.Float64Range(30000, 150000),
		gen.Float64Range(30000, 150000),
	))

	properties.TestingRun(t)
}
