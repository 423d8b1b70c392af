package types

// DepartmentStats is one output row of the complex filter/group/aggregate operation.
type DepartmentStats struct {
	Department    string  `json:"department"`
	Count         int     `json:"count"`
	AverageSalary float64 `json:"average_salary"`
	MaxSalary     float64 `json:"max_salary"`
	MinAge        int     `json:"min_age"`
}

// AgeGroupStats is one output row of the composite (department, age group) grouping.
type AgeGroupStats struct {
	Department        string  `json:"department"`
	AgeGroup          int     `json:"age_group"`
	Count             int     `json:"count"`
	TotalSalary       float64 `json:"total_salary"`
	AverageTenureDays float64 `json:"average_tenure_days"`
}

// PersonProjection is one output row of the string projection.
type PersonProjection struct {
	ID         int    `json:"id"`
	UpperName  string `json:"upper_name"`
	NameLength int    `json:"name_length"`

	// FormattedSalary is a US-dollar rendering of the salary. It is
	// cosmetic; consumers should compare the numeric value instead.
	FormattedSalary string `json:"formatted_salary"`

	IsManager bool `json:"is_manager"`
}

// DepartmentAnalysis is one output row of the nested per-department scan.
type DepartmentAnalysis struct {
	Department    string  `json:"department"`
	EmployeeCount int     `json:"employee_count"`
	HighEarners   int     `json:"high_earners"`
	AverageAge    float64 `json:"average_age"`

	// Employees points into the shared snapshot and must not be modified.
	Employees []*Person `json:"-"`
}

// YoungProfessional is one output row of the recent-hire projection.
type YoungProfessional struct {
	ID                  int     `json:"id"`
	Name                string  `json:"name"`
	Age                 int     `json:"age"`
	SalaryBracket       string  `json:"salary_bracket"`
	YearsOfService      float64 `json:"years_of_service"`
	IsYoungProfessional bool    `json:"is_young_professional"`
}

// Salary bracket labels, lowest first.
const (
	BracketEntryLevel = "Entry Level"
	BracketJunior     = "Junior"
	BracketMidLevel   = "Mid Level"
	BracketSenior     = "Senior"
	BracketExecutive  = "Executive"
)

// SalaryBracket maps a salary to its bracket. A salary lands in the first
// bracket whose upper bound it is strictly less than.
func SalaryBracket(salary float64) string {
	switch {
	case salary < 40000:
		return BracketEntryLevel
	case salary < 60000:
		return BracketJunior
	case salary < 80000:
		return BracketMidLevel
	case salary < 100000:
		return BracketSenior
	default:
		return BracketExecutive
	}
}
