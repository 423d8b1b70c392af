// Package aggregator provides the building blocks the workload pipelines are
// composed from: partial aggregates, ordered group-by and stable multi-key
// sorting with take-N.
package aggregator

import "fmt"

// AggregateType represents the type of aggregate function.
type AggregateType int

const (
	AggCount AggregateType = iota
	AggSum
	AggMin
	AggMax
	AggAvg
)

// String returns the upper-case function name.
func (t AggregateType) String() string {
	switch t {
	case AggCount:
		return "COUNT"
	case AggSum:
		return "SUM"
	case AggMin:
		return "MIN"
	case AggMax:
		return "MAX"
	case AggAvg:
		return "AVG"
	}
	return fmt.Sprintf("AggregateType(%d)", int(t))
}

// PartialAggregate holds the running state of one aggregate over a group.
// For AVG, both Sum and Count are tracked.
type PartialAggregate struct {
	Type  AggregateType
	Count int64   // values seen (used by COUNT and AVG)
	Sum   float64 // running sum (used by SUM and AVG)
	Min   float64 // current minimum, valid once IsSet
	Max   float64 // current maximum, valid once IsSet
	IsSet bool    // true once at least one value has been accumulated
}

// NewPartialAggregate creates a new empty partial aggregate of the given type.
func NewPartialAggregate(aggType AggregateType) *PartialAggregate {
	return &PartialAggregate{Type: aggType}
}

// Accumulate adds a single value to the partial aggregate.
func (p *PartialAggregate) Accumulate(value float64) {
	switch p.Type {
	case AggCount:
		p.Count++

	case AggSum, AggAvg:
		p.Sum += value
		p.Count++

	case AggMin:
		if !p.IsSet || value < p.Min {
			p.Min = value
		}
		p.Count++

	case AggMax:
		if !p.IsSet || value > p.Max {
			p.Max = value
		}
		p.Count++
	}
	p.IsSet = true
}

// Result returns the final value of this partial aggregate. An aggregate
// that has seen no values yields 0, including AVG.
func (p *PartialAggregate) Result() float64 {
	if !p.IsSet {
		return 0
	}

	switch p.Type {
	case AggCount:
		return float64(p.Count)
	case AggSum:
		return p.Sum
	case AggMin:
		return p.Min
	case AggMax:
		return p.Max
	case AggAvg:
		if p.Count == 0 {
			return 0
		}
		return p.Sum / float64(p.Count)
	}
	return 0
}
