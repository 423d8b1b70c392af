package workload

import (
	"encoding/binary"
	"hash"
	"math"

	"github.com/spaolacci/murmur3"

	"github.com/arkilian/pipebench/pkg/types"
)

// Result is the output of one pipeline run.
type Result interface {
	// Len returns the number of output rows.
	Len() int

	// Fingerprint returns a 64-bit hash of the canonical encoding of every
	// row, in order. Equal outputs always have equal fingerprints.
	Fingerprint() uint64
}

// Typed results, one per pipeline.
type (
	DepartmentStatsResult    []types.DepartmentStats
	AgeGroupStatsResult      []types.AgeGroupStats
	PersonProjectionResult   []types.PersonProjection
	DepartmentAnalysisResult []types.DepartmentAnalysis
	YoungProfessionalResult  []types.YoungProfessional
)

func (r DepartmentStatsResult) Len() int    { return len(r) }
func (r AgeGroupStatsResult) Len() int      { return len(r) }
func (r PersonProjectionResult) Len() int   { return len(r) }
func (r DepartmentAnalysisResult) Len() int { return len(r) }
func (r YoungProfessionalResult) Len() int  { return len(r) }

func (r DepartmentStatsResult) Fingerprint() uint64 {
	e := newEncoder()
	for _, s := range r {
		e.putString(s.Department)
		e.putInt(int64(s.Count))
		e.putFloat(s.AverageSalary)
		e.putFloat(s.MaxSalary)
		e.putInt(int64(s.MinAge))
	}
	return e.sum(len(r))
}

func (r AgeGroupStatsResult) Fingerprint() uint64 {
	e := newEncoder()
	for _, s := range r {
		e.putString(s.Department)
		e.putInt(int64(s.AgeGroup))
		e.putInt(int64(s.Count))
		e.putFloat(s.TotalSalary)
		e.putFloat(s.AverageTenureDays)
	}
	return e.sum(len(r))
}

func (r PersonProjectionResult) Fingerprint() uint64 {
	e := newEncoder()
	for _, s := range r {
		e.putInt(int64(s.ID))
		e.putString(s.UpperName)
		e.putInt(int64(s.NameLength))
		e.putString(s.FormattedSalary)
		e.putBool(s.IsManager)
	}
	return e.sum(len(r))
}

// Fingerprint covers member IDs as well as the summary columns.
func (r DepartmentAnalysisResult) Fingerprint() uint64 {
	e := newEncoder()
	for _, s := range r {
		e.putString(s.Department)
		e.putInt(int64(s.EmployeeCount))
		e.putInt(int64(s.HighEarners))
		e.putFloat(s.AverageAge)
		for _, p := range s.Employees {
			e.putInt(int64(p.ID))
		}
	}
	return e.sum(len(r))
}

func (r YoungProfessionalResult) Fingerprint() uint64 {
	e := newEncoder()
	for _, s := range r {
		e.putInt(int64(s.ID))
		e.putString(s.Name)
		e.putInt(int64(s.Age))
		e.putString(s.SalaryBracket)
		e.putFloat(s.YearsOfService)
		e.putBool(s.IsYoungProfessional)
	}
	return e.sum(len(r))
}

// encoder writes fixed-width little-endian fields into a murmur3 hash.
// Strings are length-prefixed so adjacent fields cannot alias.
type encoder struct {
	h   hash.Hash64
	buf [8]byte
}

func newEncoder() *encoder {
	return &encoder{h: murmur3.New64()}
}

func (e *encoder) putInt(v int64) {
	binary.LittleEndian.PutUint64(e.buf[:], uint64(v))
	e.h.Write(e.buf[:])
}

func (e *encoder) putFloat(v float64) {
	binary.LittleEndian.PutUint64(e.buf[:], math.Float64bits(v))
	e.h.Write(e.buf[:])
}

func (e *encoder) putBool(v bool) {
	if v {
		e.putInt(1)
		return
	}
	e.putInt(0)
}

func (e *encoder) putString(v string) {
	e.putInt(int64(len(v)))
	e.h.Write([]byte(v))
}

// sum finishes the hash with the row count.
func (e *encoder) sum(rows int) uint64 {
	e.putInt(int64(rows))
	return e.h.Sum64()
}
