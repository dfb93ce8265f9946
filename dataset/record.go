// Package dataset holds the canonical long-form enrollment table and the
// steps that build it: wide → long normalization and assembly.
package dataset

import (
	"github.com/spektr-org/enrollstat/schema"
)

// Record is one row of the canonical long-form table.
type Record struct {
	Curriculum  string  `json:"curriculum" yaml:"curriculum"`
	CourseGroup string  `json:"course_group" yaml:"course_group"`
	AgeBracket  string  `json:"age_bracket" yaml:"age_bracket"`
	Period      int     `json:"period" yaml:"period"`
	Headcount   float64 `json:"headcount" yaml:"headcount"`
}

// NewRecord builds a record with its course group derived from curriculum.
func NewRecord(curriculum, age string, period int, headcount float64) Record {
	return Record{
		Curriculum:  curriculum,
		CourseGroup: schema.CourseGroup(curriculum),
		AgeBracket:  age,
		Period:      period,
		Headcount:   headcount,
	}
}

// WideTable is one source sheet as read: curriculum rows × age columns.
// A bracket missing from a row's Counts is an absent cell.
type WideTable struct {
	Source       string    `json:"source"`
	Sheet        string    `json:"sheet,omitempty"`
	AgeBrackets  []string  `json:"ageBrackets"`
	Rows         []WideRow `json:"rows"`
	InvalidCells int       `json:"invalidCells,omitempty"`
}

// WideRow is one curriculum line of a wide sheet.
type WideRow struct {
	Curriculum string             `json:"curriculum"`
	Counts     map[string]float64 `json:"counts"`
}

// Cells returns the number of present cells.
func (w WideTable) Cells() int {
	n := 0
	for _, r := range w.Rows {
		n += len(r.Counts)
	}
	return n
}

// Empty reports whether the table has no present cells.
func (w WideTable) Empty() bool { return w.Cells() == 0 }

// Fragment is the normalized long form of one source sheet.
type Fragment struct {
	Source  string   `json:"source"`
	Sheet   string   `json:"sheet,omitempty"`
	Period  int      `json:"period"`
	Records []Record `json:"records"`
}

// Len returns the number of records in the fragment.
func (f Fragment) Len() int { return len(f.Records) }
