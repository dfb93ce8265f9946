package schema

// ============================================================================
// SCHEMA: Shape of the canonical long-form enrollment table
// ============================================================================
// Every source sheet is validated against this shape once, at the loader
// boundary. After that the pipeline works on typed rows; the metadata here
// only drives labels, header matching and display ordering.
// ============================================================================

// Canonical column keys of the long-form table.
const (
	KeyCurriculum  = "curriculum"
	KeyCourseGroup = "course_group"
	KeyAgeBracket  = "age_bracket"
	KeyPeriod      = "period"
	KeyHeadcount   = "headcount"
)

// DefaultCurriculumHeader is the header of the curriculum identifier column
// in the wide source sheets.
const DefaultCurriculumHeader = "커리큘럼"

// Config describes the canonical table: its dimensions and its one measure.
type Config struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions"`
	Measures   []MeasureMeta   `json:"measures"`

	// CurriculumHeader is the wide-sheet header that holds curriculum ids.
	CurriculumHeader string `json:"curriculumHeader"`
}

// DimensionMeta describes a string field used for grouping/filtering.
type DimensionMeta struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description,omitempty"`
	Order       []string `json:"order,omitempty"` // enumerated display order, if any
	Parent      string   `json:"parent,omitempty"`
	DerivedFrom string   `json:"derivedFrom,omitempty"`
	IsTemporal  bool     `json:"isTemporal,omitempty"`
}

// MeasureMeta describes a numeric field used for aggregation.
type MeasureMeta struct {
	Key                string `json:"key"`
	DisplayName        string `json:"displayName"`
	Description        string `json:"description,omitempty"`
	Unit               string `json:"unit,omitempty"`
	DefaultAggregation string `json:"defaultAggregation,omitempty"`
}

// SkippedColumn records why a wide-sheet column was not read.
type SkippedColumn struct {
	Column string `json:"column"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Enrollment returns the canonical schema with the default orderings.
func Enrollment() Config {
	return Config{
		Name:             "Enrollment",
		Version:          "1.0",
		Description:      "Monthly headcount per curriculum and age bracket",
		CurriculumHeader: DefaultCurriculumHeader,
		Dimensions: []DimensionMeta{
			{
				Key:         KeyCurriculum,
				DisplayName: "Curriculum",
				Description: "Course letter and stage, e.g. A과정 1단계",
				Order:       CurriculumOrder.Values(),
				Parent:      KeyCourseGroup,
			},
			{
				Key:         KeyCourseGroup,
				DisplayName: "Course Group",
				DerivedFrom: KeyCurriculum,
			},
			{
				Key:         KeyAgeBracket,
				DisplayName: "Age",
				Order:       AgeOrder.Values(),
			},
			{
				Key:         KeyPeriod,
				DisplayName: "Month",
				IsTemporal:  true,
			},
		},
		Measures: []MeasureMeta{
			{
				Key:                KeyHeadcount,
				DisplayName:        "Members",
				Unit:               "members",
				DefaultAggregation: "sum",
			},
		},
	}
}

// DisplayName returns the label for a dimension or measure key,
// or the key itself when unknown.
func (c Config) DisplayName(key string) string {
	for _, d := range c.Dimensions {
		if d.Key == key {
			return d.DisplayName
		}
	}
	for _, m := range c.Measures {
		if m.Key == key {
			return m.DisplayName
		}
	}
	return key
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}
