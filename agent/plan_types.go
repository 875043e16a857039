package agent

import "fmt"

// Step types recognized by the plan executor.
const (
	StepSQLQuery     = "sql_query"
	StepExternalData = "external_data"
	StepLLMAnalysis  = "llm_analysis"
)

// AnalysisPlan is the structured plan the model produces for an analysis
// question. The JSON shape is a wire contract: plans must round-trip through
// encoding/json unchanged.
type AnalysisPlan struct {
	AnalysisGoal   string     `json:"analysis_goal"`
	Steps          []PlanStep `json:"steps"`
	ExpectedOutput string     `json:"expected_output"`
}

// PlanStep is one unit of work. Exactly one of the requirements fields should
// be set, matching StepType; the others stay nil so they are omitted on
// re-encode. Steps are immutable once parsed; execution records results
// separately and never writes back into the plan.
type PlanStep struct {
	StepID       int    `json:"step_id"`
	StepType     string `json:"step_type"`
	Description  string `json:"description"`
	Dependencies []int  `json:"dependencies,omitempty"`

	Query    *QueryRequirements    `json:"query_requirements,omitempty"`
	Data     *DataRequirements     `json:"data_requirements,omitempty"`
	Analysis *AnalysisRequirements `json:"analysis_requirements,omitempty"`
}

// QueryRequirements describes what a sql_query step needs, in natural-language
// terms. SQL is generated from this at execution time, never stored in the plan.
type QueryRequirements struct {
	Tables  []string `json:"tables,omitempty"`
	Metrics []string `json:"metrics,omitempty"`
	Filters []string `json:"filters,omitempty"`
	GroupBy []string `json:"group_by,omitempty"`
	SortBy  []string `json:"sort_by,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// DataRequirements describes what an external_data step should search for.
type DataRequirements struct {
	DataType     string `json:"data_type"`
	ContentFocus string `json:"content_focus,omitempty"`
	TimeScope    string `json:"time_scope,omitempty"`
	GeoScope     string `json:"geographic_scope,omitempty"`
}

// AnalysisRequirements describes an llm_analysis step. InputData entries
// reference earlier steps by id ("step_1", "1") and are resolved loosely at
// execution time.
type AnalysisRequirements struct {
	Method         string   `json:"method,omitempty"`
	FocusAreas     []string `json:"focus_areas,omitempty"`
	TargetInsights []string `json:"target_insights,omitempty"`
	InputData      []string `json:"input_data,omitempty"`
}

// requirementsFor returns the requirements variant matching the step type, or
// an error when the step carries none. Dispatch must be exhaustive: an unknown
// step type is an error, not a silent skip.
func (s PlanStep) requirementsFor() (interface{}, error) {
	switch s.StepType {
	case StepSQLQuery:
		if s.Query == nil {
			return nil, fmt.Errorf("step %d: missing query_requirements", s.StepID)
		}
		return s.Query, nil
	case StepExternalData:
		if s.Data == nil {
			return nil, fmt.Errorf("step %d: missing data_requirements", s.StepID)
		}
		return s.Data, nil
	case StepLLMAnalysis:
		if s.Analysis == nil {
			return nil, fmt.Errorf("step %d: missing analysis_requirements", s.StepID)
		}
		return s.Analysis, nil
	default:
		return nil, fmt.Errorf("step %d: unknown step type %q", s.StepID, s.StepType)
	}
}

// TableData is a tabular step result or query answer.
type TableData struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// Step result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// StepResult records one step's outcome. Written once per step during an
// execution pass and never mutated afterwards; later steps only read it.
type StepResult struct {
	StepID  int        `json:"step_id"`
	Status  string     `json:"status"`
	Table   *TableData `json:"table,omitempty"`
	Text    string     `json:"text,omitempty"`
	Message string     `json:"message"`
}

// Report is the outcome of executing a plan once. Log holds one entry per
// step in execution order; SuccessRatio is successes over total steps.
type Report struct {
	Goal           string
	ExpectedOutput string
	TotalSteps     int
	Succeeded      int
	Failed         int
	Skipped        int
	SuccessRatio   float64
	KeyFindings    []string
	Tables         map[int]*TableData
	Log            []string
	Results        map[int]StepResult
}
