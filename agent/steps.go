package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// queryPayload mirrors the gateway's execute_query result.
type queryPayload struct {
	Columns  []string        `json:"columns"`
	Rows     [][]interface{} `json:"rows"`
	RowCount int             `json:"row_count"`
}

// searchPayload mirrors the gateway's search_web result.
type searchPayload struct {
	Query   string `json:"query"`
	Engine  string `json:"engine"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"results"`
}

// executeSQLStep turns the step's query requirements into SQL and runs it
// through the gateway. The requirements are plain language, so SQL generation
// happens here with the same extraction and safety rules as direct queries.
func (e *Executor) executeSQLStep(ctx context.Context, step PlanStep) StepResult {
	req := step.Query
	description := describeQueryRequirements(step.Description, req)

	sql, err := GenerateSQL(ctx, e.LLM, description, e.Schema)
	if err != nil {
		sql = FallbackSQL(description, e.Schema)
	}
	if sql == "" {
		return StepResult{
			StepID:  step.StepID,
			Status:  StatusError,
			Message: "could not generate a SQL query for this step",
		}
	}

	if dangerous, keyword := IsDangerousSQL(sql); dangerous {
		return StepResult{
			StepID:  step.StepID,
			Status:  StatusError,
			Message: fmt.Sprintf("generated SQL contains forbidden keyword %s and was not executed", keyword),
		}
	}

	raw, err := e.Gateway.Call(ctx, "execute_query", map[string]interface{}{"query": sql})
	if err != nil {
		return StepResult{
			StepID:  step.StepID,
			Status:  StatusError,
			Message: fmt.Sprintf("query execution failed: %v", err),
		}
	}

	var payload queryPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return StepResult{
			StepID:  step.StepID,
			Status:  StatusError,
			Message: fmt.Sprintf("unexpected query result format: %v", err),
		}
	}

	// An empty result set is still a successful query.
	if len(payload.Rows) == 0 {
		return StepResult{
			StepID:  step.StepID,
			Status:  StatusSuccess,
			Message: "query returned no rows",
		}
	}

	return StepResult{
		StepID:  step.StepID,
		Status:  StatusSuccess,
		Table:   &TableData{Columns: payload.Columns, Rows: payload.Rows},
		Message: fmt.Sprintf("query returned %d rows", len(payload.Rows)),
	}
}

func describeQueryRequirements(description string, req *QueryRequirements) string {
	var sb strings.Builder
	sb.WriteString(description)
	if len(req.Tables) > 0 {
		sb.WriteString("\nTables: " + strings.Join(req.Tables, ", "))
	}
	if len(req.Metrics) > 0 {
		sb.WriteString("\nMetrics: " + strings.Join(req.Metrics, ", "))
	}
	if len(req.Filters) > 0 {
		sb.WriteString("\nFilters: " + strings.Join(req.Filters, ", "))
	}
	if len(req.GroupBy) > 0 {
		sb.WriteString("\nGroup by: " + strings.Join(req.GroupBy, ", "))
	}
	if len(req.SortBy) > 0 {
		sb.WriteString("\nSort by: " + strings.Join(req.SortBy, ", "))
	}
	if req.Limit > 0 {
		sb.WriteString(fmt.Sprintf("\nLimit: %d rows", req.Limit))
	}
	return sb.String()
}

// executeExternalStep runs a live web search through the gateway and records
// the hits as text for downstream analysis steps.
func (e *Executor) executeExternalStep(ctx context.Context, step PlanStep) StepResult {
	req := step.Data
	query := buildSearchQuery(req)
	if query == "" {
		query = step.Description
	}

	raw, err := e.Gateway.Call(ctx, "search_web", map[string]interface{}{"query": query})
	if err != nil {
		return StepResult{
			StepID:  step.StepID,
			Status:  StatusError,
			Message: fmt.Sprintf("web search failed: %v", err),
		}
	}

	var payload searchPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return StepResult{
			StepID:  step.StepID,
			Status:  StatusError,
			Message: fmt.Sprintf("unexpected search result format: %v", err),
		}
	}

	if len(payload.Results) == 0 {
		return StepResult{
			StepID:  step.StepID,
			Status:  StatusSuccess,
			Message: fmt.Sprintf("web search for %q returned no results", query),
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Web search results for %q:\n", query))
	for i, r := range payload.Results {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, r.Title))
		if r.Snippet != "" {
			sb.WriteString("   " + r.Snippet + "\n")
		}
		sb.WriteString("   " + r.URL + "\n")
	}

	return StepResult{
		StepID:  step.StepID,
		Status:  StatusSuccess,
		Text:    sb.String(),
		Message: fmt.Sprintf("web search returned %d results", len(payload.Results)),
	}
}

func buildSearchQuery(req *DataRequirements) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{req.DataType, req.ContentFocus, req.TimeScope, req.GeoScope} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, " ")
}

// executeAnalysisStep resolves the step's input references against earlier
// results and asks the model for a synthesis. Failed inputs are summarized as
// failures rather than dropped, so the model knows what data is missing.
func (e *Executor) executeAnalysisStep(ctx context.Context, step PlanStep, results map[int]StepResult) StepResult {
	req := step.Analysis

	var inputs strings.Builder
	for _, ref := range req.InputData {
		id, ok := resolveStepRef(ref)
		if !ok {
			inputs.WriteString(fmt.Sprintf("- %s: unresolvable reference\n", ref))
			continue
		}
		res, ok := results[id]
		if !ok {
			inputs.WriteString(fmt.Sprintf("- step %d: no result recorded\n", id))
			continue
		}
		inputs.WriteString(fmt.Sprintf("- step %d (%s): %s\n", id, res.Status, summarizeResult(res)))
	}

	var sb strings.Builder
	sb.WriteString("You are a data analyst. Synthesize insights from the inputs below.\n\n")
	sb.WriteString("Task: " + step.Description + "\n")
	if req.Method != "" {
		sb.WriteString("Method: " + req.Method + "\n")
	}
	if len(req.FocusAreas) > 0 {
		sb.WriteString("Focus areas: " + strings.Join(req.FocusAreas, ", ") + "\n")
	}
	if len(req.TargetInsights) > 0 {
		sb.WriteString("Target insights: " + strings.Join(req.TargetInsights, ", ") + "\n")
	}
	sb.WriteString("\nInputs:\n")
	if inputs.Len() > 0 {
		sb.WriteString(inputs.String())
	} else {
		sb.WriteString("(none)\n")
	}
	sb.WriteString("\nWrite a concise analysis. State findings plainly and note where input data was missing or failed.")

	text, err := e.LLM.Complete(ctx, sb.String(), RequestKindAnalysis)
	if err != nil {
		return StepResult{
			StepID:  step.StepID,
			Status:  StatusError,
			Message: fmt.Sprintf("analysis failed: %v", err),
		}
	}

	return StepResult{
		StepID:  step.StepID,
		Status:  StatusSuccess,
		Text:    text,
		Message: "analysis completed",
	}
}

// resolveStepRef maps a loose step reference ("step_1", "Step 2", "3") to a
// step id by taking its trailing digits.
func resolveStepRef(ref string) (int, bool) {
	digits := strings.TrimFunc(ref, func(r rune) bool { return !unicode.IsDigit(r) })
	if digits == "" {
		return 0, false
	}
	id, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return id, true
}

const (
	previewRows    = 5
	previewMaxText = 2000
)

// summarizeResult renders a step result small enough to embed in a prompt:
// tables become a head preview, long text is truncated.
func summarizeResult(res StepResult) string {
	if res.Table != nil {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("table with %d rows, %d columns (%s)",
			len(res.Table.Rows), len(res.Table.Columns), strings.Join(res.Table.Columns, ", ")))
		n := len(res.Table.Rows)
		if n > previewRows {
			n = previewRows
		}
		for i := 0; i < n; i++ {
			cells := make([]string, len(res.Table.Rows[i]))
			for j, v := range res.Table.Rows[i] {
				cells[j] = fmt.Sprintf("%v", v)
			}
			sb.WriteString("\n  " + strings.Join(cells, " | "))
		}
		if len(res.Table.Rows) > previewRows {
			sb.WriteString(fmt.Sprintf("\n  ... (%d more rows)", len(res.Table.Rows)-previewRows))
		}
		return sb.String()
	}
	if res.Text != "" {
		if len(res.Text) > previewMaxText {
			// Back up to a rune boundary so multi-byte text is never cut
			// mid-rune.
			cut := previewMaxText
			for cut > 0 && !utf8.RuneStart(res.Text[cut]) {
				cut--
			}
			return res.Text[:cut] + "... [truncated]"
		}
		return res.Text
	}
	return res.Message
}
