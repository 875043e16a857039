package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"genbi/config"
)

const planPromptTemplate = `You are a data analysis planner. Break the user's
question into a concrete, executable analysis plan.

## Step types

A plan is a sequence of steps. Each step has exactly one type:

1. "sql_query": fetches data from the user's database. Carries
   "query_requirements" describing tables, metrics, filters, grouping and
   optionally sort_by and limit in plain language. Must NOT contain SQL text;
   SQL is generated at execution time.
2. "external_data": searches the public web for context the database cannot
   provide (market conditions, industry benchmarks, weather). Carries
   "data_requirements" with data_type, content_focus, time_scope and
   geographic_scope. Must NOT reference database tables.
3. "llm_analysis": synthesizes insights from earlier steps. Carries
   "analysis_requirements" with method, focus_areas, target_insights and
   input_data (references to earlier steps, e.g. "step_1"). Must NOT fetch
   new data.

Steps are numbered from 1 by "step_id" and executed in ascending id order.
"dependencies" lists the step_ids a step consumes; a step may only depend on
lower ids.

## Database schema

%s

## Example

For the question "Why did revenue drop in Q3?" a valid plan is:

{
  "analysis_goal": "Identify the drivers behind the Q3 revenue drop",
  "steps": [
    {
      "step_id": 1,
      "step_type": "sql_query",
      "description": "Monthly revenue for the current year",
      "dependencies": [],
      "query_requirements": {
        "tables": ["orders"],
        "metrics": ["monthly revenue total"],
        "filters": ["current year"],
        "group_by": ["month"]
      }
    },
    {
      "step_id": 2,
      "step_type": "external_data",
      "description": "Market conditions during Q3",
      "dependencies": [],
      "data_requirements": {
        "data_type": "market",
        "content_focus": "retail demand trends",
        "time_scope": "Q3 this year",
        "geographic_scope": "domestic"
      }
    },
    {
      "step_id": 3,
      "step_type": "llm_analysis",
      "description": "Attribute the revenue drop to internal or external factors",
      "dependencies": [1, 2],
      "analysis_requirements": {
        "method": "comparative trend analysis",
        "focus_areas": ["revenue seasonality", "market context"],
        "target_insights": ["main drivers of the Q3 drop"],
        "input_data": ["step_1", "step_2"]
      }
    }
  ],
  "expected_output": "A ranked list of likely causes with supporting figures"
}

## Question

%s

Output the plan as raw JSON with exactly the top-level keys "analysis_goal",
"steps" and "expected_output". No markdown fences, no commentary.`

// PlanResult is the outcome of plan generation. Exactly one of the fields is
// meaningful: a validated Plan, a Fallback text when the model answered with
// something that is not a valid plan, or an Err when the completion itself
// failed.
type PlanResult struct {
	Plan     *AnalysisPlan
	Fallback string
	Err      error
}

// GeneratePlan asks the model for a structured analysis plan. Model output is
// untrusted: it passes a validation gate before becoming a Plan, and anything
// that fails the gate is preserved verbatim as the fallback text so the user
// still sees what the model proposed.
func GeneratePlan(ctx context.Context, llm Completer, question string, schema config.DatabaseSchema) PlanResult {
	prompt := fmt.Sprintf(planPromptTemplate, RenderSchema(schema), question)
	resp, err := llm.Complete(ctx, prompt, RequestKindAnalysis)
	if err != nil {
		return PlanResult{Err: fmt.Errorf("plan generation failed: %v", err)}
	}

	if plan, ok := ParsePlan(resp); ok {
		return PlanResult{Plan: plan}
	}
	return PlanResult{Fallback: strings.TrimSpace(resp)}
}

// ParsePlan extracts and validates a plan from model output. It tries the
// whole text as JSON first, then a fenced block. The object is accepted only
// if all three top-level keys are present; anything less is rejected rather
// than patched up.
func ParsePlan(response string) (*AnalysisPlan, bool) {
	for _, candidate := range []string{strings.TrimSpace(response), extractJSONBlock(response)} {
		if candidate == "" {
			continue
		}
		var keys map[string]json.RawMessage
		if err := json.Unmarshal([]byte(candidate), &keys); err != nil {
			continue
		}
		if _, ok := keys["analysis_goal"]; !ok {
			continue
		}
		if _, ok := keys["steps"]; !ok {
			continue
		}
		if _, ok := keys["expected_output"]; !ok {
			continue
		}
		var plan AnalysisPlan
		if err := json.Unmarshal([]byte(candidate), &plan); err != nil {
			continue
		}
		return &plan, true
	}
	return nil, false
}

// extractJSONBlock pulls the contents of a fenced code block, preferring a
// block tagged json.
func extractJSONBlock(text string) string {
	if start := strings.Index(text, "```json"); start != -1 {
		rest := text[start+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if start := strings.Index(text, "```"); start != -1 {
		rest := text[start+3:]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	return ""
}
