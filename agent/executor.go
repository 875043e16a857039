package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"genbi/config"
)

// Gateway is the tool-calling boundary the executor uses for database and web
// operations. Each call is an independent round trip; the implementation may
// retry a failed call but must never retry across calls.
type Gateway interface {
	Call(ctx context.Context, method string, params map[string]interface{}) (json.RawMessage, error)
}

// Executor runs analysis plans step by step.
type Executor struct {
	LLM     Completer
	Gateway Gateway
	Schema  config.DatabaseSchema
	Log     func(string)
}

// NewExecutor creates an Executor.
func NewExecutor(llm Completer, gateway Gateway, schema config.DatabaseSchema, logFunc func(string)) *Executor {
	if logFunc == nil {
		logFunc = func(string) {}
	}
	return &Executor{LLM: llm, Gateway: gateway, Schema: schema, Log: logFunc}
}

// Execute runs every step of the plan once, in ascending step_id order, and
// assembles the report. Steps are isolated: a failed or skipped step is
// recorded and execution moves on. A step whose dependencies have no recorded
// result is skipped with a message naming the missing ids; since execution
// order is id order, a dependency on a higher id can never be satisfied and
// degrades to a skip.
func (e *Executor) Execute(ctx context.Context, plan *AnalysisPlan) *Report {
	steps := make([]PlanStep, len(plan.Steps))
	copy(steps, plan.Steps)
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepID < steps[j].StepID })

	results := make(map[int]StepResult, len(steps))
	report := &Report{
		Goal:           plan.AnalysisGoal,
		ExpectedOutput: plan.ExpectedOutput,
		TotalSteps:     len(steps),
		Tables:         make(map[int]*TableData),
		Results:        results,
	}

	for _, step := range steps {
		var missing []int
		for _, dep := range step.Dependencies {
			if _, ok := results[dep]; !ok {
				missing = append(missing, dep)
			}
		}

		var res StepResult
		switch {
		case len(missing) > 0:
			ids := make([]string, len(missing))
			for i, id := range missing {
				ids[i] = fmt.Sprintf("%d", id)
			}
			res = StepResult{
				StepID:  step.StepID,
				Status:  StatusSkipped,
				Message: fmt.Sprintf("skipped: missing results for dependencies %s", strings.Join(ids, ", ")),
			}
		default:
			res = e.runStep(ctx, step, results)
		}

		// Recorded regardless of outcome so later steps can see the failure.
		results[step.StepID] = res
		report.Log = append(report.Log, fmt.Sprintf("step %d [%s] %s: %s", step.StepID, step.StepType, res.Status, res.Message))
		e.Log(fmt.Sprintf("[executor] step %d (%s): %s", step.StepID, step.StepType, res.Status))

		switch res.Status {
		case StatusSuccess:
			report.Succeeded++
		case StatusError:
			report.Failed++
		case StatusSkipped:
			report.Skipped++
		}

		if res.Table != nil {
			report.Tables[step.StepID] = res.Table
		}
		if step.StepType == StepLLMAnalysis && res.Status == StatusSuccess && res.Text != "" {
			report.KeyFindings = append(report.KeyFindings, res.Text)
		}
	}

	if report.TotalSteps > 0 {
		report.SuccessRatio = float64(report.Succeeded) / float64(report.TotalSteps)
	}
	return report
}

func (e *Executor) runStep(ctx context.Context, step PlanStep, results map[int]StepResult) StepResult {
	if _, err := step.requirementsFor(); err != nil {
		return StepResult{StepID: step.StepID, Status: StatusError, Message: err.Error()}
	}
	switch step.StepType {
	case StepSQLQuery:
		return e.executeSQLStep(ctx, step)
	case StepExternalData:
		return e.executeExternalStep(ctx, step)
	default:
		return e.executeAnalysisStep(ctx, step, results)
	}
}
