package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestParsePlanWholeResponse(t *testing.T) {
	plan, ok := ParsePlan(samplePlanJSON)
	if !ok {
		t.Fatal("expected plan to parse")
	}
	if len(plan.Steps) != 2 {
		t.Errorf("got %d steps", len(plan.Steps))
	}
}

func TestParsePlanFencedResponse(t *testing.T) {
	wrapped := "Here is the plan:\n```json\n" + samplePlanJSON + "\n```\nLet me know."
	plan, ok := ParsePlan(wrapped)
	if !ok {
		t.Fatal("expected fenced plan to parse")
	}
	if plan.AnalysisGoal == "" {
		t.Error("goal empty after fenced parse")
	}
}

func TestParsePlanRejectsMissingKeys(t *testing.T) {
	// Valid JSON, but not a plan: expected_output is missing.
	partial := `{"analysis_goal": "g", "steps": []}`
	if _, ok := ParsePlan(partial); ok {
		t.Error("plan without expected_output must be rejected")
	}

	if _, ok := ParsePlan("not json at all"); ok {
		t.Error("non-JSON must be rejected")
	}
}

func TestGeneratePlanStructured(t *testing.T) {
	llm := CompleteFunc(func(ctx context.Context, prompt string, kind RequestKind) (string, error) {
		if kind != RequestKindAnalysis {
			t.Errorf("got kind %s, want analysis", kind)
		}
		if !strings.Contains(prompt, "orders") {
			t.Error("prompt does not embed the schema")
		}
		return samplePlanJSON, nil
	})

	result := GeneratePlan(context.Background(), llm, "why did sales drop?", testSchema())
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Plan == nil {
		t.Fatal("expected a structured plan")
	}
	if result.Fallback != "" {
		t.Error("fallback should be empty for a structured plan")
	}
}

func TestGeneratePlanFallsBackToText(t *testing.T) {
	llm := fixedCompleter("1. Look at sales\n2. Compare with last year", nil)
	result := GeneratePlan(context.Background(), llm, "q", testSchema())
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Plan != nil {
		t.Error("unparseable output must not become a plan")
	}
	if !strings.Contains(result.Fallback, "Look at sales") {
		t.Errorf("fallback text lost: %q", result.Fallback)
	}
}

func TestGeneratePlanCompletionError(t *testing.T) {
	llm := fixedCompleter("", fmt.Errorf("provider unavailable"))
	result := GeneratePlan(context.Background(), llm, "q", testSchema())
	if result.Err == nil {
		t.Fatal("expected error result")
	}
	if result.Plan != nil || result.Fallback != "" {
		t.Error("error result must carry no plan or fallback")
	}
}
