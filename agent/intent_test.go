package agent

import (
	"context"
	"fmt"
	"testing"
)

func fixedCompleter(response string, err error) Completer {
	return CompleteFunc(func(ctx context.Context, prompt string, kind RequestKind) (string, error) {
		return response, err
	})
}

func TestClassifyIntentMapsResponses(t *testing.T) {
	cases := []struct {
		response string
		want     Intent
	}{
		{"query", IntentQuery},
		{"analysis", IntentAnalysis},
		{"reject", IntentReject},
		{"The category is: Analysis", IntentAnalysis},
		{"REJECT - data modification", IntentReject},
		{"something unexpected", IntentQuery},
	}

	for _, c := range cases {
		got := ClassifyIntent(context.Background(), fixedCompleter(c.response, nil), "question", false)
		if got != c.want {
			t.Errorf("response %q: got %s, want %s", c.response, got, c.want)
		}
	}
}

func TestClassifyIntentRejectWinsOverAnalysis(t *testing.T) {
	got := ClassifyIntent(context.Background(), fixedCompleter("reject, though analysis also fits", nil), "q", false)
	if got != IntentReject {
		t.Errorf("got %s, want reject", got)
	}
}

func TestClassifyIntentFailsOpenToQuery(t *testing.T) {
	got := ClassifyIntent(context.Background(), fixedCompleter("", fmt.Errorf("llm down")), "q", false)
	if got != IntentQuery {
		t.Errorf("got %s, want query on completer failure", got)
	}
}

func TestClassifyIntentPendingPlanBinary(t *testing.T) {
	got := ClassifyIntent(context.Background(), fixedCompleter("execute", nil), "run it", true)
	if got != IntentAnalysisExecute {
		t.Errorf("got %s, want analysis_execute", got)
	}

	got = ClassifyIntent(context.Background(), fixedCompleter("modify", nil), "add a step", true)
	if got != IntentAnalysisModify {
		t.Errorf("got %s, want analysis_modify", got)
	}

	// Any failure defaults to modify, never a surprise execution.
	got = ClassifyIntent(context.Background(), fixedCompleter("", fmt.Errorf("llm down")), "yes", true)
	if got != IntentAnalysisModify {
		t.Errorf("got %s, want analysis_modify on failure", got)
	}
}
