package agent

import (
	"context"
	"fmt"
	"strings"
)

// Intent is the routing decision for one user question.
type Intent string

const (
	IntentQuery           Intent = "query"
	IntentAnalysis        Intent = "analysis"
	IntentAnalysisExecute Intent = "analysis_execute"
	IntentAnalysisModify  Intent = "analysis_modify"
	IntentReject          Intent = "reject"
)

const intentPrompt = `You are an intent classifier for a business data assistant.
Classify the user's message into exactly one category:

- "reject": the message asks to modify, insert, delete or destroy data, or to
  perform administrative actions on the database. Examples:
  "Delete all orders from last year", "删除所有用户数据", "Drop the customers table".
- "analysis": the message asks an open-ended analytical question that needs
  multiple steps, comparisons, causes, or recommendations. Examples:
  "Why were 2023 orders lower than 2024?", "为什么2023年订单少于2024年",
  "Analyze the sales trend and suggest improvements".
- "query": the message asks for specific data that a single database query can
  answer. Examples: "Show me last month's top 10 products",
  "哪些产品是畅销品", "How many customers signed up in March?".

If a message fits more than one category, "reject" wins over "analysis", and
"analysis" wins over "query".

User message: %s

Respond with only the category word.`

const pendingPlanPrompt = `An analysis plan has already been proposed to the user.
Their reply is below. Decide whether the reply approves running the plan, or
asks to change it.

Reply: %s

Respond with exactly one word: "execute" if the reply approves running the
plan (e.g. "yes", "go ahead", "run it", "执行"), or "modify" if it asks for
any change.`

// ClassifyIntent decides how to route a question. When a plan is pending the
// decision is binary: execute it or treat the message as a modification
// request. Otherwise the three-way classifier runs; on any classifier failure
// the question falls through to the query path so the user still gets an
// answer.
func ClassifyIntent(ctx context.Context, llm Completer, question string, hasPendingPlan bool) Intent {
	if hasPendingPlan {
		resp, err := llm.Complete(ctx, fmt.Sprintf(pendingPlanPrompt, question), RequestKindQuery)
		if err == nil && strings.Contains(strings.ToLower(resp), "execute") {
			return IntentAnalysisExecute
		}
		return IntentAnalysisModify
	}

	resp, err := llm.Complete(ctx, fmt.Sprintf(intentPrompt, question), RequestKindQuery)
	if err != nil {
		return IntentQuery
	}
	lower := strings.ToLower(resp)
	switch {
	case strings.Contains(lower, "reject"):
		return IntentReject
	case strings.Contains(lower, "analysis"):
		return IntentAnalysis
	default:
		return IntentQuery
	}
}
