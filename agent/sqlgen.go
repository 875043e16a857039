package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"genbi/config"
)

const sqlGenPrompt = `You are a SQL expert. Generate a single read-only SQL query
that answers the user's question against the schema below.

## Database Schema

%s

## Rules

1. Output only the SQL statement, nothing else.
2. Use only SELECT (or WITH ... SELECT). Never modify data.
3. Use only tables and columns that appear in the schema.
4. Add a LIMIT clause when the result could be large.

## Question

%s`

// GenerateSQL asks the model for a read-only query answering the question.
// The returned statement has markdown fences and surrounding prose stripped;
// a response with no recognizable SELECT is an error so the caller can fall
// back to a rule-based query.
func GenerateSQL(ctx context.Context, llm Completer, question string, schema config.DatabaseSchema) (string, error) {
	prompt := fmt.Sprintf(sqlGenPrompt, RenderSchema(schema), question)
	resp, err := llm.Complete(ctx, prompt, RequestKindQuery)
	if err != nil {
		return "", err
	}

	sql := ExtractSQL(resp)
	if sql == "" {
		return "", fmt.Errorf("no SQL statement in model response")
	}
	return sql, nil
}

// ExtractSQL pulls the SQL statement out of a model response: a ```sql fence
// first, then any fence, then the raw text. If the candidate does not start
// with SELECT or WITH, the first line that does becomes the statement start.
func ExtractSQL(response string) string {
	candidate := strings.TrimSpace(response)

	if start := strings.Index(candidate, "```sql"); start != -1 {
		rest := candidate[start+len("```sql"):]
		if end := strings.Index(rest, "```"); end != -1 {
			candidate = rest[:end]
		} else {
			candidate = rest
		}
	} else if start := strings.Index(candidate, "```"); start != -1 {
		rest := candidate[start+3:]
		if end := strings.Index(rest, "```"); end != -1 {
			candidate = rest[:end]
		} else {
			candidate = rest
		}
	}

	candidate = stripProse(strings.TrimSpace(candidate))
	upper := strings.ToUpper(candidate)
	if strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH") {
		return candidate
	}

	// Prose before the statement: keep everything from the first SELECT/WITH line.
	lines := strings.Split(candidate, "\n")
	for i, line := range lines {
		u := strings.ToUpper(strings.TrimSpace(line))
		if strings.HasPrefix(u, "SELECT") || strings.HasPrefix(u, "WITH") {
			return strings.TrimSpace(strings.Join(lines[i:], "\n"))
		}
	}
	return ""
}

var sqlLineKeywords = []string{
	"SELECT", "FROM", "WHERE", "GROUP BY", "ORDER BY", "JOIN", "LIMIT",
	"WITH", "HAVING", "UNION", "CASE", "WHEN", "DISTINCT",
	"SUM(", "COUNT(", "AVG(", "MIN(", "MAX(",
}

// Sentence-shaped: starts with a letter (Latin or CJK) and ends with
// sentence punctuation.
var proseLineRe = regexp.MustCompile(`^[A-Za-z\x{4e00}-\x{9fff}].*[.。!?！?:：]$`)

// stripProse drops lines that read as explanation rather than SQL. Models
// sometimes wrap the statement in commentary even when told not to; a line
// with no SQL keyword that looks like a sentence is discarded.
func stripProse(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && proseLineRe.MatchString(trimmed) {
			u := strings.ToUpper(trimmed)
			sqlLike := false
			for _, kw := range sqlLineKeywords {
				if strings.Contains(u, kw) {
					sqlLike = true
					break
				}
			}
			if !sqlLike {
				continue
			}
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// FallbackSQL builds a last-resort preview query when generation fails: if the
// question mentions a known table by name, preview its first rows. Returns ""
// when no table matches.
func FallbackSQL(question string, schema config.DatabaseSchema) string {
	lower := strings.ToLower(question)
	for _, table := range SchemaTableNames(schema) {
		if strings.Contains(lower, strings.ToLower(table)) {
			return fmt.Sprintf("SELECT * FROM %s LIMIT 10", table)
		}
	}
	return ""
}
