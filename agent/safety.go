package agent

import "strings"

// dangerousKeywords lists the statement keywords that must never reach the
// database. Order matters: the first match is the one reported.
var dangerousKeywords = []string{
	"INSERT",
	"UPDATE",
	"DELETE",
	"DROP",
	"CREATE",
	"ALTER",
	"TRUNCATE",
	"REPLACE",
	"MERGE",
	"GRANT",
	"REVOKE",
}

// IsDangerousSQL reports whether the statement contains a write or DDL
// keyword, and which one. Matching is a case-insensitive substring scan, so
// keywords hidden in subqueries or after comments are still caught. The scan
// deliberately over-matches (a column literally named "created_at" inside a
// quoted string would trip it); a false rejection is acceptable, a false pass
// is not.
func IsDangerousSQL(query string) (bool, string) {
	upper := strings.ToUpper(query)
	for _, kw := range dangerousKeywords {
		if strings.Contains(upper, kw) {
			return true, kw
		}
	}
	return false, ""
}
