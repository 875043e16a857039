package agent

import "testing"

func TestIsDangerousSQLDetectsWriteKeywords(t *testing.T) {
	cases := []struct {
		sql     string
		keyword string
	}{
		{"DROP TABLE users", "DROP"},
		{"delete from orders where id = 1", "DELETE"},
		{"SELECT * FROM t; TRUNCATE TABLE t", "TRUNCATE"},
		{"insert into t values (1)", "INSERT"},
		{"GRANT ALL ON db.* TO 'x'", "GRANT"},
	}

	for _, c := range cases {
		dangerous, keyword := IsDangerousSQL(c.sql)
		if !dangerous {
			t.Errorf("expected %q to be flagged", c.sql)
			continue
		}
		if keyword != c.keyword {
			t.Errorf("sql %q: got keyword %s, want %s", c.sql, keyword, c.keyword)
		}
	}
}

func TestIsDangerousSQLAllowsReadOnly(t *testing.T) {
	for _, sql := range []string{
		"SELECT id, name FROM users LIMIT 10",
		"WITH top AS (SELECT * FROM orders) SELECT * FROM top",
	} {
		if dangerous, keyword := IsDangerousSQL(sql); dangerous {
			t.Errorf("sql %q wrongly flagged for %s", sql, keyword)
		}
	}
}

func TestIsDangerousSQLFirstMatchWins(t *testing.T) {
	// Both UPDATE and DROP appear; UPDATE is declared first.
	_, keyword := IsDangerousSQL("UPDATE t SET x = 1; DROP TABLE t")
	if keyword != "UPDATE" {
		t.Errorf("got %s, want UPDATE", keyword)
	}
}

func TestIsDangerousSQLSubstringMatch(t *testing.T) {
	// Matching is deliberately substring-based, so keywords inside
	// identifiers still trip the check.
	dangerous, keyword := IsDangerousSQL("SELECT created_at FROM t")
	if !dangerous || keyword != "CREATE" {
		t.Errorf("expected substring match on CREATE, got %v %s", dangerous, keyword)
	}
}
