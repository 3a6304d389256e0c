package sql

import (
	"strings"
	"testing"
)

func TestWhereSpan(t *testing.T) {
	loc := ScanLocator{}

	t.Run("simple where", func(t *testing.T) {
		q := "SELECT * FROM T WHERE YEAR = 2024 ORDER BY YEAR"
		kw, body, end, ok := loc.WhereSpan(q)
		if !ok {
			t.Fatal("expected a WHERE clause")
		}
		if !strings.HasPrefix(q[kw:], "WHERE") {
			t.Errorf("keyword start %d does not point at WHERE", kw)
		}
		clause := strings.TrimSpace(q[body:end])
		if clause != "YEAR = 2024" {
			t.Errorf("clause = %q", clause)
		}
	})

	t.Run("where inside subquery is not top level", func(t *testing.T) {
		q := "SELECT * FROM (SELECT * FROM T WHERE X = 1) SUB"
		_, _, _, ok := loc.WhereSpan(q)
		if ok {
			t.Error("nested WHERE must not be reported")
		}
	})

	t.Run("outer where with nested subquery", func(t *testing.T) {
		q := "SELECT * FROM T WHERE WEEK = (SELECT MAX(WEEK) FROM T WHERE YEAR = 2024) GROUP BY GEO"
		kw, body, end, ok := loc.WhereSpan(q)
		if !ok {
			t.Fatal("expected outer WHERE")
		}
		if kw != strings.Index(q, "WHERE") {
			t.Errorf("found wrong WHERE at %d", kw)
		}
		clause := strings.TrimSpace(q[body:end])
		if !strings.HasSuffix(clause, ")") {
			t.Errorf("clause should run to GROUP BY, got %q", clause)
		}
	})

	t.Run("where keyword inside string literal ignored", func(t *testing.T) {
		q := "SELECT * FROM T WHERE NOTE = 'WHERE IS IT'"
		kw, _, _, ok := loc.WhereSpan(q)
		if !ok || kw != strings.Index(q, "WHERE") {
			t.Errorf("kw=%d ok=%v", kw, ok)
		}
	})

	t.Run("no where", func(t *testing.T) {
		_, _, _, ok := loc.WhereSpan("SELECT * FROM T")
		if ok {
			t.Error("no WHERE expected")
		}
	})
}

func TestFilterInsertionPoint(t *testing.T) {
	loc := ScanLocator{}

	tests := []struct {
		name   string
		query  string
		before string // keyword expected immediately at the insertion point, "" for end
	}{
		{"plain from", "SELECT * FROM T", ""},
		{"before group by", "SELECT GEO, SUM(X) FROM T GROUP BY GEO", "GROUP BY"},
		{"before order by", "SELECT * FROM T ORDER BY X", "ORDER BY"},
		{"before fetch first", "SELECT * FROM T FETCH FIRST 10 ROWS ONLY", "FETCH FIRST"},
		{"before limit", "SELECT * FROM T LIMIT 5", "LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := loc.FilterInsertionPoint(tt.query)
			if tt.before == "" {
				if idx != len(tt.query) {
					t.Errorf("idx = %d, want end of query %d", idx, len(tt.query))
				}
				return
			}
			rest := tt.query[idx:]
			if !strings.HasPrefix(strings.ToUpper(strings.TrimLeft(rest, " ")), tt.before) {
				t.Errorf("insertion point %d is before %q, want %q", idx, rest, tt.before)
			}
		})
	}
}

func TestHasTopLevel(t *testing.T) {
	loc := ScanLocator{}

	tests := []struct {
		name    string
		query   string
		keyword string
		want    bool
	}{
		{"group by present", "SELECT GEO FROM T GROUP BY GEO", "GROUP BY", true},
		{"group by nested only", "SELECT * FROM (SELECT GEO FROM T GROUP BY GEO) S", "GROUP BY", false},
		{"limit in string", "SELECT * FROM T WHERE NOTE = 'LIMIT 5'", "LIMIT", false},
		{"fetch first split whitespace", "SELECT * FROM T FETCH  FIRST 5 ROWS ONLY", "FETCH FIRST", true},
		{"keyword embedded in identifier", "SELECT UNLIMITED FROM T", "LIMIT", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := loc.HasTopLevel(tt.query, tt.keyword); got != tt.want {
				t.Errorf("HasTopLevel(%q, %q) = %v, want %v", tt.query, tt.keyword, got, tt.want)
			}
		})
	}
}
