package sql

import (
	"testing"
)

func TestScreenCandidate(t *testing.T) {
	t.Run("clean analytical query", func(t *testing.T) {
		q := "SELECT SUM(PPV_AMT) FROM PIPELINE WHERE GEOGRAPHY = 'AMERICAS' AND SALES_STAGE NOT IN ('Won', 'Lost')"
		if finding := ScreenCandidate(q); finding != nil {
			t.Errorf("clean query flagged: %+v", finding)
		}
	})

	t.Run("injection in literal", func(t *testing.T) {
		q := "SELECT * FROM T WHERE NAME = '1'' OR ''1''=''1'"
		finding := ScreenCandidate(q)
		if finding == nil {
			t.Fatal("expected a finding")
		}
		if finding.Fingerprint == "" {
			t.Error("expected a fingerprint")
		}
	})

	t.Run("no literals", func(t *testing.T) {
		if finding := ScreenCandidate("SELECT YEAR FROM T"); finding != nil {
			t.Errorf("unexpected finding %+v", finding)
		}
	})
}

func TestInlineStringLiterals(t *testing.T) {
	lits := inlineStringLiterals("SELECT * FROM T WHERE A = 'x' AND B = 'O''Brien'")
	if len(lits) != 2 {
		t.Fatalf("got %v", lits)
	}
	if lits[0] != "x" {
		t.Errorf("lits[0] = %q", lits[0])
	}
	if lits[1] != "O'Brien" {
		t.Errorf("lits[1] = %q", lits[1])
	}
}
