package resolve

import (
	"math"
	"testing"

	"github.com/courierdev/courier/internal/model"
)

func TestLexicalPriorityLadder(t *testing.T) {
	c := model.Candidate{ID: "u-1", ProviderID: "anna@corp", DisplayName: "Anna Kendall"}

	score, reasons := lexicalScore("u-1", c)
	if score != 1.0 || reasons[0] != ReasonExactID {
		t.Fatalf("exact id: got %v %v", score, reasons)
	}
	score, reasons = lexicalScore("anna@corp", c)
	if score != 1.0 || reasons[0] != ReasonExactID {
		t.Fatalf("exact provider id: got %v %v", score, reasons)
	}
	score, reasons = lexicalScore("nna co", c)
	if score != 0.95 || reasons[0] != ReasonProviderIDContains {
		t.Fatalf("provider id substring: got %v %v", score, reasons)
	}
	score, reasons = lexicalScore("Anna Kendall", c)
	if score != 0.94 || reasons[0] != ReasonExactName {
		t.Fatalf("exact name: got %v %v", score, reasons)
	}
	score, reasons = lexicalScore("kendall", c)
	if score != 0.90 || reasons[0] != ReasonNameContains {
		t.Fatalf("name substring: got %v %v", score, reasons)
	}
}

func TestLexicalTokenOverlap(t *testing.T) {
	c := model.Candidate{DisplayName: "John Salesworth"}
	score, reasons := lexicalScore("john sales", c)
	if len(reasons) != 1 || reasons[0] != ReasonNameContains {
		// "john sales" is a prefix of the normalized name, so the substring
		// rule fires before token overlap.
		t.Fatalf("got %v %v", score, reasons)
	}

	score, reasons = lexicalScore("sales john", c)
	if reasons[0] != ReasonTokenOverlap {
		t.Fatalf("expected token overlap, got %v", reasons)
	}
	// overlap=1 of query tokens {sales, john}: recall 0.5, precision 0.5.
	want := 0.88 * 0.5
	if math.Abs(score-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", score, want)
	}
}

func TestLexicalNoOverlap(t *testing.T) {
	c := model.Candidate{DisplayName: "Someone"}
	if score, reasons := lexicalScore("other person", c); score != 0 || reasons != nil {
		t.Fatalf("expected zero score with no reasons, got %v %v", score, reasons)
	}
	if score, _ := lexicalScore("", c); score != 0 {
		t.Fatalf("empty query must score 0")
	}
}
