package resolve

import (
	"reflect"
	"testing"
	"time"

	"github.com/courierdev/courier/internal/model"
	"github.com/courierdev/courier/internal/oracle"
)

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestResolveAmbiguousOnPartialNameMatch(t *testing.T) {
	cands := []model.Candidate{
		{ID: "c1", ProviderID: "js@x", DisplayName: "John Salesworth"},
		{ID: "c2", DisplayName: "Jon Smith"},
	}
	res := Resolve("john sales", cands, nil, oracle.Result{}, Options{})
	if res.Status != StatusAmbiguous {
		t.Fatalf("status = %s, want ambiguous", res.Status)
	}
	if res.Selected == nil || res.Selected.ID != "c1" {
		t.Fatalf("expected John Salesworth as best guess, got %+v", res.Selected)
	}
	if res.Candidates[0].Total <= res.Candidates[1].Total {
		t.Fatalf("expected strict ordering, got %v vs %v", res.Candidates[0].Total, res.Candidates[1].Total)
	}
}

func TestResolveExactProviderID(t *testing.T) {
	cands := []model.Candidate{
		{ID: "c1", ProviderID: "js@x", DisplayName: "John Salesworth"},
		{ID: "c2", DisplayName: "Jon Smith"},
	}
	res := Resolve("js@x", cands, nil, oracle.Result{}, Options{Threshold: 1.0})
	if res.Status != StatusResolved {
		t.Fatalf("status = %s, want resolved", res.Status)
	}
	if got := res.Selected.Reasons; !reflect.DeepEqual(got, []string{ReasonExactID}) {
		t.Fatalf("reasons = %v, want [exact_id]", got)
	}
}

func TestResolveNotFound(t *testing.T) {
	cands := []model.Candidate{
		{ID: "c1", DisplayName: "Totally Unrelated"},
	}
	res := Resolve("zz qq", cands, nil, oracle.Result{}, Options{})
	if res.Status != StatusNotFound {
		t.Fatalf("status = %s, want not_found", res.Status)
	}
	if res.Selected != nil {
		t.Fatalf("not_found must not select a candidate")
	}
}

func TestResolveExcludesSelf(t *testing.T) {
	cands := []model.Candidate{
		{ID: "me", ProviderID: "me@x", DisplayName: "Me Myself", IsSelf: true},
		{ID: "c1", ProviderID: "me@x", DisplayName: "Someone Else"},
	}
	res := Resolve("me@x", cands, nil, oracle.Result{}, Options{})
	for _, c := range res.Candidates {
		if c.IsSelf {
			t.Fatalf("self candidate appeared in ranked output: %+v", c)
		}
	}
}

func TestResolveScoreBounds(t *testing.T) {
	cands := []model.Candidate{
		{ID: "a", ProviderID: "a@x", DisplayName: "Alpha Beta"},
		{ID: "b", ProviderID: "b@x", DisplayName: "Beta Gamma"},
	}
	convs := []model.Conversation{
		{ID: "v1", ParticipantID: "a@x", LastActivity: ts("2026-01-02T00:00:00Z")},
		{ID: "v2", ParticipantID: "b@x", LastActivity: ts("2026-01-01T00:00:00Z")},
	}
	hits := oracle.Result{Available: true, Hits: []oracle.Hit{{Text: "alpha beta said a@x"}}}
	res := Resolve("alpha", cands, convs, hits, Options{})
	for _, c := range res.Candidates {
		for name, v := range map[string]float64{
			"lexical": c.Lexical, "recency": c.Recency, "semantic": c.Semantic, "total": c.Total,
		} {
			if v < 0 || v > 1 {
				t.Fatalf("%s score out of bounds for %s: %v", name, c.ID, v)
			}
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	cands := []model.Candidate{
		{ID: "a", DisplayName: "Pat Lee"},
		{ID: "b", DisplayName: "Pat Lee"},
		{ID: "c", DisplayName: "Pat Lee"},
	}
	first := Resolve("pat", cands, nil, oracle.Result{}, Options{})
	for i := 0; i < 5; i++ {
		again := Resolve("pat", cands, nil, oracle.Result{}, Options{})
		if again.Status != first.Status {
			t.Fatalf("status changed between runs")
		}
		for j := range again.Candidates {
			if again.Candidates[j].ID != first.Candidates[j].ID {
				t.Fatalf("ordering changed between runs")
			}
		}
	}
	// Ties must keep original provider order (stable sort).
	if first.Candidates[0].ID != "a" || first.Candidates[2].ID != "c" {
		t.Fatalf("tie order not stable: %+v", first.Candidates)
	}
}

func TestResolveTruncatesToMaxCandidates(t *testing.T) {
	var cands []model.Candidate
	for _, id := range []string{"a", "b", "c", "d"} {
		cands = append(cands, model.Candidate{ID: id, DisplayName: "Sam Park"})
	}
	res := Resolve("sam", cands, nil, oracle.Result{}, Options{MaxCandidates: 2})
	if len(res.Candidates) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(res.Candidates))
	}
}

func TestResolveNearTieIsAmbiguous(t *testing.T) {
	cands := []model.Candidate{
		{ID: "a", ProviderID: "pat@x", DisplayName: "Pat Lee"},
		{ID: "b", ProviderID: "pat@y", DisplayName: "Pat Lee"},
	}
	res := Resolve("pat lee", cands, nil, oracle.Result{}, Options{})
	if res.Status != StatusAmbiguous {
		t.Fatalf("two near-tied strong matches must stay ambiguous, got %s", res.Status)
	}
	if res.Selected == nil {
		t.Fatalf("ambiguous result still carries a best guess")
	}
}
