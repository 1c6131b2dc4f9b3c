package resolve

import (
	"math"
	"testing"

	"github.com/courierdev/courier/internal/model"
	"github.com/courierdev/courier/internal/oracle"
)

func TestSemanticUnavailableScoresZero(t *testing.T) {
	c := model.Candidate{ProviderID: "js@x", DisplayName: "John Salesworth"}
	if s := semanticScore(c, oracle.Result{}); s != 0 {
		t.Fatalf("unavailable oracle must score 0, got %v", s)
	}
	if s := semanticScore(c, oracle.Result{Available: true}); s != 0 {
		t.Fatalf("no hits must score 0, got %v", s)
	}
}

func TestSemanticProviderIDHit(t *testing.T) {
	c := model.Candidate{ProviderID: "js@x", DisplayName: "John Salesworth"}
	res := oracle.Result{Available: true, Hits: []oracle.Hit{
		{Text: "thread with js@x about the offsite"},
	}}
	if s := semanticScore(c, res); s != 1.0 {
		t.Fatalf("provider-id hit must score 1.0, got %v", s)
	}
}

func TestSemanticNameSubstringHit(t *testing.T) {
	c := model.Candidate{DisplayName: "John Salesworth"}
	res := oracle.Result{Available: true, Hits: []oracle.Hit{
		{Text: "met John Salesworth yesterday"},
	}}
	if s := semanticScore(c, res); s != 0.8 {
		t.Fatalf("name substring hit must score 0.8, got %v", s)
	}
}

func TestSemanticTokenFraction(t *testing.T) {
	c := model.Candidate{DisplayName: "John Salesworth"}
	res := oracle.Result{Available: true, Hits: []oracle.Hit{
		{Text: "john mentioned quarterly numbers"},
	}}
	want := 0.5 * 0.6 // one of two name tokens present
	if s := semanticScore(c, res); math.Abs(s-want) > 1e-9 {
		t.Fatalf("token fraction = %v, want %v", s, want)
	}
}

func TestSemanticTakesMaxOverHits(t *testing.T) {
	c := model.Candidate{ProviderID: "js@x", DisplayName: "John Salesworth"}
	res := oracle.Result{Available: true, Hits: []oracle.Hit{
		{Text: "john said hi"},
		{Text: "ping", Source: "archive/js@x.txt"},
	}}
	if s := semanticScore(c, res); s != 1.0 {
		t.Fatalf("expected max over hits (source counts), got %v", s)
	}
}
