package state

import "testing"

func TestScopeKeyStableUnderReorderAndDupes(t *testing.T) {
	a := Scope{Profile: "work", AccountID: "acc1", ConversationIDs: []string{"c2", "c1", "c2"}, SenderID: "bob"}
	b := Scope{Profile: "work", AccountID: "acc1", ConversationIDs: []string{"c1", "c2"}, SenderID: "bob"}
	if a.Key() != b.Key() {
		t.Fatalf("keys differ: %q vs %q", a.Key(), b.Key())
	}
}

func TestScopeKeyWildcards(t *testing.T) {
	s := Scope{Profile: "work", AccountID: "acc1"}
	if got, want := s.Key(), "work/acc1/conv=*/sender=*"; got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}
}

func TestScopeKeyCustomWins(t *testing.T) {
	s := Scope{Profile: "work", AccountID: "acc1", ConversationIDs: []string{"c1"}, CustomKey: " mykey "}
	if s.Key() != "mykey" {
		t.Fatalf("custom key must win, got %q", s.Key())
	}
}

func TestScopeKeyDistinguishesFilters(t *testing.T) {
	base := Scope{Profile: "work", AccountID: "acc1"}
	withSender := base
	withSender.SenderID = "bob"
	withConv := base
	withConv.ConversationIDs = []string{"c1"}
	keys := map[string]bool{base.Key(): true, withSender.Key(): true, withConv.Key(): true}
	if len(keys) != 3 {
		t.Fatalf("expected three distinct keys, got %v", keys)
	}
}

func TestScopeKeyIgnoresBlankConversationIDs(t *testing.T) {
	a := Scope{Profile: "p", AccountID: "a", ConversationIDs: []string{"", " ", "c1"}}
	b := Scope{Profile: "p", AccountID: "a", ConversationIDs: []string{"c1"}}
	if a.Key() != b.Key() {
		t.Fatalf("blank ids must be dropped: %q vs %q", a.Key(), b.Key())
	}
}
