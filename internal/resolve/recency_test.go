package resolve

import (
	"testing"

	"github.com/courierdev/courier/internal/model"
)

func TestRecencyMinMax(t *testing.T) {
	convs := []model.Conversation{
		{ID: "1", ParticipantID: "old@x", LastActivity: ts("2026-01-01T00:00:00Z")},
		{ID: "2", ParticipantID: "new@x", LastActivity: ts("2026-03-01T00:00:00Z")},
		{ID: "3", ParticipantID: "mid@x", LastActivity: ts("2026-02-01T00:00:00Z")},
	}
	got := recencyByParticipant(convs)
	if got["old@x"] != 0 || got["new@x"] != 1 {
		t.Fatalf("expected min-max endpoints 0 and 1, got %v", got)
	}
	if got["mid@x"] <= 0 || got["mid@x"] >= 1 {
		t.Fatalf("middle identity must be strictly inside (0,1), got %v", got["mid@x"])
	}
}

func TestRecencyKeepsNewestPerParticipant(t *testing.T) {
	convs := []model.Conversation{
		{ID: "1", ParticipantID: "a@x", LastActivity: ts("2026-01-01T00:00:00Z")},
		{ID: "2", ParticipantID: "a@x", LastActivity: ts("2026-03-01T00:00:00Z")},
		{ID: "3", ParticipantID: "b@x", LastActivity: ts("2026-02-01T00:00:00Z")},
	}
	got := recencyByParticipant(convs)
	if got["a@x"] != 1 {
		t.Fatalf("expected newest timestamp to win for a@x, got %v", got)
	}
}

func TestRecencyUniformWhenNoVariance(t *testing.T) {
	convs := []model.Conversation{
		{ID: "1", ParticipantID: "a@x", LastActivity: ts("2026-01-01T00:00:00Z")},
		{ID: "2", ParticipantID: "b@x", LastActivity: ts("2026-01-01T00:00:00Z")},
	}
	got := recencyByParticipant(convs)
	if got["a@x"] != 0.5 || got["b@x"] != 0.5 {
		t.Fatalf("tied maxima must score 0.5 uniformly, got %v", got)
	}
}

func TestRecencyIgnoresInvalidConversations(t *testing.T) {
	convs := []model.Conversation{
		{ID: "1", ParticipantID: "", LastActivity: ts("2026-01-01T00:00:00Z")},
		{ID: "2", ParticipantID: "a@x"},
	}
	got := recencyByParticipant(convs)
	if len(got) != 0 {
		t.Fatalf("invalid conversations must contribute nothing, got %v", got)
	}
}
