package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func TestListAccounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/accounts", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accounts": []map[string]any{
				{"id": "acc1", "name": "Work", "self_participant_id": "me@x"},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	accounts, err := c.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.Equal(t, "acc1", accounts[0].ID)
	require.Equal(t, "me@x", accounts[0].SelfParticipantID)
}

func TestListParticipantsFollowsPagination(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("cursor") {
		case "":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"participants": []map[string]any{{"id": "p1", "display_name": "Alice"}},
				"next_cursor":  "page2",
			})
		case "page2":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"participants": []map[string]any{{"id": "p2", "display_name": "Bob", "is_self": true}},
			})
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	got, err := c.ListParticipants(context.Background(), "acc1")
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Len(t, got, 2)
	require.True(t, got[1].IsSelf)
}

func TestListParticipantsCursorCycleGuard(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// provider keeps returning the same continuation cursor
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"participants": []map[string]any{{"id": "p1", "display_name": "Alice"}},
			"next_cursor":  "loop",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	_, err := c.ListParticipants(context.Background(), "acc1")
	require.NoError(t, err)
	require.Equal(t, 2, calls, "repeated cursor must terminate after one repeat")
}

func TestListMessagesQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/accounts/acc1/conversations/c9/messages", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, "25", q.Get("limit"))
		require.Equal(t, "bob@x", q.Get("sender"))
		require.NotEmpty(t, q.Get("since"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []map[string]any{
				{"id": "m1", "conversation_id": "c9", "sender_id": "bob@x", "sent_at": "2026-05-01T10:00:00Z", "text": "hi"},
			},
			"next_cursor": "n1",
		})
	}))
	defer srv.Close()

	since := mustTime(t, "2026-05-01T00:00:00Z")
	c := New(srv.URL, "k")
	msgs, next, err := c.ListMessages(context.Background(), "acc1", MessageQuery{
		ConversationID: "c9", Since: &since, Sender: "bob@x", Limit: 25,
	})
	require.NoError(t, err)
	require.Equal(t, "n1", next)
	require.Len(t, msgs, 1)
	require.Equal(t, "acc1", msgs[0].AccountID)
	require.NotNil(t, msgs[0].SentAt)
}

func TestAPIErrorClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"invalid_credential","detail":"key revoked"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	_, err := c.ListAccounts(context.Background())
	require.Error(t, err)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	require.True(t, apiErr.IsAuth())
	require.Equal(t, "invalid_credential", apiErr.Kind)
	require.Equal(t, "key revoked", apiErr.Detail)
}

func TestSendMessageSetsIdempotencyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		var body SendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "hello", body.Text)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "m1", "conversation_id": "c1", "text": "hello"})
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	m, err := c.SendMessage(context.Background(), "acc1", "c1", SendRequest{Text: "hello"})
	require.NoError(t, err)
	require.Equal(t, "m1", m.ID)
}

func TestStartConversationValidation(t *testing.T) {
	c := New("http://unused", "k")
	_, err := c.StartConversation(context.Background(), "acc1", StartConversationRequest{})
	require.Error(t, err)
}
