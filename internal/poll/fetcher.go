// Package poll drives the stateful inbox pipeline: paginated fetches
// across one or many conversation scopes, idempotent persistence, and the
// pull/watch orchestration on top.
package poll

import (
	"context"
	"time"

	"github.com/courierdev/courier/internal/model"
	"github.com/courierdev/courier/internal/provider"
)

const (
	defaultPageSize = 100
	defaultMaxPages = 10
)

// Source is the slice of the provider client the fetcher needs.
type Source interface {
	ListMessages(ctx context.Context, accountID string, q provider.MessageQuery) ([]model.Message, string, error)
}

// FetchRequest describes one scoped fetch.
type FetchRequest struct {
	AccountID       string
	ConversationIDs []string
	SenderID        string
	Since           *time.Time
	PageSize        int
	MaxPages        int
}

// Fetch walks provider pagination for the request's scope. With no
// conversation ids it reads the account-wide stream; otherwise it fans out
// per conversation and concatenates. Results are deduplicated by
// (account, message) before returning. The fetcher never retries; provider
// failures propagate to the caller.
func Fetch(ctx context.Context, src Source, req FetchRequest) ([]model.Message, error) {
	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.MaxPages <= 0 {
		req.MaxPages = defaultMaxPages
	}

	var out []model.Message
	if len(req.ConversationIDs) == 0 {
		msgs, err := fetchStream(ctx, src, req, "")
		if err != nil {
			return nil, err
		}
		out = msgs
	} else {
		for _, cid := range req.ConversationIDs {
			msgs, err := fetchStream(ctx, src, req, cid)
			if err != nil {
				return nil, err
			}
			out = append(out, msgs...)
		}
	}
	return dedupe(out), nil
}

// fetchStream follows continuation cursors for a single stream up to
// MaxPages. A repeated or empty cursor ends the loop so a misbehaving
// provider cannot spin it forever.
func fetchStream(ctx context.Context, src Source, req FetchRequest, conversationID string) ([]model.Message, error) {
	var out []model.Message
	cursor := ""
	seen := map[string]bool{}
	for page := 0; page < req.MaxPages; page++ {
		msgs, next, err := src.ListMessages(ctx, req.AccountID, provider.MessageQuery{
			ConversationID: conversationID,
			Since:          req.Since,
			Sender:         req.SenderID,
			Limit:          req.PageSize,
			Cursor:         cursor,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, msgs...)
		if next == "" || seen[next] {
			break
		}
		seen[next] = true
		cursor = next
	}
	return out, nil
}

// dedupe drops repeat (account, message) pairs, keeping first occurrence
// order. A message can surface through several conversation filters.
func dedupe(msgs []model.Message) []model.Message {
	if len(msgs) < 2 {
		return msgs
	}
	type key struct{ account, id string }
	seen := make(map[key]struct{}, len(msgs))
	out := msgs[:0]
	for _, m := range msgs {
		k := key{m.AccountID, m.ID}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, m)
	}
	return out
}
