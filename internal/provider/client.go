// Package provider is the REST client for the messaging provider API.
// It performs no retries; transient failures propagate to the caller.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/courierdev/courier/internal/model"
)

// listPageCap bounds the internal pagination loops for participants and
// conversations; message pagination is driven page-by-page by the caller.
const listPageCap = 50

// Client talks to one provider endpoint with one credential.
type Client struct {
	rest *resty.Client
	log  zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.rest.SetTimeout(d) }
}

// WithLogger attaches a logger for request-level warnings.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a provider client for baseURL authenticated with apiKey.
func New(baseURL, apiKey string, opts ...Option) *Client {
	r := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(apiKey).
		SetTimeout(30 * time.Second)

	c := &Client{rest: r, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MessageQuery filters one page of a message listing.
type MessageQuery struct {
	ConversationID string
	Since          *time.Time
	Sender         string
	Limit          int
	Cursor         string
}

// SendRequest is an outgoing message for an existing conversation.
type SendRequest struct {
	Text        string             `json:"text"`
	Attachments []model.Attachment `json:"attachments,omitempty"`
}

// StartConversationRequest opens a new conversation, optionally with an
// initial message.
type StartConversationRequest struct {
	ParticipantIDs []string           `json:"participant_ids"`
	Text           string             `json:"text,omitempty"`
	Attachments    []model.Attachment `json:"attachments,omitempty"`
}

// --- wire shapes ---

type wireAccount struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	SelfParticipantID string `json:"self_participant_id"`
}

type wireParticipant struct {
	ID          string `json:"id"`
	ProviderID  string `json:"provider_id"`
	DisplayName string `json:"display_name"`
	IsSelf      bool   `json:"is_self"`
}

type wireConversation struct {
	ID            string     `json:"id"`
	ParticipantID string     `json:"participant_id"`
	LastActivity  *time.Time `json:"last_activity"`
}

type wireMessage struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	SentAt         *time.Time `json:"sent_at"`
	Text           string     `json:"text"`
}

type wireError struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

func (c *Client) apiError(op string, resp *resty.Response) error {
	var we wireError
	// best effort; the body may not be the documented error shape
	_ = json.Unmarshal(resp.Body(), &we)
	return &APIError{Op: op, Status: resp.StatusCode(), Kind: we.Type, Detail: we.Detail}
}

// ListAccounts returns the accounts visible to the credential.
func (c *Client) ListAccounts(ctx context.Context) ([]model.Account, error) {
	var out struct {
		Accounts []wireAccount `json:"accounts"`
	}
	resp, err := c.rest.R().SetContext(ctx).SetResult(&out).Get("/v1/accounts")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if resp.IsError() {
		return nil, c.apiError("list accounts", resp)
	}
	accounts := make([]model.Account, 0, len(out.Accounts))
	for _, a := range out.Accounts {
		accounts = append(accounts, model.Account{ID: a.ID, Name: a.Name, SelfParticipantID: a.SelfParticipantID})
	}
	return accounts, nil
}

// ListParticipants returns every conversation participant of the account,
// following pagination internally.
func (c *Client) ListParticipants(ctx context.Context, accountID string) ([]model.Candidate, error) {
	var all []model.Candidate
	cursor := ""
	seen := map[string]bool{}
	for page := 0; page < listPageCap; page++ {
		var out struct {
			Participants []wireParticipant `json:"participants"`
			NextCursor   string            `json:"next_cursor"`
		}
		req := c.rest.R().SetContext(ctx).SetResult(&out).SetQueryParam("limit", "100")
		if cursor != "" {
			req.SetQueryParam("cursor", cursor)
		}
		resp, err := req.Get(fmt.Sprintf("/v1/accounts/%s/participants", accountID))
		if err != nil {
			return nil, fmt.Errorf("list participants: %w", err)
		}
		if resp.IsError() {
			return nil, c.apiError("list participants", resp)
		}
		for _, p := range out.Participants {
			all = append(all, model.Candidate{ID: p.ID, ProviderID: p.ProviderID, DisplayName: p.DisplayName, IsSelf: p.IsSelf})
		}
		if out.NextCursor == "" || seen[out.NextCursor] {
			break
		}
		seen[out.NextCursor] = true
		cursor = out.NextCursor
	}
	return all, nil
}

// ListConversations returns the account's conversations, following
// pagination internally.
func (c *Client) ListConversations(ctx context.Context, accountID string) ([]model.Conversation, error) {
	var all []model.Conversation
	cursor := ""
	seen := map[string]bool{}
	for page := 0; page < listPageCap; page++ {
		var out struct {
			Conversations []wireConversation `json:"conversations"`
			NextCursor    string             `json:"next_cursor"`
		}
		req := c.rest.R().SetContext(ctx).SetResult(&out).SetQueryParam("limit", "100")
		if cursor != "" {
			req.SetQueryParam("cursor", cursor)
		}
		resp, err := req.Get(fmt.Sprintf("/v1/accounts/%s/conversations", accountID))
		if err != nil {
			return nil, fmt.Errorf("list conversations: %w", err)
		}
		if resp.IsError() {
			return nil, c.apiError("list conversations", resp)
		}
		for _, cv := range out.Conversations {
			all = append(all, model.Conversation{ID: cv.ID, ParticipantID: cv.ParticipantID, LastActivity: cv.LastActivity})
		}
		if out.NextCursor == "" || seen[out.NextCursor] {
			break
		}
		seen[out.NextCursor] = true
		cursor = out.NextCursor
	}
	return all, nil
}

// ListMessages fetches one page of messages, account-wide or for a single
// conversation when q.ConversationID is set. It returns the page and the
// continuation cursor ("" when exhausted).
func (c *Client) ListMessages(ctx context.Context, accountID string, q MessageQuery) ([]model.Message, string, error) {
	path := fmt.Sprintf("/v1/accounts/%s/messages", accountID)
	if q.ConversationID != "" {
		path = fmt.Sprintf("/v1/accounts/%s/conversations/%s/messages", accountID, q.ConversationID)
	}
	var out struct {
		Messages   []wireMessage `json:"messages"`
		NextCursor string        `json:"next_cursor"`
	}
	req := c.rest.R().SetContext(ctx).SetResult(&out)
	if q.Limit > 0 {
		req.SetQueryParam("limit", fmt.Sprintf("%d", q.Limit))
	}
	if q.Cursor != "" {
		req.SetQueryParam("cursor", q.Cursor)
	}
	if q.Since != nil {
		req.SetQueryParam("since", q.Since.UTC().Format(time.RFC3339))
	}
	if q.Sender != "" {
		req.SetQueryParam("sender", q.Sender)
	}
	resp, err := req.Get(path)
	if err != nil {
		return nil, "", fmt.Errorf("list messages: %w", err)
	}
	if resp.IsError() {
		return nil, "", c.apiError("list messages", resp)
	}
	msgs := make([]model.Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, model.Message{
			AccountID:      accountID,
			ID:             m.ID,
			ConversationID: m.ConversationID,
			SenderID:       m.SenderID,
			SentAt:         m.SentAt,
			Text:           m.Text,
		})
	}
	return msgs, out.NextCursor, nil
}

// SendMessage posts a message into an existing conversation. An
// idempotency key guards against duplicate sends on ambiguous failures.
func (c *Client) SendMessage(ctx context.Context, accountID, conversationID string, req SendRequest) (*model.Message, error) {
	var out wireMessage
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", uuid.NewString()).
		SetBody(req).
		SetResult(&out).
		Post(fmt.Sprintf("/v1/accounts/%s/conversations/%s/messages", accountID, conversationID))
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	if resp.IsError() {
		return nil, c.apiError("send message", resp)
	}
	return &model.Message{
		AccountID:      accountID,
		ID:             out.ID,
		ConversationID: out.ConversationID,
		SenderID:       out.SenderID,
		SentAt:         out.SentAt,
		Text:           out.Text,
	}, nil
}

// StartConversation opens a conversation with the given participants,
// optionally delivering an initial message.
func (c *Client) StartConversation(ctx context.Context, accountID string, req StartConversationRequest) (*model.Conversation, error) {
	if len(req.ParticipantIDs) == 0 {
		return nil, fmt.Errorf("start conversation: %w: at least one participant required", model.ErrValidation)
	}
	var out wireConversation
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", uuid.NewString()).
		SetBody(req).
		SetResult(&out).
		Post(fmt.Sprintf("/v1/accounts/%s/conversations", accountID))
	if err != nil {
		return nil, fmt.Errorf("start conversation: %w", err)
	}
	if resp.IsError() {
		return nil, c.apiError("start conversation", resp)
	}
	return &model.Conversation{ID: out.ID, ParticipantID: out.ParticipantID, LastActivity: out.LastActivity}, nil
}
