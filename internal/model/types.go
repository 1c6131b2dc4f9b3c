package model

import "time"

// Account is a provider account the configured credential can act as.
type Account struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	SelfParticipantID string `json:"selfParticipantId,omitempty"`
}

// Candidate is a prospective message recipient. Candidates are built from
// provider data for a single resolution call and never persisted.
type Candidate struct {
	ID          string `json:"id"`
	ProviderID  string `json:"providerId,omitempty"`
	DisplayName string `json:"displayName"`
	IsSelf      bool   `json:"isSelf,omitempty"`
}

// Conversation is a chat or thread. Only the counterpart identity and the
// last-activity timestamp matter here; both may be absent.
type Conversation struct {
	ID            string     `json:"id"`
	ParticipantID string     `json:"participantId,omitempty"`
	LastActivity  *time.Time `json:"lastActivity,omitempty"`
}

// Message is one provider message as observed by the poll pipeline.
type Message struct {
	AccountID      string     `json:"accountId"`
	ID             string     `json:"id"`
	ConversationID string     `json:"conversationId,omitempty"`
	SenderID       string     `json:"senderId,omitempty"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
	Text           string     `json:"text"`
}

// Attachment is an inline payload attached to an outgoing message.
type Attachment struct {
	Name string `json:"name"`
	Data string `json:"data"` // base64
}
