package state

import (
	"fmt"
	"sort"
	"strings"
)

// Scope identifies one independently tracked polling stream:
// profile × account × conversation filter × sender filter.
type Scope struct {
	Profile         string
	AccountID       string
	ConversationIDs []string
	SenderID        string
	CustomKey       string
}

// Key returns the stable identifier for the scope. Conversation ids are
// deduplicated and sorted first, so identical scopes yield identical keys
// regardless of input ordering. A non-blank CustomKey wins outright.
func (s Scope) Key() string {
	if k := strings.TrimSpace(s.CustomKey); k != "" {
		return k
	}
	seen := make(map[string]struct{}, len(s.ConversationIDs))
	ids := make([]string, 0, len(s.ConversationIDs))
	for _, id := range s.ConversationIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	conv := "*"
	if len(ids) > 0 {
		conv = strings.Join(ids, ",")
	}
	sender := strings.TrimSpace(s.SenderID)
	if sender == "" {
		sender = "*"
	}
	return fmt.Sprintf("%s/%s/conv=%s/sender=%s", s.Profile, s.AccountID, conv, sender)
}
