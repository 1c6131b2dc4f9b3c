package resolve

import (
	"strings"

	"github.com/courierdev/courier/internal/model"
	"github.com/courierdev/courier/internal/textnorm"
)

// Match-reason tags attached to scored candidates.
const (
	ReasonExactID            = "exact_id"
	ReasonProviderIDContains = "provider_id_contains"
	ReasonExactName          = "exact_name"
	ReasonNameContains       = "name_contains"
	ReasonTokenOverlap       = "token_overlap"
)

// lexicalScore scores query against one candidate's name and identifiers.
// Rules are tried in priority order and the first match wins; identity
// matches always outrank fuzzy token overlap.
func lexicalScore(query string, c model.Candidate) (float64, []string) {
	q := textnorm.Normalize(query)
	if q == "" {
		return 0, nil
	}
	id := textnorm.Normalize(c.ID)
	pid := textnorm.Normalize(c.ProviderID)
	name := textnorm.Normalize(c.DisplayName)

	switch {
	case (id != "" && q == id) || (pid != "" && q == pid):
		return 1.0, []string{ReasonExactID}
	case pid != "" && strings.Contains(pid, q):
		return 0.95, []string{ReasonProviderIDContains}
	case name != "" && q == name:
		return 0.94, []string{ReasonExactName}
	case name != "" && strings.Contains(name, q):
		return 0.90, []string{ReasonNameContains}
	}

	queryTokens := textnorm.Tokens(query)
	nameTokens := textnorm.Tokens(c.DisplayName)
	if len(queryTokens) == 0 || len(nameTokens) == 0 {
		return 0, nil
	}
	nameSet := textnorm.TokenSet(c.DisplayName)
	overlap := 0
	for _, t := range queryTokens {
		if _, ok := nameSet[t]; ok {
			overlap++
		}
	}
	if overlap == 0 {
		return 0, nil
	}
	recall := float64(overlap) / float64(len(queryTokens))
	precision := float64(overlap) / float64(len(nameTokens))
	score := 0.88 * (2 * recall * precision / (recall + precision))
	return score, []string{ReasonTokenOverlap}
}
