package resolve

import (
	"strings"

	"github.com/courierdev/courier/internal/model"
	"github.com/courierdev/courier/internal/oracle"
	"github.com/courierdev/courier/internal/textnorm"
)

// semanticScore derives an advisory boost for a candidate from ranking
// oracle hits. Unavailable oracle or empty hits score 0. Over all hits the
// maximum of: 1.0 when the candidate's provider-id appears in the hit,
// 0.8 when its full name appears as a substring, else the fraction of name
// tokens present in the hit scaled by 0.6.
func semanticScore(c model.Candidate, res oracle.Result) float64 {
	if !res.Available || len(res.Hits) == 0 {
		return 0
	}
	pid := textnorm.Normalize(c.ProviderID)
	name := textnorm.Normalize(c.DisplayName)
	nameTokens := textnorm.Tokens(c.DisplayName)

	best := 0.0
	for _, h := range res.Hits {
		text := textnorm.Normalize(h.Text + " " + h.Source)
		if text == "" {
			continue
		}
		var s float64
		switch {
		case pid != "" && strings.Contains(text, pid):
			s = 1.0
		case name != "" && strings.Contains(text, name):
			s = 0.8
		case len(nameTokens) > 0:
			hitSet := textnorm.TokenSet(text)
			found := 0
			for _, t := range nameTokens {
				if _, ok := hitSet[t]; ok {
					found++
				}
			}
			s = float64(found) / float64(len(nameTokens)) * 0.6
		}
		if s > best {
			best = s
		}
	}
	return best
}
