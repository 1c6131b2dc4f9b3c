// Package resolve turns a free-text recipient query into a confident
// selection, an ambiguous shortlist, or a not-found result. It blends a
// lexical score against names/identifiers, an interaction-recency signal
// and an optional semantic hint from the ranking oracle.
package resolve

import (
	"sort"

	"github.com/courierdev/courier/internal/model"
	"github.com/courierdev/courier/internal/oracle"
)

// Status is the terminal outcome of a resolution.
type Status string

const (
	StatusResolved  Status = "resolved"
	StatusAmbiguous Status = "ambiguous"
	StatusNotFound  Status = "not_found"
)

// Weights blend the three per-candidate signals into a total score.
type Weights struct {
	Lexical  float64
	Recency  float64
	Semantic float64
}

// Options tune the decision policy. Zero values fall back to defaults.
// These are policy knobs, not load-bearing constants; callers may override
// them from configuration.
type Options struct {
	Threshold     float64 // minimum top score for auto-resolution
	Margin        float64 // minimum separation from the runner-up
	Floor         float64 // below this the top candidate is not_found
	MaxCandidates int
	Weights       Weights
}

func (o *Options) applyDefaults() {
	if o.Threshold == 0 {
		o.Threshold = 0.9
	}
	if o.Margin == 0 {
		o.Margin = 0.15
	}
	if o.Floor == 0 {
		o.Floor = 0.35
	}
	if o.MaxCandidates == 0 {
		o.MaxCandidates = 5
	}
	if o.Weights == (Weights{}) {
		o.Weights = Weights{Lexical: 0.75, Recency: 0.15, Semantic: 0.10}
	}
}

// ScoredCandidate is a candidate with its component and blended scores.
type ScoredCandidate struct {
	model.Candidate
	Lexical  float64  `json:"lexical"`
	Recency  float64  `json:"recency"`
	Semantic float64  `json:"semantic"`
	Total    float64  `json:"total"`
	Reasons  []string `json:"reasons,omitempty"`
}

// Resolution is the outcome of one recipient resolution call.
type Resolution struct {
	Query      string            `json:"query"`
	Status     Status            `json:"status"`
	Selected   *ScoredCandidate  `json:"selected,omitempty"`
	Candidates []ScoredCandidate `json:"candidates"`
	Threshold  float64           `json:"threshold"`
	Margin     float64           `json:"margin"`
}

// Resolve ranks candidates for query and applies the decision policy.
// Self-flagged candidates are excluded before scoring. The result is
// deterministic for identical inputs: ties keep original provider order.
func Resolve(query string, cands []model.Candidate, convs []model.Conversation, hints oracle.Result, opts Options) Resolution {
	opts.applyDefaults()
	recency := recencyByParticipant(convs)

	scored := make([]ScoredCandidate, 0, len(cands))
	for _, c := range cands {
		if c.IsSelf {
			continue
		}
		lex, reasons := lexicalScore(query, c)
		rec := recency[c.ProviderID]
		sem := semanticScore(c, hints)
		scored = append(scored, ScoredCandidate{
			Candidate: c,
			Lexical:   lex,
			Recency:   rec,
			Semantic:  sem,
			Total:     opts.Weights.Lexical*lex + opts.Weights.Recency*rec + opts.Weights.Semantic*sem,
			Reasons:   reasons,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Total > scored[j].Total })
	if len(scored) > opts.MaxCandidates {
		scored = scored[:opts.MaxCandidates]
	}

	res := Resolution{
		Query:      query,
		Candidates: scored,
		Threshold:  opts.Threshold,
		Margin:     opts.Margin,
	}
	if len(scored) == 0 || scored[0].Total < opts.Floor {
		res.Status = StatusNotFound
		return res
	}

	top := scored[0]
	res.Selected = &top
	marginOK := len(scored) < 2 || top.Total-scored[1].Total >= opts.Margin
	// An exact identity match is definitionally confident: it passes the
	// threshold gate outright, though the separative margin still applies.
	exactID := len(top.Reasons) > 0 && top.Reasons[0] == ReasonExactID
	if (top.Total >= opts.Threshold || exactID) && marginOK {
		res.Status = StatusResolved
	} else {
		// Best guess only; callers must not act on it without confirmation.
		res.Status = StatusAmbiguous
	}
	return res
}
