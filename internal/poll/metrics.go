package poll

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts poll pipeline activity. A nil *Metrics disables
// collection, so callers can opt out by passing a nil registerer.
type Metrics struct {
	rounds     prometheus.Counter
	fetched    prometheus.Counter
	storeNovel prometheus.Counter
	scopeNovel prometheus.Counter
}

// NewMetrics registers the poll counters on reg. Returns nil when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	f := promauto.With(reg)
	return &Metrics{
		rounds: f.NewCounter(prometheus.CounterOpts{
			Name: "courier_poll_rounds_total",
			Help: "Completed poll rounds.",
		}),
		fetched: f.NewCounter(prometheus.CounterOpts{
			Name: "courier_poll_messages_fetched_total",
			Help: "Messages fetched from the provider, before dedup.",
		}),
		storeNovel: f.NewCounter(prometheus.CounterOpts{
			Name: "courier_poll_messages_store_novel_total",
			Help: "Messages archived for the first time by any scope.",
		}),
		scopeNovel: f.NewCounter(prometheus.CounterOpts{
			Name: "courier_poll_messages_scope_novel_total",
			Help: "Messages delivered as new to their scope.",
		}),
	}
}

func (m *Metrics) observeRound(fetched, storeNovel, scopeNovel int) {
	if m == nil {
		return
	}
	m.rounds.Inc()
	m.fetched.Add(float64(fetched))
	m.storeNovel.Add(float64(storeNovel))
	m.scopeNovel.Add(float64(scopeNovel))
}
