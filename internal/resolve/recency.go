package resolve

import (
	"time"

	"github.com/courierdev/courier/internal/model"
)

// recencyByParticipant derives a 0..1 recency signal per counterpart
// identity from conversation last-activity timestamps. Conversations
// without a counterpart or a valid timestamp contribute nothing.
// When every identity ties at the same maximum, all get 0.5 so a single
// shared timestamp never produces a spurious 0/1 split.
func recencyByParticipant(convs []model.Conversation) map[string]float64 {
	latest := make(map[string]time.Time)
	for _, cv := range convs {
		if cv.ParticipantID == "" || cv.LastActivity == nil {
			continue
		}
		ts := *cv.LastActivity
		if cur, ok := latest[cv.ParticipantID]; !ok || ts.After(cur) {
			latest[cv.ParticipantID] = ts
		}
	}
	out := make(map[string]float64, len(latest))
	if len(latest) == 0 {
		return out
	}

	var minTS, maxTS time.Time
	first := true
	for _, ts := range latest {
		if first {
			minTS, maxTS = ts, ts
			first = false
			continue
		}
		if ts.Before(minTS) {
			minTS = ts
		}
		if ts.After(maxTS) {
			maxTS = ts
		}
	}
	if maxTS.Equal(minTS) {
		for id := range latest {
			out[id] = 0.5
		}
		return out
	}
	span := maxTS.Sub(minTS).Seconds()
	for id, ts := range latest {
		out[id] = ts.Sub(minTS).Seconds() / span
	}
	return out
}
