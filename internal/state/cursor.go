package state

import "time"

// OverlapWindow is subtracted from the advanced cursor so the next poll
// re-requests a small trailing window. Provider timestamp precision and
// boundary inclusivity are not guaranteed; per-message dedupe absorbs the
// duplicate fetches this causes.
const OverlapWindow = time.Second

// NextCursor computes the new low-watermark cursor from the current one and
// a batch of observed timestamps. Nil entries are ignored. The result is
// max(observed ∪ {current}) − OverlapWindow, clamped at the epoch. With no
// valid timestamps and no current cursor the cursor stays absent.
func NextCursor(current *time.Time, observed []*time.Time) *time.Time {
	var max *time.Time
	if current != nil {
		c := *current
		max = &c
	}
	for _, ts := range observed {
		if ts == nil {
			continue
		}
		if max == nil || ts.After(*max) {
			t := *ts
			max = &t
		}
	}
	if max == nil {
		return nil
	}
	next := max.Add(-OverlapWindow)
	if epoch := time.Unix(0, 0).UTC(); next.Before(epoch) {
		next = epoch
	}
	return &next
}
