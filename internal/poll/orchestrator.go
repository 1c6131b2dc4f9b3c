package poll

import (
	"context"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/courierdev/courier/internal/model"
	"github.com/courierdev/courier/internal/provider"
	"github.com/courierdev/courier/internal/state"
)

// StateStore is the persistence surface the orchestrator drives. A nil
// store switches the orchestrator to no-state mode: novelty is tracked in
// an in-memory per-run set and lost on process exit, so a fresh invocation
// re-emits previously seen messages. That trade-off is deliberate for
// stateless one-off checks.
type StateStore interface {
	GetCursor(ctx context.Context, scopeKey string) (*time.Time, error)
	UpsertScopeState(ctx context.Context, scope state.Scope, cursor *time.Time) error
	PersistMessage(ctx context.Context, scopeKey string, m model.Message) (state.Novelty, error)
}

// Orchestrator runs pull rounds and watch loops over a Source and an
// optional StateStore.
type Orchestrator struct {
	src     Source
	store   StateStore
	log     zerolog.Logger
	metrics *Metrics
	seen    map[string]struct{} // no-state mode only
}

// New creates an Orchestrator. store may be nil (no-state mode) and
// metrics may be nil (collection disabled).
func New(src Source, store StateStore, log zerolog.Logger, metrics *Metrics) *Orchestrator {
	return &Orchestrator{
		src:     src,
		store:   store,
		log:     log,
		metrics: metrics,
		seen:    make(map[string]struct{}),
	}
}

// PullRequest describes one pull round.
type PullRequest struct {
	Scope    state.Scope
	Since    *time.Time // explicit cursor override; stored cursor used when nil
	PageSize int
	MaxPages int
}

// PullResult reports one completed round. Messages holds only scope-novel
// rows in chronological order.
type PullResult struct {
	ScopeKey         string          `json:"scopeKey"`
	UsedStoredCursor bool            `json:"usedStoredCursor"`
	Cursor           *time.Time      `json:"cursor,omitempty"`
	NextCursor       *time.Time      `json:"nextCursor,omitempty"`
	Messages         []model.Message `json:"messages"`
	Fetched          int             `json:"fetched"`
	StoreNovel       int             `json:"storeNovel"`
	ScopeNovel       int             `json:"scopeNovel"`
}

// Pull runs a single fetch→sort→persist round and advances the scope
// cursor. With a store, state is committed before returning so an
// interrupted caller resumes correctly.
func (o *Orchestrator) Pull(ctx context.Context, req PullRequest) (*PullResult, error) {
	key := req.Scope.Key()

	since := req.Since
	usedStored := false
	if since == nil && o.store != nil {
		cur, err := o.store.GetCursor(ctx, key)
		if err != nil {
			return nil, err
		}
		if cur != nil {
			since = cur
			usedStored = true
		}
	}

	msgs, err := Fetch(ctx, o.src, FetchRequest{
		AccountID:       req.Scope.AccountID,
		ConversationIDs: req.Scope.ConversationIDs,
		SenderID:        req.Scope.SenderID,
		Since:           since,
		PageSize:        req.PageSize,
		MaxPages:        req.MaxPages,
	})
	if err != nil {
		return nil, err
	}
	sortChronological(msgs)

	res := &PullResult{
		ScopeKey:         key,
		UsedStoredCursor: usedStored,
		Cursor:           since,
		Fetched:          len(msgs),
		Messages:         []model.Message{},
	}
	observed := make([]*time.Time, 0, len(msgs))
	for _, m := range msgs {
		observed = append(observed, m.SentAt)
		if o.store != nil {
			nov, err := o.store.PersistMessage(ctx, key, m)
			if err != nil {
				return nil, err
			}
			if nov.NewInStore {
				res.StoreNovel++
			}
			if nov.NewForScope {
				res.ScopeNovel++
				res.Messages = append(res.Messages, m)
			}
			continue
		}
		mk := key + "\x00" + m.AccountID + "\x00" + m.ID
		if _, dup := o.seen[mk]; dup {
			continue
		}
		o.seen[mk] = struct{}{}
		res.StoreNovel++
		res.ScopeNovel++
		res.Messages = append(res.Messages, m)
	}

	res.NextCursor = state.NextCursor(since, observed)
	if o.store != nil {
		if err := o.store.UpsertScopeState(ctx, req.Scope, res.NextCursor); err != nil {
			return nil, err
		}
	}

	o.metrics.observeRound(res.Fetched, res.StoreNovel, res.ScopeNovel)
	o.log.Debug().
		Str("scope", key).
		Bool("used_stored_cursor", usedStored).
		Int("fetched", res.Fetched).
		Int("scope_novel", res.ScopeNovel).
		Msg("poll round complete")
	return res, nil
}

// WatchRequest configures a watch loop. Once and MaxRounds are compatible
// termination conditions; whichever is satisfied first ends the loop, and
// MaxRounds == 0 with Once == false runs unbounded.
type WatchRequest struct {
	PullRequest
	Interval  time.Duration
	MaxRounds int
	Once      bool
}

// Watch repeats pull rounds on a fixed interval, invoking fn after each
// successful round. Transient provider failures within a round are retried
// with exponential backoff without advancing the cursor; authentication
// failures abort immediately. Cancellation comes from ctx; per-round
// commits make an interrupted watch resumable.
func (o *Orchestrator) Watch(ctx context.Context, req WatchRequest, fn func(*PullResult)) error {
	interval := req.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	rounds := 0
	for {
		var res *PullResult
		op := func() error {
			var err error
			res, err = o.Pull(ctx, req.PullRequest)
			if err != nil {
				if apiErr, ok := provider.AsAPIError(err); ok && apiErr.IsAuth() {
					return backoff.Permanent(err)
				}
				o.log.Warn().Err(err).Msg("poll round failed, will retry")
				return err
			}
			return nil
		}
		bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
		if err := backoff.Retry(op, bo); err != nil {
			return err
		}
		if fn != nil {
			fn(res)
		}
		rounds++

		// after the first round the stored (or just-advanced) cursor takes
		// over from any explicit override
		if o.store != nil {
			req.Since = nil
		} else if res.NextCursor != nil {
			req.Since = res.NextCursor
		}

		if req.Once || (req.MaxRounds > 0 && rounds >= req.MaxRounds) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// sortChronological orders messages by timestamp ascending with the id as
// tiebreak for equal or missing timestamps.
func sortChronological(msgs []model.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		ti, tj := msgs[i].SentAt, msgs[j].SentAt
		switch {
		case ti != nil && tj != nil && !ti.Equal(*tj):
			return ti.Before(*tj)
		case ti == nil && tj != nil:
			return false
		case ti != nil && tj == nil:
			return true
		default:
			return msgs[i].ID < msgs[j].ID
		}
	})
}
