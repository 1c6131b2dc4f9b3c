package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/courierdev/courier/internal/model"
	"github.com/courierdev/courier/internal/poll"
	"github.com/courierdev/courier/internal/state"
)

type inboxFlags struct {
	account       string
	conversations []string
	sender        string
	since         string
	stateKey      string
	noState       bool
	resetState    bool
	pageSize      int
	maxPages      int
	jsonOut       bool
}

func (f *inboxFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.account, "account", "", "Account ID (default from profile)")
	cmd.Flags().StringArrayVar(&f.conversations, "conversation", nil, "Conversation ID to poll (repeatable; default account-wide)")
	cmd.Flags().StringVar(&f.sender, "sender", "", "Only messages from this sender")
	cmd.Flags().StringVar(&f.since, "since", "", "Explicit lower-bound timestamp (RFC3339), overrides stored cursor")
	cmd.Flags().StringVar(&f.stateKey, "state-key", "", "Custom scope key for cursor/seen tracking")
	cmd.Flags().BoolVar(&f.noState, "no-state", false, "Skip persistence; novelty tracked only for this run")
	cmd.Flags().BoolVar(&f.resetState, "reset-state", false, "Clear the scope cursor and seen-marks before polling")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "Provider page size")
	cmd.Flags().IntVar(&f.maxPages, "max-pages", 0, "Maximum pages per stream")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Emit round results as JSON")
}

func (f *inboxFlags) sinceTime() (*time.Time, error) {
	if f.since == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, f.since)
	if err != nil {
		return nil, fmt.Errorf("invalid --since %q: %w", f.since, model.ErrValidation)
	}
	return &ts, nil
}

func newPullCmd() *cobra.Command {
	var f inboxFlags
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Fetch new inbox messages once, deduplicated against stored state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			return runPull(cmd.Context(), a, &f, os.Stdout)
		},
	}
	f.register(cmd)
	return cmd
}

func newWatchCmd() *cobra.Command {
	var f inboxFlags
	var (
		interval    time.Duration
		rounds      int
		once        bool
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the inbox repeatedly on a fixed interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), a, &f, interval, rounds, once, metricsAddr, os.Stdout)
		},
	}
	f.register(cmd)
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Delay between rounds")
	cmd.Flags().IntVar(&rounds, "rounds", 0, "Stop after this many rounds (0 = unbounded)")
	cmd.Flags().BoolVar(&once, "once", false, "Run a single round and exit")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while watching")
	return cmd
}

// openInboxState opens the persistent store unless --no-state was given.
// Store unavailability is fatal only because state was (implicitly)
// requested; --no-state opts out of the dependency entirely.
func openInboxState(a *app, f *inboxFlags) (*state.Store, error) {
	if f.noState {
		return nil, nil
	}
	store, err := state.Open(a.cfg.StatePath())
	if err != nil {
		return nil, fmt.Errorf("state store unavailable (pass --no-state to poll without persistence): %w", err)
	}
	return store, nil
}

func (f *inboxFlags) scope(a *app, accountID string) state.Scope {
	return state.Scope{
		Profile:         a.cfg.Profile,
		AccountID:       accountID,
		ConversationIDs: f.conversations,
		SenderID:        f.sender,
		CustomKey:       f.stateKey,
	}
}

func runPull(ctx context.Context, a *app, f *inboxFlags, w io.Writer) error {
	acc, err := a.accountID(f.account)
	if err != nil {
		return err
	}
	since, err := f.sinceTime()
	if err != nil {
		return err
	}
	store, err := openInboxState(a, f)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	scope := f.scope(a, acc)
	if f.resetState {
		if store == nil {
			return fmt.Errorf("--reset-state requires persistent state: %w", model.ErrValidation)
		}
		if err := store.ResetScope(ctx, scope.Key()); err != nil {
			return err
		}
		a.log.Info().Str("scope", scope.Key()).Msg("scope state reset")
	}

	var st poll.StateStore
	if store != nil {
		st = store
	}
	orch := poll.New(a.client, st, a.log, nil)
	res, err := orch.Pull(ctx, poll.PullRequest{Scope: scope, Since: since, PageSize: f.pageSize, MaxPages: f.maxPages})
	if err != nil {
		return err
	}
	return printRound(w, res, f.jsonOut)
}

func runWatch(ctx context.Context, a *app, f *inboxFlags, interval time.Duration, rounds int, once bool, metricsAddr string, w io.Writer) error {
	acc, err := a.accountID(f.account)
	if err != nil {
		return err
	}
	since, err := f.sinceTime()
	if err != nil {
		return err
	}
	store, err := openInboxState(a, f)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	scope := f.scope(a, acc)
	if f.resetState {
		if store == nil {
			return fmt.Errorf("--reset-state requires persistent state: %w", model.ErrValidation)
		}
		if err := store.ResetScope(ctx, scope.Key()); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	metrics := poll.NewMetrics(reg)
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.log.Warn().Err(err).Msg("metrics listener failed")
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	var st poll.StateStore
	if store != nil {
		st = store
	}
	orch := poll.New(a.client, st, a.log, metrics)
	return orch.Watch(ctx, poll.WatchRequest{
		PullRequest: poll.PullRequest{Scope: scope, Since: since, PageSize: f.pageSize, MaxPages: f.maxPages},
		Interval:    interval,
		MaxRounds:   rounds,
		Once:        once,
	}, func(res *poll.PullResult) {
		if err := printRound(w, res, f.jsonOut); err != nil {
			a.log.Warn().Err(err).Msg("failed to write round output")
		}
	})
}

func printRound(w io.Writer, res *poll.PullResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		return enc.Encode(res)
	}
	cursor := "none"
	if res.Cursor != nil {
		cursor = res.Cursor.UTC().Format(time.RFC3339)
	}
	fmt.Fprintf(w, "scope=%s cursor=%s (stored: %v) fetched=%d new=%d\n",
		res.ScopeKey, cursor, res.UsedStoredCursor, res.Fetched, res.ScopeNovel)
	for _, m := range res.Messages {
		sent := "-"
		if m.SentAt != nil {
			sent = m.SentAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sent, m.ConversationID, m.SenderID, m.Text)
	}
	return nil
}
