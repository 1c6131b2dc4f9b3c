// Package oracle invokes the optional external semantic-ranking command.
// The oracle is advisory: every failure mode collapses to "unavailable"
// and must never block the caller.
package oracle

import (
	"context"
	"encoding/json"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// Hit is one result row returned by the ranking command.
type Hit struct {
	Text   string  `json:"text"`
	Source string  `json:"source,omitempty"`
	Score  float64 `json:"score,omitempty"`
}

// Result of one ranking query. Available is false when the command could
// not be run or produced unusable output.
type Result struct {
	Available bool
	Hits      []Hit
}

// Runner executes a semantic ranking query.
type Runner interface {
	Query(ctx context.Context, text string) Result
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, text string) Result

func (f RunnerFunc) Query(ctx context.Context, text string) Result { return f(ctx, text) }

// Unavailable returns a Runner that always reports no hits.
func Unavailable() Runner {
	return RunnerFunc(func(context.Context, string) Result { return Result{} })
}

// CommandRunner shells out to an external ranking command:
//
//	<command> query --format json [--collection <c>] <text>
//
// Stdout must be JSON of the form {"hits":[{"text":...,"source":...,"score":...}]}.
type CommandRunner struct {
	Command    string
	Collection string
	Timeout    time.Duration
	Log        zerolog.Logger
}

func (r *CommandRunner) Query(ctx context.Context, text string) Result {
	if r.Command == "" {
		return Result{}
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"query", "--format", "json"}
	if r.Collection != "" {
		args = append(args, "--collection", r.Collection)
	}
	args = append(args, text)

	out, err := exec.CommandContext(ctx, r.Command, args...).Output()
	if err != nil {
		r.Log.Warn().Err(err).Str("command", r.Command).Msg("ranking command unavailable")
		return Result{}
	}
	var payload struct {
		Hits []Hit `json:"hits"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		r.Log.Warn().Err(err).Str("command", r.Command).Msg("ranking command returned malformed output")
		return Result{}
	}
	return Result{Available: true, Hits: payload.Hits}
}
