package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/courierdev/courier/internal/resolve"
)

func newResolveCmd() *cobra.Command {
	var accountFlag string
	var jsonFlag bool
	cmd := &cobra.Command{
		Use:   "resolve <query>",
		Short: "Resolve a free-text recipient query against account participants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			return runResolve(cmd.Context(), a, accountFlag, args[0], jsonFlag, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&accountFlag, "account", "", "Account ID (default from profile)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the full resolution as JSON")
	return cmd
}

func runResolve(ctx context.Context, a *app, account, query string, asJSON bool, w io.Writer) error {
	acc, err := a.accountID(account)
	if err != nil {
		return err
	}
	cands, err := a.client.ListParticipants(ctx, acc)
	if err != nil {
		return err
	}
	convs, err := a.client.ListConversations(ctx, acc)
	if err != nil {
		return err
	}
	hints := a.oracle.Query(ctx, query)
	if a.prof.Oracle.Command != "" && !hints.Available {
		a.log.Warn().Msg("ranking oracle unavailable, using lexical and recency signals only")
	}

	res := resolve.Resolve(query, cands, convs, hints, a.resolveOptions())
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printResolution(w, res)
	return nil
}

func printResolution(w io.Writer, res resolve.Resolution) {
	fmt.Fprintf(w, "query: %s\nstatus: %s\n", res.Query, res.Status)
	for i, c := range res.Candidates {
		marker := " "
		if res.Selected != nil && c.ID == res.Selected.ID {
			marker = "*"
		}
		reasons := ""
		if len(c.Reasons) > 0 {
			reasons = " [" + strings.Join(c.Reasons, ",") + "]"
		}
		fmt.Fprintf(w, "%s %d. %s (%s) total=%.3f lex=%.2f rec=%.2f sem=%.2f%s\n",
			marker, i+1, c.DisplayName, c.ProviderID, c.Total, c.Lexical, c.Recency, c.Semantic, reasons)
	}
}
