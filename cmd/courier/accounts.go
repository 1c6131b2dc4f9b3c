package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List provider accounts for the profile credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			return runAccounts(cmd.Context(), a, os.Stdout)
		},
	}
}

func runAccounts(ctx context.Context, a *app, w io.Writer) error {
	accounts, err := a.client.ListAccounts(ctx)
	if err != nil {
		return err
	}
	for _, acc := range accounts {
		fmt.Fprintf(w, "%s\t%s\n", acc.ID, acc.Name)
	}
	return nil
}

func newConversationsCmd() *cobra.Command {
	var accountFlag string
	cmd := &cobra.Command{
		Use:   "conversations",
		Short: "List conversations for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			return runConversations(cmd.Context(), a, accountFlag, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&accountFlag, "account", "", "Account ID (default from profile)")
	return cmd
}

func runConversations(ctx context.Context, a *app, account string, w io.Writer) error {
	acc, err := a.accountID(account)
	if err != nil {
		return err
	}
	convs, err := a.client.ListConversations(ctx, acc)
	if err != nil {
		return err
	}
	for _, cv := range convs {
		last := "-"
		if cv.LastActivity != nil {
			last = cv.LastActivity.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", cv.ID, cv.ParticipantID, last)
	}
	return nil
}
