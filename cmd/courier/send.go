package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/courierdev/courier/internal/model"
	"github.com/courierdev/courier/internal/provider"
	"github.com/courierdev/courier/internal/resolve"
)

func newSendCmd() *cobra.Command {
	var (
		accountFlag      string
		toFlag           string
		conversationFlag string
		attachFlags      []string
	)
	cmd := &cobra.Command{
		Use:   "send <text>",
		Short: "Send a message to a resolved recipient or an existing conversation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if toFlag == "" && conversationFlag == "" {
				return fmt.Errorf("either --to or --conversation is required: %w", model.ErrValidation)
			}
			a, err := newApp(true)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			return runSend(cmd.Context(), a, accountFlag, toFlag, conversationFlag, attachFlags, text, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&accountFlag, "account", "", "Account ID (default from profile)")
	cmd.Flags().StringVar(&toFlag, "to", "", "Free-text recipient query (resolved before sending)")
	cmd.Flags().StringVar(&conversationFlag, "conversation", "", "Existing conversation ID")
	cmd.Flags().StringArrayVar(&attachFlags, "attach", nil, "File to attach (repeatable)")
	return cmd
}

func runSend(ctx context.Context, a *app, account, to, conversationID string, attachPaths []string, text string, w io.Writer) error {
	acc, err := a.accountID(account)
	if err != nil {
		return err
	}
	attachments, err := loadAttachments(attachPaths)
	if err != nil {
		return err
	}

	if conversationID != "" {
		m, err := a.client.SendMessage(ctx, acc, conversationID, provider.SendRequest{Text: text, Attachments: attachments})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "sent %s to conversation %s\n", m.ID, m.ConversationID)
		return nil
	}

	cands, err := a.client.ListParticipants(ctx, acc)
	if err != nil {
		return err
	}
	convs, err := a.client.ListConversations(ctx, acc)
	if err != nil {
		return err
	}
	res := resolve.Resolve(to, cands, convs, a.oracle.Query(ctx, to), a.resolveOptions())
	if res.Status != resolve.StatusResolved {
		printResolution(w, res)
		return fmt.Errorf("recipient %s for %q; not sending", res.Status, to)
	}

	conv, err := a.client.StartConversation(ctx, acc, provider.StartConversationRequest{
		ParticipantIDs: []string{res.Selected.ID},
		Text:           text,
		Attachments:    attachments,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "sent to %s (%s) in conversation %s\n", res.Selected.DisplayName, res.Selected.ProviderID, conv.ID)
	return nil
}

func loadAttachments(paths []string) ([]model.Attachment, error) {
	var out []model.Attachment
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("attachment %s: %w", p, err)
		}
		out = append(out, model.Attachment{
			Name: filepath.Base(p),
			Data: base64.StdEncoding.EncodeToString(raw),
		})
	}
	return out, nil
}
