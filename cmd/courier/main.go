package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	profileFlag string
	apiFlag     string
	rootCmd     = &cobra.Command{
		Use:   "courier",
		Short: "Automate messaging workflows against a provider REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&profileFlag, "profile", "p", "", "Profile name (default from COURIER_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "", "Provider base URL (overrides the profile record)")

	rootCmd.AddCommand(
		newResolveCmd(),
		newSendCmd(),
		newAccountsCmd(),
		newConversationsCmd(),
		newPullCmd(),
		newWatchCmd(),
		newProfileCmd(),
		newLoginCmd(),
		newLogoutCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
