package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/courierdev/courier/internal/config"
	"github.com/courierdev/courier/internal/platform/logger"
	"github.com/courierdev/courier/internal/secrets"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage connection profiles",
	}
	cmd.AddCommand(newProfileSetCmd(), newProfileShowCmd())
	return cmd
}

func newProfileSetCmd() *cobra.Command {
	var (
		baseURL          string
		defaultAccount   string
		oracleCommand    string
		oracleCollection string
		threshold        float64
		margin           float64
		floor            float64
		maxCandidates    int
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update the active profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			if profileFlag != "" {
				cfg.Profile = profileFlag
			}

			// Start from the existing record so unset flags keep
			// their current values.
			prof, err := config.LoadProfile(cfg.ConfigDir, cfg.Profile)
			if err != nil {
				prof = &config.ProfileRecord{Name: cfg.Profile}
			}
			if cmd.Flags().Changed("base-url") {
				prof.BaseURL = baseURL
			}
			if cmd.Flags().Changed("default-account") {
				prof.DefaultAccount = defaultAccount
			}
			if cmd.Flags().Changed("oracle-command") {
				prof.Oracle.Command = oracleCommand
			}
			if cmd.Flags().Changed("oracle-collection") {
				prof.Oracle.Collection = oracleCollection
			}
			if cmd.Flags().Changed("threshold") {
				prof.Resolution.Threshold = threshold
			}
			if cmd.Flags().Changed("margin") {
				prof.Resolution.Margin = margin
			}
			if cmd.Flags().Changed("floor") {
				prof.Resolution.Floor = floor
			}
			if cmd.Flags().Changed("max-candidates") {
				prof.Resolution.MaxCandidates = maxCandidates
			}

			if err := config.SaveProfile(cfg.ConfigDir, prof); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "profile %q saved\n", prof.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Provider API base URL")
	cmd.Flags().StringVar(&defaultAccount, "default-account", "", "Account ID used when --account is omitted")
	cmd.Flags().StringVar(&oracleCommand, "oracle-command", "", "External ranking command (empty disables the oracle)")
	cmd.Flags().StringVar(&oracleCollection, "oracle-collection", "", "Collection passed to the ranking command")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Resolution acceptance threshold")
	cmd.Flags().Float64Var(&margin, "margin", 0, "Required score gap between the top two candidates")
	cmd.Flags().Float64Var(&floor, "floor", 0, "Minimum score for a candidate to be considered at all")
	cmd.Flags().IntVar(&maxCandidates, "max-candidates", 0, "Maximum candidates reported")
	return cmd
}

func newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active profile as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			if profileFlag != "" {
				cfg.Profile = profileFlag
			}
			prof, err := config.LoadProfile(cfg.ConfigDir, cfg.Profile)
			if err != nil {
				return err
			}
			raw, err := yaml.Marshal(prof)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(raw)
			return err
		},
	}
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Store the provider API key for the active profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			if profileFlag != "" {
				cfg.Profile = profileFlag
			}
			log := logger.New("courier", cfg.LogLevel)

			key, err := readSecret(os.Stdin, os.Stderr)
			if err != nil {
				return err
			}
			store, err := secrets.Open(cfg.ConfigDir, log)
			if err != nil {
				return err
			}
			if err := store.Set(cfg.Profile, key); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "credential stored for profile %q\n", cfg.Profile)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API key for the active profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			if profileFlag != "" {
				cfg.Profile = profileFlag
			}
			log := logger.New("courier", cfg.LogLevel)

			store, err := secrets.Open(cfg.ConfigDir, log)
			if err != nil {
				return err
			}
			if err := store.Delete(cfg.Profile); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "credential removed for profile %q\n", cfg.Profile)
			return nil
		},
	}
}

// readSecret prompts on a terminal without echo, and reads a single line
// when stdin is a pipe.
func readSecret(in *os.File, prompt io.Writer) (string, error) {
	if term.IsTerminal(int(in.Fd())) {
		fmt.Fprint(prompt, "API key: ")
		raw, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return "", fmt.Errorf("empty API key")
	}
	return key, nil
}
