package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/courierdev/courier/internal/config"
	"github.com/courierdev/courier/internal/model"
	"github.com/courierdev/courier/internal/oracle"
	"github.com/courierdev/courier/internal/platform/logger"
	"github.com/courierdev/courier/internal/provider"
	"github.com/courierdev/courier/internal/resolve"
	"github.com/courierdev/courier/internal/secrets"
)

// app bundles the wiring shared by the commands.
type app struct {
	cfg    *config.Config
	prof   *config.ProfileRecord
	log    zerolog.Logger
	client *provider.Client
	oracle oracle.Runner
}

// newApp loads configuration, the active profile and, when needCredential
// is set, the stored API credential and provider client.
func newApp(needCredential bool) (*app, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if profileFlag != "" {
		cfg.Profile = profileFlag
	}
	log := logger.New("courier", cfg.LogLevel)

	prof, err := config.LoadProfile(cfg.ConfigDir, cfg.Profile)
	if err != nil {
		return nil, fmt.Errorf("load profile (run `courier profile set` first): %w", err)
	}
	if apiFlag != "" {
		prof.BaseURL = apiFlag
	}
	if prof.BaseURL == "" {
		return nil, fmt.Errorf("profile %q has no base_url: %w", cfg.Profile, model.ErrValidation)
	}

	a := &app{cfg: cfg, prof: prof, log: log, oracle: oracle.Unavailable()}

	if needCredential {
		store, err := secrets.Open(cfg.ConfigDir, log)
		if err != nil {
			return nil, err
		}
		key, err := store.Get(cfg.Profile)
		if err != nil {
			return nil, fmt.Errorf("no credential for profile %q (run `courier login`): %w", cfg.Profile, err)
		}
		a.client = provider.New(prof.BaseURL, key,
			provider.WithTimeout(cfg.HTTPTimeout),
			provider.WithLogger(log))
	}

	if prof.Oracle.Command != "" {
		a.oracle = &oracle.CommandRunner{
			Command:    prof.Oracle.Command,
			Collection: prof.Oracle.Collection,
			Timeout:    cfg.OracleTimeout,
			Log:        log,
		}
	}
	return a, nil
}

// accountID picks the explicit flag value or the profile default.
func (a *app) accountID(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if a.prof.DefaultAccount != "" {
		return a.prof.DefaultAccount, nil
	}
	return "", fmt.Errorf("no account: pass --account or set default_account on the profile: %w", model.ErrValidation)
}

// resolveOptions maps the profile's resolution settings onto the engine
// options; zero fields keep the engine defaults.
func (a *app) resolveOptions() resolve.Options {
	r := a.prof.Resolution
	return resolve.Options{
		Threshold:     r.Threshold,
		Margin:        r.Margin,
		Floor:         r.Floor,
		MaxCandidates: r.MaxCandidates,
	}
}
