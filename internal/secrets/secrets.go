// Package secrets stores one provider credential per profile, preferring
// the platform keychain and falling back to an encrypted file when the
// keychain is unavailable. The fallback decision is made once at open,
// never per call.
package secrets

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/zalando/go-keyring"

	"github.com/courierdev/courier/internal/model"
)

const service = "courier"

// Store persists API credentials keyed by profile name.
type Store interface {
	Set(profile, secret string) error
	Get(profile string) (string, error)
	Delete(profile string) error
}

// Open probes the platform keychain and returns a keychain-backed store
// when usable, otherwise the encrypted file store rooted at dir.
func Open(dir string, log zerolog.Logger) (Store, error) {
	ks := keyringStore{}
	if err := ks.probe(); err == nil {
		return ks, nil
	} else {
		log.Warn().Err(err).Msg("platform keychain unavailable, falling back to encrypted file store")
	}
	return OpenFileStore(dir)
}

type keyringStore struct{}

func (keyringStore) probe() error {
	const probeKey = "__courier_probe__"
	if err := keyring.Set(service, probeKey, "ok"); err != nil {
		return fmt.Errorf("keychain probe: %w", err)
	}
	return keyring.Delete(service, probeKey)
}

func (keyringStore) Set(profile, secret string) error {
	return keyring.Set(service, profile, secret)
}

func (keyringStore) Get(profile string) (string, error) {
	s, err := keyring.Get(service, profile)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("credential for profile %q: %w", profile, model.ErrNotFound)
	}
	return s, err
}

func (keyringStore) Delete(profile string) error {
	err := keyring.Delete(service, profile)
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("credential for profile %q: %w", profile, model.ErrNotFound)
	}
	return err
}
