package secrets

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/courierdev/courier/internal/model"
)

// FileStore seals the profile→credential map with ChaCha20-Poly1305 using
// a key generated on first use and kept next to the data file with 0600
// permissions. Not as strong as the OS keychain, but keeps credentials out
// of plain text on platforms without one.
type FileStore struct {
	dataPath string
	key      []byte
}

// OpenFileStore creates (or loads the key of) a file-backed store in dir.
func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	keyPath := filepath.Join(dir, "secrets.key")
	key, err := os.ReadFile(keyPath)
	if os.IsNotExist(err) {
		key = make([]byte, chacha20poly1305.KeySize)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
		if err := os.WriteFile(keyPath, key, 0o600); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("secrets key file %s is corrupt", keyPath)
	}
	return &FileStore{dataPath: filepath.Join(dir, "secrets.enc"), key: key}, nil
}

func (f *FileStore) load() (map[string]string, error) {
	sealed, err := os.ReadFile(f.dataPath)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("secrets file %s is corrupt", f.dataPath)
	}
	nonce, box := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, box, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt secrets: %w", err)
	}
	out := map[string]string{}
	if err := json.Unmarshal(plain, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *FileStore) save(m map[string]string) error {
	plain, err := json.Marshal(m)
	if err != nil {
		return err
	}
	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	sealed := aead.Seal(nonce, nonce, plain, nil)
	return os.WriteFile(f.dataPath, sealed, 0o600)
}

func (f *FileStore) Set(profile, secret string) error {
	m, err := f.load()
	if err != nil {
		return err
	}
	m[profile] = secret
	return f.save(m)
}

func (f *FileStore) Get(profile string) (string, error) {
	m, err := f.load()
	if err != nil {
		return "", err
	}
	s, ok := m[profile]
	if !ok {
		return "", fmt.Errorf("credential for profile %q: %w", profile, model.ErrNotFound)
	}
	return s, nil
}

func (f *FileStore) Delete(profile string) error {
	m, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := m[profile]; !ok {
		return fmt.Errorf("credential for profile %q: %w", profile, model.ErrNotFound)
	}
	delete(m, profile)
	return f.save(m)
}
