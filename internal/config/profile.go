package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/courierdev/courier/internal/model"
)

// ProfileRecord is one provider connection descriptor plus the tunable
// resolution policy for that profile.
type ProfileRecord struct {
	Name           string             `yaml:"name"`
	BaseURL        string             `yaml:"base_url"`
	DefaultAccount string             `yaml:"default_account,omitempty"`
	Oracle         OracleSettings     `yaml:"oracle,omitempty"`
	Resolution     ResolutionSettings `yaml:"resolution,omitempty"`
}

// OracleSettings name the external ranking command and its collection.
type OracleSettings struct {
	Command    string `yaml:"command,omitempty"`
	Collection string `yaml:"collection,omitempty"`
}

// ResolutionSettings override the resolution policy defaults. Zero values
// mean "use the built-in default".
type ResolutionSettings struct {
	Threshold     float64 `yaml:"threshold,omitempty"`
	Margin        float64 `yaml:"margin,omitempty"`
	Floor         float64 `yaml:"floor,omitempty"`
	MaxCandidates int     `yaml:"max_candidates,omitempty"`
}

func profilePath(dir, name string) string {
	return filepath.Join(dir, "profiles", name+".yaml")
}

// LoadProfile reads the named profile record from dir.
func LoadProfile(dir, name string) (*ProfileRecord, error) {
	raw, err := os.ReadFile(profilePath(dir, name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("profile %q: %w", name, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var p ProfileRecord
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("profile %q: %w", name, err)
	}
	if p.Name == "" {
		p.Name = name
	}
	return &p, nil
}

// SaveProfile writes the profile record to dir, creating the profiles
// directory as needed.
func SaveProfile(dir string, p *ProfileRecord) error {
	if p.Name == "" {
		return fmt.Errorf("profile name required: %w", model.ErrValidation)
	}
	if err := os.MkdirAll(filepath.Join(dir, "profiles"), 0o700); err != nil {
		return err
	}
	raw, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(profilePath(dir, p.Name), raw, 0o600)
}
