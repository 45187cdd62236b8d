package settings

import (
	"context"
	"fmt"
	"os"

	"evalnotify_backend/internal/notify"

	"gopkg.in/yaml.v3"
)

// SeedRule is one email rule in the YAML seed file.
type SeedRule struct {
	Service string `yaml:"service"`
	Kind    string `yaml:"kind"`
	Enabled bool   `yaml:"enabled"`
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

type seedFile struct {
	Rules []SeedRule `yaml:"rules"`
}

// LoadSeedFile parses a YAML seed of default email rules.
func LoadSeedFile(path string) ([]SeedRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var parsed seedFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return parsed.Rules, nil
}

// ApplySeed inserts the seed rules when the rule grid is still empty.
// An already-configured store is left untouched.
func (r *Repository) ApplySeed(ctx context.Context, rules []SeedRule) error {
	existing, err := r.ListRules(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, seed := range rules {
		kind := notify.EmailKind(seed.Kind)
		service, ok := notify.Classify(seed.Service)
		if !ok || !kind.Valid() {
			return fmt.Errorf("seed rule references unknown slot %s/%s", seed.Service, seed.Kind)
		}

		rule := notify.EmailRule{Enabled: seed.Enabled, Subject: seed.Subject, Body: seed.Body}
		if err := r.UpsertRule(ctx, service, kind, rule); err != nil {
			return err
		}
	}
	return nil
}
