package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"leadwatch/internal/extract"
)

// MonitorConfig holds the tunable vocabulary of the pipeline: which
// communities to watch and which phrases and place names the extractors
// recognize. Every field is optional; an empty field means "use the
// built-in defaults". The file is YAML:
//
//	subreddits:
//	  - bangalore
//	  - blr_rentals
//	intent_phrases:
//	  - looking for
//	extra_intent_phrases:
//	  - urgently need
//	localities:
//	  - koramangala
//	extra_localities:
//	  - sahakara nagar
//
// The plain lists replace the defaults wholesale; the extra_ lists append
// to whatever base is in effect.
type MonitorConfig struct {
	// Subreddits lists the communities both sources poll.
	// Empty means the compiled-in default set.
	Subreddits []string `yaml:"subreddits"`

	// IntentPhrases replaces the default intent vocabulary of the
	// relevance classifier when non-empty.
	IntentPhrases []string `yaml:"intent_phrases"`

	// ExtraIntentPhrases is appended to the effective intent vocabulary.
	ExtraIntentPhrases []string `yaml:"extra_intent_phrases"`

	// Localities replaces the default curated locality list when non-empty.
	Localities []string `yaml:"localities"`

	// ExtraLocalities is appended to the effective locality list.
	ExtraLocalities []string `yaml:"extra_localities"`
}

// LoadMonitorConfig loads the monitor configuration from the file named by
// the MONITOR_CONFIG environment variable. An unset variable yields an
// empty config (all defaults); a set but unreadable or malformed file is
// an error, on the theory that an operator who points at a config file
// wants to know when it is broken.
func LoadMonitorConfig() (*MonitorConfig, error) {
	path := os.Getenv("MONITOR_CONFIG")
	if path == "" {
		return &MonitorConfig{}, nil
	}
	return LoadMonitorConfigFile(path)
}

// LoadMonitorConfigFile loads and validates a monitor configuration file.
func LoadMonitorConfigFile(path string) (*MonitorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read monitor config: %w", err)
	}

	var cfg MonitorConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse monitor config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid monitor config %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate rejects blank entries in any list. Blank subreddits would turn
// into requests for /r//new and blank phrases would match everything.
func (c *MonitorConfig) Validate() error {
	lists := map[string][]string{
		"subreddits":           c.Subreddits,
		"intent_phrases":       c.IntentPhrases,
		"extra_intent_phrases": c.ExtraIntentPhrases,
		"localities":           c.Localities,
		"extra_localities":     c.ExtraLocalities,
	}

	for name, list := range lists {
		for i, entry := range list {
			if strings.TrimSpace(entry) == "" {
				return fmt.Errorf("%s[%d] is blank", name, i)
			}
		}
	}

	return nil
}

// EffectiveIntentPhrases returns the intent vocabulary this config asks
// for: the replacement list if given, otherwise the defaults, with any
// extras appended and duplicates removed.
func (c *MonitorConfig) EffectiveIntentPhrases() []string {
	base := c.IntentPhrases
	if len(base) == 0 {
		base = extract.DefaultIntentPhrases
	}
	return mergeLists(base, c.ExtraIntentPhrases)
}

// EffectiveLocalities returns the locality list this config asks for,
// following the same replace-then-append rules as EffectiveIntentPhrases.
func (c *MonitorConfig) EffectiveLocalities() []string {
	base := c.Localities
	if len(base) == 0 {
		base = extract.DefaultLocalities
	}
	return mergeLists(base, c.ExtraLocalities)
}

// mergeLists appends extras to base, dropping case-insensitive duplicates
// while preserving order.
func mergeLists(base, extras []string) []string {
	seen := make(map[string]bool, len(base)+len(extras))
	merged := make([]string, 0, len(base)+len(extras))
	for _, entry := range base {
		key := strings.ToLower(strings.TrimSpace(entry))
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, entry)
	}
	for _, entry := range extras {
		key := strings.ToLower(strings.TrimSpace(entry))
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, entry)
	}
	return merged
}
