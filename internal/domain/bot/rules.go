package bot

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rule is one named category of canned replies. Rules are immutable
// configuration loaded once at startup; order matters, the first match wins.
type Rule struct {
	Category string   `yaml:"category"`
	Patterns []string `yaml:"patterns"`
	Replies  []string `yaml:"replies"`
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads the reply-rule table from a YAML file.
func LoadRules(path string) ([]Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bot rules: %w", err)
	}

	var f ruleFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse bot rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("bot rules file %s contains no rules", path)
	}
	for i, r := range f.Rules {
		if r.Category == "" {
			return nil, fmt.Errorf("bot rule %d has no category", i)
		}
		if len(r.Patterns) == 0 || len(r.Replies) == 0 {
			return nil, fmt.Errorf("bot rule %q needs at least one pattern and one reply", r.Category)
		}
	}
	return f.Rules, nil
}
