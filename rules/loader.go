package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk document shape shared by YAML and JSON rule files.
type ruleFile struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}

// LoadFile loads rules from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
func LoadFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return LoadYAML(data)
	case ".json":
		return LoadJSON(data)
	default:
		return nil, fmt.Errorf("unsupported rules file extension: %s", ext)
	}
}

// LoadYAML parses YAML data into rules.
func LoadYAML(data []byte) ([]Rule, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return finishRules(f.Rules)
}

// LoadJSON parses JSON data into rules.
func LoadJSON(data []byte) ([]Rule, error) {
	var f ruleFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return finishRules(f.Rules)
}

// finishRules validates decoded rules and fills generated fields.
// Name and expr are required; missing IDs and timestamps are assigned.
func finishRules(rs []Rule) ([]Rule, error) {
	for i := range rs {
		if rs[i].Name == "" {
			return nil, fmt.Errorf("rule %d: missing name", i)
		}
		if rs[i].Expr == "" {
			return nil, fmt.Errorf("rule %q: missing expr", rs[i].Name)
		}
		if rs[i].ID == "" {
			rs[i].ID = uuid.New().String()
		}
		if rs[i].CreatedAt.IsZero() {
			rs[i].CreatedAt = time.Now().UTC()
		}
	}
	return rs, nil
}
