package roster

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"atmwatch/internal/fleet"
)

// YAMLProvider reads the roster from a YAML file:
//
//	terminals:
//	  - terminal_id: "T-001"
//	    location: "Main St branch"
//	    region: "R01"
type YAMLProvider struct {
	path string
}

// NewYAMLProvider constructs a YAML file provider.
func NewYAMLProvider(path string) *YAMLProvider {
	return &YAMLProvider{path: path}
}

type yamlRoster struct {
	Terminals []yamlTerminal `yaml:"terminals"`
}

type yamlTerminal struct {
	TerminalID string `yaml:"terminal_id"`
	Location   string `yaml:"location"`
	Region     string `yaml:"region"`
}

// Load reads and validates the roster file.
func (p *YAMLProvider) Load(_ context.Context) (fleet.Roster, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("roster: read %s: %w", p.path, err)
	}
	var parsed yamlRoster
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("roster: parse %s: %w", p.path, err)
	}

	out := make(fleet.Roster, 0, len(parsed.Terminals))
	for _, t := range parsed.Terminals {
		out = append(out, fleet.RosterEntry{
			TerminalID: t.TerminalID,
			Location:   t.Location,
			RegionCode: t.Region,
		})
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("roster: %s: %w", p.path, err)
	}
	return out, nil
}
