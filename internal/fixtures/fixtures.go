// Package fixtures provides the campaign set a fresh store is seeded with.
package fixtures

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"outreach/internal/campaign"
)

// Default returns the built-in demo campaigns.
func Default() []campaign.Campaign {
	return []campaign.Campaign{
		{
			ID: 1, Name: "Enterprise Q1 Outreach", Status: campaign.StatusActive,
			Contacts: 2400, Sent: 1850, Opened: 1200, Replied: 180,
			Steps: []campaign.Step{
				{Type: campaign.StepEmail, Subject: "Intro: AI Sales Platform", Delay: 0},
				{Type: campaign.StepLinkedInConnect, Subject: "LinkedIn Connection Request", Delay: 2},
				{Type: campaign.StepEmail, Subject: "Follow-up: Customer Success Stories", Delay: 4},
				{Type: campaign.StepLinkedInFollowup, Subject: "LinkedIn Follow-up Message", Delay: 7},
			},
		},
		{
			ID: 2, Name: "Mid-Market Nurture", Status: campaign.StatusDraft,
			Contacts: 800,
			Steps: []campaign.Step{
				{Type: campaign.StepEmail, Subject: "Introduction to SalesFlow AI", Delay: 0},
				{Type: campaign.StepEmail, Subject: "Case Study: 3x Pipeline Growth", Delay: 3},
			},
		},
		{
			ID: 3, Name: "Re-engagement Series", Status: campaign.StatusPaused,
			Contacts: 1200, Sent: 950, Opened: 520, Replied: 45,
			Steps: []campaign.Step{
				{Type: campaign.StepEmail, Subject: "We miss you — New features inside", Delay: 0},
				{Type: campaign.StepLinkedInConnect, Subject: "Reconnect on LinkedIn", Delay: 5},
			},
		},
	}
}

// file is the on-disk fixture layout.
type file struct {
	Campaigns []campaign.Campaign `json:"campaigns" yaml:"campaigns"`
}

// LoadFile reads campaigns from a .json, .yaml or .yml file of the form
// {"campaigns": [...]}.
func LoadFile(path string) ([]campaign.Campaign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	var f file
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		return nil, fmt.Errorf("unsupported fixture format %q (use .json, .yaml or .yml)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(f.Campaigns) == 0 {
		return nil, fmt.Errorf("fixture file %s has no campaigns", path)
	}
	return f.Campaigns, nil
}

// Load returns the campaigns at path, or Default when path is empty.
func Load(path string) ([]campaign.Campaign, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// Seed inserts every campaign into store, stopping at the first error.
func Seed(store *campaign.Store, campaigns []campaign.Campaign) error {
	for _, c := range campaigns {
		if err := store.Seed(c); err != nil {
			return fmt.Errorf("seeding fixtures: %w", err)
		}
	}
	return nil
}
