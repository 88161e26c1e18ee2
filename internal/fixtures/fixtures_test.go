package fixtures

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach/internal/campaign"
)

func TestDefault(t *testing.T) {
	cs := Default()
	require.Len(t, cs, 3)

	assert.Equal(t, "Enterprise Q1 Outreach", cs[0].Name)
	assert.Equal(t, campaign.StatusActive, cs[0].Status)
	assert.Len(t, cs[0].Steps, 4)
	assert.Equal(t, campaign.StatusDraft, cs[1].Status)
	assert.Len(t, cs[1].Steps, 2)
	assert.Equal(t, campaign.StatusPaused, cs[2].Status)
	assert.Equal(t, 45, cs[2].Replied)

	for _, c := range cs {
		assert.NoError(t, c.Validate(), c.Name)
	}
}

func TestDefault_ReturnsFreshSlices(t *testing.T) {
	a := Default()
	a[0].Steps[0].Subject = "changed"
	assert.Equal(t, "Intro: AI Sales Platform", Default()[0].Steps[0].Subject)
}

func TestSeed(t *testing.T) {
	store := campaign.NewStore()
	require.NoError(t, Seed(store, Default()))

	list := store.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Enterprise Q1 Outreach", "Mid-Market Nurture", "Re-engagement Series"},
		[]string{list[0].Name, list[1].Name, list[2].Name})
	assert.Equal(t, campaign.DefaultDelivery(), list[0].Delivery)

	assert.ErrorIs(t, Seed(store, Default()[:1]), campaign.ErrDuplicateID)
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "campaigns.yaml", `
campaigns:
  - id: 7
    name: Partner Push
    status: Paused
    contacts: 50
    steps:
      - type: email
        subject: Hello
        delay: 0
      - type: linkedin_followup
        subject: Ping
        delay: 3
    delivery:
      throttle: 40
      sendInterval: 2m
      sendWindow: anytime
`)
	cs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, cs, 1)

	c := cs[0]
	assert.Equal(t, 7, c.ID)
	assert.Equal(t, campaign.StatusPaused, c.Status)
	assert.Equal(t, []campaign.Step{
		{Type: campaign.StepEmail, Subject: "Hello", Delay: 0},
		{Type: campaign.StepLinkedInFollowup, Subject: "Ping", Delay: 3},
	}, c.Steps)
	assert.Equal(t, campaign.Delivery{Throttle: 40, SendInterval: 2 * time.Minute, Window: campaign.WindowAnytime}, c.Delivery)
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "campaigns.json", `{"campaigns":[{"id":1,"name":"A","status":"Draft","steps":[{"type":"email","subject":"Hi","delay":1}]}]}`)

	cs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, "A", cs[0].Name)
	assert.Equal(t, 1, cs[0].Steps[0].Delay)
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unsupported extension", "campaigns.csv", "id,name\n1,A\n"},
		{"malformed json", "campaigns.json", "{"},
		{"empty", "campaigns.yaml", "campaigns: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	cs, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cs)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
