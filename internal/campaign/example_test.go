package campaign_test

import (
	"errors"
	"fmt"

	"outreach/internal/campaign"
)

func ExampleStore_AddStep() {
	store := campaign.NewStore()
	c, _ := store.Create("Mid-Market Nurture", 800)

	_ = store.AddStep(c.ID, campaign.Step{Type: campaign.StepEmail, Subject: "Introduction", Delay: 0})
	_ = store.AddStep(c.ID, campaign.Step{Type: campaign.StepEmail, Subject: "Case Study", Delay: 3})

	got, _ := store.Get(c.ID)
	for _, s := range got.Steps {
		fmt.Printf("day %d: %s (%s)\n", s.Delay, s.Subject, s.Type)
	}
	// Output:
	// day 0: Introduction (email)
	// day 3: Case Study (email)
}

func ExampleStore_SetStatus() {
	store := campaign.NewStore()
	c, _ := store.Create("Outbound", 100)

	err := store.SetStatus(c.ID, campaign.StatusPaused)
	fmt.Println(errors.Is(err, campaign.ErrInvalidTransition))
	// Output: true
}
