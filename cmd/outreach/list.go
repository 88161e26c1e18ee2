package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"outreach/internal/campaign"
)

func newListCmd(opts *options) *cobra.Command {
	var showSteps bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List campaigns with their status and steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return &exitError{code: ExitError, err: err}
			}
			defer a.Close()

			list := a.surface.List()
			if opts.output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			printCampaigns(cmd.OutOrStdout(), list, showSteps)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSteps, "steps", false, "include each campaign's step sequence")
	return cmd
}

func printCampaigns(w io.Writer, list []campaign.Campaign, showSteps bool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tCONTACTS\tSENT\tOPENED\tREPLIED\tSTEPS")
	for _, c := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			c.ID, c.Name, c.Status, c.Contacts, c.Sent, c.Opened, c.Replied, len(c.Steps))
	}
	_ = tw.Flush()

	if !showSteps {
		return
	}
	for _, c := range list {
		fmt.Fprintf(w, "\n%s\n", c.Name)
		for i, s := range c.Steps {
			fmt.Fprintf(w, "  %d. [%s] %s (day +%d)\n", i+1, s.Type, s.Subject, s.Delay)
		}
	}
}
