package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillswap/skillswap-sdk-go/skillswap/rest"
)

func newMatchesCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "matches",
		Short: "List your matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			if authToken == "" {
				return fmt.Errorf("no token; run `skillswap login` first")
			}
			api := rest.NewClient(apiURL)
			api.SetToken(authToken)
			api.OnUnauthorized(func() {
				fmt.Fprintln(os.Stderr, "Session expired; run `skillswap login` again.")
			})

			resp, err := api.ListMatches(cmd.Context(), status)
			if err != nil {
				return fmt.Errorf("list matches: %w", err)
			}
			if len(resp.Matches) == 0 {
				fmt.Println("No matches.")
				return nil
			}
			for _, m := range resp.Matches {
				fmt.Printf("%s  %-10s %s <-> %s  (%s)\n",
					m.ID, m.Status, m.Requester.Name, m.Receiver.Name, m.Skill)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "accepted", "filter by match status")
	return cmd
}
