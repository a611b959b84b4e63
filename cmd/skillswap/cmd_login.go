package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillswap/skillswap-sdk-go/skillswap/rest"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and print a bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := rest.NewClient(apiURL)
			resp, err := api.Login(cmd.Context(), rest.LoginRequest{
				Email:    email,
				Password: password,
			})
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			fmt.Printf("Logged in as %s (%s)\n", resp.User.Name, resp.User.ID)
			fmt.Printf("export SKILLSWAP_TOKEN=%s\n", resp.Token)
			fmt.Printf("export SKILLSWAP_USER_ID=%s\n", resp.User.ID)
			fmt.Printf("export SKILLSWAP_USER_NAME=%q\n", resp.User.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
