package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"selfcinema/internal/domain"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the backend and store the credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginUsername == "" || loginPassword == "" {
			return fmt.Errorf("--username and --password are required")
		}

		catalog, tokens := newCatalogClient()
		ctx, cancel := commandContext()
		defer cancel()

		resp, err := catalog.Login(ctx, domain.LoginRequest{
			Username: loginUsername,
			Password: loginPassword,
		})
		if err != nil {
			return err
		}
		if err := tokens.Save(resp.AccessToken); err != nil {
			return fmt.Errorf("save credential: %w", err)
		}
		fmt.Println("Logged in.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, tokens := newCatalogClient()
		if err := tokens.Clear(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "admin username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "admin password")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
