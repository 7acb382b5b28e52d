package cli

import (
	"errors"
	"fmt"

	"inkfold/internal/client"

	"github.com/spf13/cobra"
)

func (a *app) newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login --token <access token>",
		Short: "Save an access token after checking it with the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := a.settings.Token
			if token == "" {
				return errors.New("--token is required")
			}
			c := client.New(a.settings.APIURL, token, a.settings.Timeout)
			me, err := c.CurrentUser(cmd.Context())
			if err != nil {
				if client.IsUnauthorized(err) {
					return errors.New("the server rejected this token")
				}
				return err
			}
			if err := a.settings.saveToken(token); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in as %s (%s)\n", me.User.Email, me.User.Role)
			return nil
		},
	}
}

func (a *app) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.settings.removeToken(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func (a *app) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			me, err := c.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s\nid:   %s\nrole: %s\n", me.User.Email, me.User.ID, me.User.Role)
			if me.Settings != nil && me.Settings.Branding.SiteName != "" {
				fmt.Fprintf(a.out, "site: %s\n", me.Settings.Branding.SiteName)
			}
			return nil
		},
	}
}
