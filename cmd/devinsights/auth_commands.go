package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCommand(c *cli) *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a GitHub OAuth code",
		Long: "Exchanges the code GitHub passed to the OAuth callback for a DevInsights session.\n\n" +
			"A stored session that is still valid is reused and the code is left unspent.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code = strings.TrimSpace(code)
			if code == "" {
				return fmt.Errorf("--code is required")
			}
			sess, err := c.app.auth.Login(cmd.Context(), code)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Logged in as %s\n", sess.User.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the GitHub callback")
	return cmd
}

func newLogoutCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session and repository selection",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := c.app.auth.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := c.app.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			u := sess.User
			fmt.Fprintf(c.out, "%s", u.DisplayName())
			if u.Login != "" && u.Login != u.DisplayName() {
				fmt.Fprintf(c.out, " (%s)", u.Login)
			}
			if u.Email != "" {
				fmt.Fprintf(c.out, " <%s>", u.Email)
			}
			fmt.Fprintln(c.out)
			return nil
		},
	}
}
