package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/jrsteele09/devinsights/internal/errors"
	"github.com/spf13/cobra"
)

func newReposCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repos",
		Short: "List and select repositories",
	}
	cmd.AddCommand(
		newReposListCommand(c),
		newReposSelectCommand(c),
		newReposClearCommand(c),
	)
	return cmd
}

func newReposListCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your GitHub repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.app.requireSession(cmd.Context()); err != nil {
				return err
			}
			list, err := c.app.repos.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			sel, _ := c.app.repos.Selected()

			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			for _, r := range list {
				marker := " "
				if sel.RepoID != "" && r.ID == sel.RepoID {
					marker = "*"
				}
				visibility := "public"
				if r.Private {
					visibility = "private"
				}
				fmt.Fprintf(tw, "%s %s\t%s\t%s\n", marker, r.FullName, r.Language, visibility)
			}
			return tw.Flush()
		},
	}
}

func newReposSelectCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "select <owner/repo>",
		Short: "Select the repository reports are shown for",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.app.requireSession(cmd.Context()); err != nil {
				return err
			}
			if _, err := c.app.repos.Refresh(cmd.Context()); err != nil {
				return err
			}
			r, selected, err := c.app.repos.SelectByFullName(args[0])
			if err != nil {
				return err
			}
			if !selected {
				return errors.Wrapf(errors.ErrRepositoryNotFound, "%s", args[0])
			}
			fmt.Fprintf(c.out, "Selected %s\n", r.FullName)
			return nil
		},
	}
}

func newReposClearCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the repository selection",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := c.app.repos.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Selection cleared")
			return nil
		},
	}
}
