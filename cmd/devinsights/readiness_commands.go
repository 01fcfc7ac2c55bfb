package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/jrsteele09/devinsights/readiness"
	"github.com/jrsteele09/devinsights/redirect"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newStatusCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status [owner/repo]",
		Short: "Show whether a repository has been processed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.app.requireSession(cmd.Context()); err != nil {
				return err
			}
			fullName, err := c.app.repoArg(args)
			if err != nil {
				return err
			}

			st := c.app.workflow.CheckStatus(cmd.Context(), fullName)
			state := "not processed"
			if st.IsProcessed {
				state = "processed"
			}
			fmt.Fprintf(c.out, "%s: %s\n", fullName, state)
			if st.Exists {
				fmt.Fprintf(c.out, "  files: %d  commits: %d  developers: %d\n", st.FileCount, st.CommitCount, st.DeveloperCount)
			}
			return nil
		},
	}
}

func newCheckCommand(c *cli) *cobra.Command {
	var from string
	var yes bool
	cmd := &cobra.Command{
		Use:   "check [owner/repo]",
		Short: "Make sure a repository is processed before opening a report",
		Long: "Checks the repository and, when it has not been processed yet, offers to process it.\n\n" +
			"Processing fetches the commit history and builds the developer knowledge graph. " +
			"It may take 1-2 minutes depending on repository size.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.app.requireSession(cmd.Context()); err != nil {
				return err
			}
			fullName, err := c.app.repoArg(args)
			if err != nil {
				return err
			}

			st := c.app.workflow.CheckStatus(cmd.Context(), fullName)
			if st.IsProcessed {
				fmt.Fprintf(c.out, "%s is ready. Continue at %s\n", fullName, redirect.Resolve(true, from))
				return nil
			}

			fmt.Fprintf(c.out, "The repository %s needs to be processed before you can view insights.\n", fullName)
			if !yes && !c.confirm("Process repository now? [y/N] ") {
				fmt.Fprintln(c.out, "Skipped for now.")
				return nil
			}

			if err := c.app.tracker.Save(from); err != nil {
				log.Warn().Err(err).Msg("saving requested path")
			}
			return c.process(cmd.Context(), fullName)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Path to continue at once the repository is ready")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Process without asking")
	return cmd
}

func newProcessCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "process [owner/repo]",
		Short: "Process a repository and wait until it is ready",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.app.requireSession(cmd.Context()); err != nil {
				return err
			}
			fullName, err := c.app.repoArg(args)
			if err != nil {
				return err
			}
			displayAppname(c.out, c.app.cfg.GetAppName())
			return c.process(cmd.Context(), fullName)
		},
	}
}

func (c *cli) confirm(prompt string) bool {
	fmt.Fprint(c.out, prompt)
	answer, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// process runs a readiness job for fullName. Cancelling ctx (Ctrl-C)
// cancels the job.
func (c *cli) process(ctx context.Context, fullName string) error {
	requested, err := c.app.tracker.Consume()
	if err != nil {
		log.Warn().Err(err).Msg("reading requested path")
	}

	lastMsg := ""
	job, err := c.app.workflow.Run(ctx, fullName, readiness.Options{
		RequestedPath: requested,
		OnProgress: func(p readiness.Progress) {
			if p.Message == lastMsg {
				return
			}
			lastMsg = p.Message
			fmt.Fprintf(c.out, "[%3.0f%%] %s\n", p.Percent, p.Message)
		},
	})
	if err != nil && !stderrors.Is(err, readiness.ErrJobInProgress) {
		return err
	}

	out, err := job.Wait(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}

	switch out.Phase {
	case readiness.PhaseSucceeded:
		fmt.Fprintf(c.out, "%s is ready. Continue at %s\n", fullName, out.Redirect)
		return nil
	case readiness.PhaseCancelled:
		fmt.Fprintf(c.out, "Processing cancelled. Manage repositories at %s\n", out.Redirect)
		return nil
	default:
		fmt.Fprintf(c.out, "Processing failed. Manage repositories at %s\n", out.Redirect)
		return out.Err
	}
}
