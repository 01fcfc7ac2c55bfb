package main

import (
	"fmt"
	"io"

	"github.com/jrsteele09/devinsights/internal/config"
	"github.com/jrsteele09/devinsights/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	metricsAddr string
	app         *app
}

func newRootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "devinsights",
		Short:         "Developer insights for your GitHub repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			displayAppname(c.out, c.app.cfg.GetAppName())
			return cmd.Help()
		},
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)
	root.PersistentFlags().StringVar(&c.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")

	root.AddCommand(
		newLoginCommand(c),
		newLogoutCommand(c),
		newWhoamiCommand(c),
		newReposCommand(c),
		newStatusCommand(c),
		newCheckCommand(c),
		newProcessCommand(c),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	logging.Setup(cfg.GetLogLevel(), cfg.GetEnv())

	a, err := newApp(cfg)
	if err != nil {
		return fmt.Errorf("initialising: %w", err)
	}
	c.app = a

	addr := c.metricsAddr
	if addr == "" {
		addr = cfg.GetMetricsAddr()
	}
	if addr != "" {
		go func() {
			if err := a.metrics.Serve(cmd.Context(), addr); err != nil {
				log.Error().Err(err).Str("addr", addr).Msg("metrics listener stopped")
			}
		}()
	}
	return nil
}
