package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Defaults for the global flags.
const (
	defaultMasterURL = "http://localhost:8080"
	defaultTimeout   = 30 * time.Second

	envMaster = "IOTINATOR_MASTER"
)

// errResetNotConfirmed is returned by reset without --yes.
var errResetNotConfirmed = errors.New("reset restarts every agent; pass --yes to confirm")

type options struct {
	master  string
	timeout time.Duration
	noColor bool
}

// NewRootCommand builds the iotctl command tree writing to out.
func NewRootCommand(version string, out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "iotctl",
		Short:         "iotctl inspects and drives an iotinator master.",
		Long:          "iotctl talks to an iotinator master over HTTP to list registered agents, run ping and reset sweeps, and report master health.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	master := os.Getenv(envMaster)
	if master == "" {
		master = defaultMasterURL
	}
	root.PersistentFlags().StringVar(&opts.master, "master", master, "Master base URL (env "+envMaster+")")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "Request timeout")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newListCommand(opts),
		newGetCommand(opts),
		newPingCommand(opts),
		newResetCommand(opts),
		newHealthCommand(opts),
	)
	return root
}

// Execute runs iotctl with the process arguments and returns the exit code.
func Execute(version string) int {
	root := NewRootCommand(version, os.Stdout)
	if err := root.Execute(); err != nil {
		NewFormatter(os.Stderr, false).PrintError(err)
		return 1
	}
	return 0
}

func (o *options) client() *Client {
	return NewClient(o.master, o.timeout)
}

func (o *options) formatter(cmd *cobra.Command) *Formatter {
	return NewFormatter(cmd.OutOrStdout(), o.noColor)
}

func (o *options) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, o.timeout)
}

func newListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered agents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			entries, err := opts.client().List(ctx)
			if err != nil {
				return err
			}
			return opts.formatter(cmd).PrintAgents(entries)
		},
	}
}

func newGetCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <mac>",
		Short: "Show one agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			a, err := opts.client().Agent(ctx, args[0])
			if err != nil {
				return err
			}
			opts.formatter(cmd).PrintAgent(a)
			return nil
		},
	}
}

func newPingCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Probe every awake agent now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			report, err := opts.client().Ping(ctx)
			if err != nil {
				return err
			}
			opts.formatter(cmd).PrintPingReport(report)
			return nil
		},
	}
}

func newResetCommand(opts *options) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restart every registered agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return errResetNotConfirmed
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			report, err := opts.client().Reset(ctx)
			if err != nil {
				return err
			}
			opts.formatter(cmd).PrintResetReport(report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm the reset")
	return cmd
}

func newHealthCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show master status and registry metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			c := opts.client()
			h, err := c.Health(ctx)
			if err != nil {
				return err
			}
			// Older masters have no metrics endpoint.
			m, err := c.Metrics(ctx)
			if err != nil {
				m = nil
			}
			opts.formatter(cmd).PrintHealth(h, m)
			return nil
		},
	}
}
