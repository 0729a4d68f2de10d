// Command legisd serves the bill lookup API and runs one-off lookups from
// the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/legisloom/internal/config"
	"github.com/Sternrassler/legisloom/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	v          *viper.Viper
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	root := &cobra.Command{
		Use:           "legisd",
		Short:         "Legislative bill lookup service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (yaml, toml or json)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded when present")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "json", "log format (json, console)")
	flags.String("cache-backend", "memory", "cache backend (memory, redis, sql)")
	opts.v.BindPFlag("log.level", flags.Lookup("log-level"))
	opts.v.BindPFlag("log.format", flags.Lookup("log-format"))
	opts.v.BindPFlag("cache.backend", flags.Lookup("cache-backend"))

	root.AddCommand(
		newServeCmd(opts),
		newBillCmd(opts),
		newSummaryCmd(opts),
		newAnalysisCmd(opts),
		newSearchCmd(opts),
	)
	return root
}

// load reads the configuration and wires the service.
func (o *rootOptions) load(ctx context.Context) (*app, error) {
	cfg, err := config.LoadWith(o.v, config.Options{ConfigFile: o.configFile, EnvFile: o.envFile})
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg)
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.New(a.service, a.logger)
			return srv.ListenAndServe(cmd.Context(), ":"+a.cfg.Port)
		},
	}
	cmd.Flags().String("port", "8080", "listen port")
	opts.v.BindPFlag("port", cmd.Flags().Lookup("port"))
	return cmd
}

func newBillCmd(opts *rootOptions) *cobra.Command {
	var refresh, text bool

	cmd := &cobra.Command{
		Use:   "bill <id>",
		Short: "Look up a bill and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if refresh {
				a.service.Refresh(cmd.Context(), args[0])
			}
			if text {
				res, err := a.service.Text(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			}
			res, err := a.service.Bill(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "drop cached values before the lookup")
	cmd.Flags().BoolVar(&text, "text", false, "print the bill text instead of its metadata")
	return cmd
}

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <id>",
		Short: "Print a plain-language summary of a bill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.service.Summary(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func newAnalysisCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analysis <id>",
		Short: "Print the summary and keywords of a bill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.service.Analysis(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var jurisdiction string

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search bills",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			res, err := a.service.Search(cmd.Context(), query, jurisdiction)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&jurisdiction, "jurisdiction", "j", "", "jurisdiction code (us, ca, tx, ...) or all")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
