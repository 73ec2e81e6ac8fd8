// Package cli implements the proxq command line tool.
package cli

import (
	"log/slog"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/logger"
)

// options shared by every subcommand
type rootOptions struct {
	configPath string
	logLevel   string
}

func (o *rootOptions) config() (*config.Config, error) {
	return config.Load(o.configPath)
}

func NewCmdRoot() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "proxq",
		Short: "Inspect and query minimal window proximity search",
		Long: heredoc.Doc(`
			proxq explores proximity ranking: it enumerates the windows of
			position streams, runs queries over a local corpus, publishes
			documents to the indexer and lists the proximity functions.
		`),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logger.New(cmd.ErrOrStderr(), opts.logLevel, "text"))
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (defaults apply when empty)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	cmd.AddCommand(NewCmdWindow())
	cmd.AddCommand(NewCmdSearch(opts))
	cmd.AddCommand(NewCmdIngest(opts))
	cmd.AddCommand(NewCmdFunctions())
	return cmd
}
