package main

import (
	"github.com/spf13/cobra"

	"forum_relay/internal/config"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "forum-relay",
		Short:         "Relay new forum posts, translated, to chat webhooks",
		Long:          `Polls subreddits and RSS feeds, translates unseen posts and delivers them to a Discord or Slack webhook.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.DefaultPath, "path to config file")
	flags.StringVar(&a.dbPath, "db", "", "database path (sqlite) or DSN (postgres); overrides the config file")
	flags.BoolVar(&a.jsonOut, "json", false, "output in JSON format")
	flags.BoolVar(&a.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(
		newConfigCmd(a),
		newSourceCmd(a),
		newWebhookCmd(a),
		newMonitorCmd(a),
		newItemCmd(a),
		newTranslatorCmd(a),
		newInitFromEnvCmd(a),
	)
	return root
}
