package commands

import (
	"github.com/sidegrid/gatekeep/internal/config"
	"github.com/spf13/cobra"
)

var logLevelOverride string

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gatekeep",
		Short: "Gatekeep - LLM code review with human approval",
		Long:  `Gatekeep reviews repositories with an LLM and queues every proposed fix set for explicit human approval before anything is acted on.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "init" {
				return configureLogger(config.DefaultConfig(), logLevelOverride)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return configureLogger(cfg, logLevelOverride)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevelOverride, "log-level", "", "Override log level (debug|info|warn|error)")

	cmd.AddCommand(
		NewInitCmd(),
		NewReviewCmd(),
		NewApprovalCmd(),
		NewStatusCmd(),
		NewVersionCmd(),
	)

	return cmd
}
