// Command blogdeskctl is the operator companion to the blogdesk server:
// offline frontmatter checks and analytics maintenance against the
// configured blob backend.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/blogdesk/blogdesk/internal/blob"
	"github.com/blogdesk/blogdesk/internal/config"
	"github.com/blogdesk/blogdesk/pkg/logger"
)

// opener connects to the blob backend. Tests swap in a memory provider.
type opener func(ctx context.Context) (*blob.Provider, *config.Config, error)

func openFromEnv(ctx context.Context) (*blob.Provider, *config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	p, err := blob.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return p, cfg, nil
}

func newRootCmd(open opener) *cobra.Command {
	var level string
	root := &cobra.Command{
		Use:           "blogdeskctl",
		Short:         "Maintenance tool for the blogdesk admin backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetOutput(cmd.ErrOrStderr())
			logger.Init(level)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&level, "log-level", "warn", "log level: debug|info|warn|error")

	root.AddCommand(newFrontmatterCmd())
	root.AddCommand(newAnalyticsCmd(open))
	return root
}

func main() {
	root := newRootCmd(openFromEnv)
	if err := root.ExecuteContext(context.Background()); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
