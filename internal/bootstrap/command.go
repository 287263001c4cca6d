package bootstrap

import (
	"github.com/spf13/cobra"

	"audiototxt/internal/config"
)

// NewRootCommand builds the CLI entry for the service.
func NewRootCommand() *cobra.Command {
	var (
		configPath string
		addr       string
		dataDir    string
	)

	cmd := &cobra.Command{
		Use:           "audiototxt",
		Short:         "Streamed audio-to-text transcription service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}

			app, err := New(cfg)
			if err != nil {
				return err
			}
			return app.Run()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address override")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "data directory override")
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}
