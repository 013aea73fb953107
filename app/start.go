package app

import (
	"github.com/spf13/cobra"

	"github.com/N3minator/TG-BOT/internal/config"
	"github.com/N3minator/TG-BOT/internal/daemon"
	"github.com/N3minator/TG-BOT/internal/logger"
	"github.com/N3minator/TG-BOT/internal/platform"
)

func init() { //nolint: gochecknoinits
	startCmd.Flags().StringVar(&configPath, "config", "", "Path to the configuration directory")

	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode (in-memory chat platform)")

	rootCmd.AddCommand(startCmd)
}

var (
	configPath string // Path to the configuration file

	cfg     config.Config
	err     error
	devMode bool

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the TG-BOT moderation service",
		PreRun: func(_ *cobra.Command, _ []string) {
			if cfg, err = config.ReadConfig(configPath); err != nil {
				panic(err)
			}

			if devMode {
				cfg.DevMode = true
			}

			if err = logger.Init(cfg.Log); err != nil {
				panic(err)
			}
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			chat, err := platform.New(&cfg)
			if err != nil {
				return err
			}

			d, err := daemon.New(&cfg, chat)
			if err != nil {
				return err
			}

			if err := d.Start(); err != nil {
				return err
			}

			d.WaitShutdown()

			return nil
		},
	}
)
