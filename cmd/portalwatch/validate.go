package main

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the portalwatch configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		fmt.Println(renderTargets(cfg, path))
		if cfg.Options.Schedule != "" {
			sched, err := cron.ParseStandard(cfg.Options.Schedule)
			if err != nil {
				return fmt.Errorf("parsing schedule: %w", err)
			}
			fmt.Printf("Next scheduled run: %s\n", sched.Next(time.Now()).Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
