package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [target_name]",
	Short: "Check targets once",
	Long: "Checks a single target by name, or all targets if no name is given. " +
		"Failed checks are reported and alerted but do not change the exit code. " +
		"Use --dry-run to compose alerts without sending them.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := monitorOpts{}
		opts.dryRun, _ = cmd.Flags().GetBool("dry-run")
		opts.installBrowsers, _ = cmd.Flags().GetBool("install-browsers")
		if len(args) == 1 {
			opts.only = args[0]
		}

		l := setupLogger(cfg)
		defer l.Flush()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		results, err := monitor(ctx, cfg, l, opts)
		if len(results) > 0 {
			fmt.Println(renderSummary(results))
		}
		return err
	},
}

func init() {
	runCmd.Flags().Bool("dry-run", false, "compose alerts without sending them")
	runCmd.Flags().Bool("install-browsers", false, "download the Playwright driver and Chromium before launching")
	rootCmd.AddCommand(runCmd)
}
