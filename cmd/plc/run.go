package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/franz/project-janitor/internal/util"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scan the source directory, then classify the results",
	Long: `Run the full pipeline: scan followed by classify.

Classification starts only after the scan has finished, so it always sees
a complete set of analysed projects. Failed projects are reported but do
not prevent classification of the rest.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, "source", "workers", "exclude", "categories")
	},
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addScanFlags(runCmd)
	runCmd.Flags().String("categories", "", "TOML file with [[category]] rules (default: built-in table)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	verbose, quiet := applyLogLevel()
	logger := openEventLogger(verbose, quiet)
	defer logger.Close()

	// Fail fast on a bad rule file before spending time on the scan
	if _, err := loadRules(); err != nil {
		return err
	}

	scanResult, err := scanStage(ctx, logger)
	if err != nil {
		return err
	}

	util.InfoLog("")
	if _, err := classifyStage(ctx, logger); err != nil {
		return fmt.Errorf("classification after scan failed: %w", err)
	}

	if scanResult.Failed > 0 {
		util.WarnLog("%d projects could not be analysed; see the event log for details", scanResult.Failed)
	}
	util.InfoLog("")
	util.InfoLog("Next step: plc report")
	return nil
}
