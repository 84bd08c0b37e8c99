package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/project-janitor/internal/report"
	"github.com/franz/project-janitor/internal/scan"
	"github.com/franz/project-janitor/internal/store"
	"github.com/franz/project-janitor/internal/util"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a source directory and analyse every Live set",
	Long: `Scan the source directory for .als project files and analyse them.

Each project is decompressed, parsed and measured (tracks, devices, clips,
tempo, duration), then scored for complexity and completion. Results are
upserted into the database keyed by absolute path, so re-running a scan
refreshes existing rows instead of duplicating them.

Directories named after a backup marker (default: Backup, _BACKUP_PHASES)
are skipped. A corrupt project is recorded as a failure and never stops
the rest of the scan.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, "source", "workers", "exclude")
	},
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	addScanFlags(scanCmd)
}

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("source", "s", "", "source directory containing Live projects")
	cmd.Flags().IntP("workers", "w", 0, "number of analysis workers (0 = auto)")
	cmd.Flags().StringSlice("exclude", scan.DefaultExclude, "directory names to skip")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	verbose, quiet := applyLogLevel()
	logger := openEventLogger(verbose, quiet)
	defer logger.Close()

	_, err := scanStage(ctx, logger)
	return err
}

// scanStage runs one scan pass under the stage lock
func scanStage(ctx context.Context, logger *report.EventLogger) (*scan.Result, error) {
	source := viper.GetString("source")
	if source == "" {
		return nil, fmt.Errorf("source directory is required (use --source/-s or set in config)")
	}
	if _, err := os.Stat(source); os.IsNotExist(err) {
		return nil, fmt.Errorf("source directory does not exist: %s", source)
	}

	dbPath := viper.GetString("db")

	lock, err := store.LockStage(dbPath)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	tuning := util.TuneWorkers(source, GetConfigInt("workers", 0))

	util.InfoLog("=== Project Scan ===")
	util.InfoLog("Source: %s", source)
	util.InfoLog("Database: %s", dbPath)
	util.InfoLog("Workers: %d", tuning.Workers)

	scanner := scan.New(&scan.Config{
		DBPath:           dbPath,
		Workers:          tuning.Workers,
		Exclude:          GetConfigStringSlice("exclude"),
		NetworkOptimized: tuning.Network != nil || util.IsNetworkPath(dbPath),
		Logger:           logger,
	})

	result, err := scanner.Scan(ctx, source)
	if result != nil {
		printScanResult(result)
	}
	if err != nil {
		return result, fmt.Errorf("scan failed: %w", err)
	}
	return result, nil
}

func printScanResult(result *scan.Result) {
	util.InfoLog("")
	util.SuccessLog("=== Scan Summary ===")
	util.InfoLog("Run: %s", result.RunID)
	util.InfoLog("Projects found: %d", result.Total)
	util.InfoLog("  Analyzed: %d", result.Succeeded)
	if result.Failed > 0 {
		util.WarnLog("  Failed: %d", result.Failed)
		for _, f := range result.Failures {
			util.WarnLog("    %s: %v", f.Path, f.Err)
		}
	}
	util.InfoLog("Elapsed: %v", result.Elapsed.Round(time.Millisecond))
	if result.Elapsed > 0 && result.Total > 0 {
		rate := float64(result.Total) / result.Elapsed.Seconds()
		util.InfoLog("Throughput: %s projects/s", humanize.FtoaWithDigits(rate, 1))
	}
}
