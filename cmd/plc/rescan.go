package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/project-janitor/internal/scan"
	"github.com/franz/project-janitor/internal/store"
	"github.com/franz/project-janitor/internal/util"
)

var rescanCmd = &cobra.Command{
	Use:   "rescan <project.als>...",
	Short: "Re-analyse specific project files",
	Long: `Re-extract and re-score the given project files and upsert them.

Use this after editing a handful of projects instead of scanning the whole
archive again. Rescanned projects lose their classification until the next
classify pass; migration state is kept.`,
	Args: cobra.MinimumNArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, "workers")
	},
	RunE: runRescan,
}

func init() {
	rootCmd.AddCommand(rescanCmd)
	rescanCmd.Flags().IntP("workers", "w", 0, "number of analysis workers (0 = auto)")
}

func runRescan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	verbose, quiet := applyLogLevel()
	logger := openEventLogger(verbose, quiet)
	defer logger.Close()

	dbPath := viper.GetString("db")

	lock, err := store.LockStage(dbPath)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	tuning := util.TuneWorkers(args[0], GetConfigInt("workers", 0))

	scanner := scan.New(&scan.Config{
		DBPath:           dbPath,
		Workers:          tuning.Workers,
		NetworkOptimized: tuning.Network != nil || util.IsNetworkPath(dbPath),
		Logger:           logger,
	})

	util.InfoLog("=== Rescan ===")
	util.InfoLog("Projects: %d", len(args))

	result, err := scanner.Rescan(ctx, args)
	if result != nil {
		printScanResult(result)
	}
	if err != nil {
		return fmt.Errorf("rescan failed: %w", err)
	}

	if result.Succeeded > 0 {
		util.InfoLog("")
		util.InfoLog("Next step: plc classify")
	}
	return nil
}
