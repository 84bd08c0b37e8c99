package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/project-janitor/internal/report"
	"github.com/franz/project-janitor/internal/store"
	"github.com/franz/project-janitor/internal/util"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write analysis and classification reports from the database",
	Long: `Generate reports from the current database contents.

Three files are written to the output directory:
- project_report.md: summary statistics, category, completion and phase
  breakdowns, most complex projects and the head of the migration queue
- project_analysis.csv: one row per analysed project
- classification_data.json: per-category aggregates plus the full
  migration order

The reports are saved to artifacts/reports/<timestamp>/ unless --out is given.
Category descriptions come from --categories, or the built-in table.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, "categories")
	},
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("out", "", "output directory for reports (default: <artifacts>/reports/<timestamp>)")
	reportCmd.Flags().String("event-log", "", "path to the event log to reference (optional)")
	reportCmd.Flags().String("categories", "", "TOML file with [[category]] rules (default: built-in table)")
}

func runReport(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	rules, err := loadRules()
	if err != nil {
		return err
	}

	dbPath := viper.GetString("db")

	util.InfoLog("=== Generating Reports ===")
	util.InfoLog("Database: %s", dbPath)

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	eventLogPath, _ := cmd.Flags().GetString("event-log")

	util.InfoLog("Analyzing data...")
	summaryReport, err := report.GenerateSummaryReport(db, eventLogPath)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	outputDir, _ := cmd.Flags().GetString("out")
	if outputDir == "" {
		timestamp := time.Now().Format("20060102-150405")
		outputDir = filepath.Join(GetConfigString("artifacts", "artifacts"), "reports", timestamp)
	}

	mdPath := filepath.Join(outputDir, report.MarkdownFile)
	util.InfoLog("Writing report to: %s", mdPath)
	if err := report.WriteMarkdownReport(summaryReport, mdPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	csvPath := filepath.Join(outputDir, report.CSVFile)
	rows, err := report.WriteProjectCSV(db, csvPath)
	if err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	util.DebugLog("Wrote %d rows to %s", rows, csvPath)

	jsonPath := filepath.Join(outputDir, report.JSONFile)
	if err := report.WriteClassificationJSON(db, summaryReport, rules.Descriptions(), jsonPath); err != nil {
		return fmt.Errorf("failed to write classification data: %w", err)
	}

	st := summaryReport.Stats
	util.SuccessLog("Reports generated successfully!")
	util.InfoLog("")
	util.InfoLog("Reports saved to: %s", outputDir)
	util.InfoLog("")
	util.InfoLog("Summary:")
	util.InfoLog("  Projects analyzed: %d", st.Analyzed)
	util.InfoLog("  Projects classified: %d", st.Processed)
	if st.Migrated > 0 || st.MigrationFailed > 0 {
		util.InfoLog("  Migrated: %d", st.Migrated)
	}
	if st.MigrationFailed > 0 {
		util.WarnLog("  Migration failures: %d", st.MigrationFailed)
	}
	util.InfoLog("  Audio in project folders: %s", humanize.IBytes(uint64(st.TotalAudioSize)))

	return nil
}
