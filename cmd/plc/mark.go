package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/project-janitor/internal/store"
	"github.com/franz/project-janitor/internal/util"
)

var markCmd = &cobra.Command{
	Use:   "mark <project.als>",
	Short: "Record the outcome of migrating a project",
	Long: `Record whether a project was moved successfully.

The migration tooling calls this once per project it processes. Without
--failed the project is marked migrated; with --failed it is marked as
failed and the --reason text is stored alongside.`,
	Args: cobra.ExactArgs(1),
	RunE: runMark,
}

func init() {
	rootCmd.AddCommand(markCmd)
	markCmd.Flags().Bool("failed", false, "mark the migration as failed")
	markCmd.Flags().String("reason", "", "failure reason (with --failed)")
}

func runMark(cmd *cobra.Command, args []string) error {
	verbose, quiet := applyLogLevel()

	failed, _ := cmd.Flags().GetBool("failed")
	reason, _ := cmd.Flags().GetString("reason")
	if !failed && reason != "" {
		return fmt.Errorf("--reason only applies together with --failed")
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", args[0], err)
	}

	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.SetMigrationResult(path, !failed, reason); err != nil {
		return err
	}

	logger := openEventLogger(verbose, quiet)
	defer logger.Close()
	logger.LogMigrate(path, !failed, reason)

	if failed {
		util.WarnLog("Marked as failed: %s", path)
	} else {
		util.SuccessLog("Marked as migrated: %s", path)
	}
	return nil
}
