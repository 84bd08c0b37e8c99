package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/project-janitor/internal/store"
	"github.com/franz/project-janitor/internal/util"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List classified projects in migration order",
	Long: `Show the migration queue: classified projects ordered by usage
priority, highest first. Ties keep the order in which projects were first
analysed.

This is the read view the migration tooling consumes.`,
	RunE: runQueue,
}

func init() {
	rootCmd.AddCommand(queueCmd)
	queueCmd.Flags().StringP("category", "c", "", "only show projects in this category")
	queueCmd.Flags().IntP("limit", "n", 0, "maximum number of rows (0 = all)")
	queueCmd.Flags().Bool("pending", false, "hide projects already migrated")
	queueCmd.Flags().Bool("paths", false, "print file paths only, one per line")
}

func runQueue(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	category, _ := cmd.Flags().GetString("category")
	limit, _ := cmd.Flags().GetInt("limit")
	pending, _ := cmd.Flags().GetBool("pending")
	pathsOnly, _ := cmd.Flags().GetBool("paths")

	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	projects, err := db.MigrationQueue(store.QueueOptions{
		Category:    category,
		Limit:       limit,
		PendingOnly: pending,
	})
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		util.WarnLog("Migration queue is empty. Run 'plc classify' first.")
		return nil
	}

	if pathsOnly {
		for _, p := range projects {
			fmt.Fprintln(cmd.OutOrStdout(), p.FilePath)
		}
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Priority", "Category", "Project", "Phase", "Status", "Audio", "State"})
	for i, p := range projects {
		t.AppendRow(table.Row{
			i + 1,
			p.UsagePriority,
			p.Category,
			p.ProjectName,
			p.Phase,
			p.CompletionStatus,
			humanize.IBytes(uint64(p.AudioFolderSize)),
			migrationState(p),
		})
	}
	t.Render()

	if !util.IsQuiet() {
		fmt.Fprintf(os.Stderr, "%d projects\n", len(projects))
	}
	return nil
}

func migrationState(p *store.Project) string {
	switch {
	case p.Migrated:
		return "migrated"
	case p.MigrationFailed:
		return "failed"
	default:
		return "pending"
	}
}
