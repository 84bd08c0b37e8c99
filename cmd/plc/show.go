package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/project-janitor/internal/store"
)

var showCmd = &cobra.Command{
	Use:   "show <project.als>",
	Short: "Show the stored analysis of one project",
	Long: `Display everything the database knows about a single project:
structure counts, timing, scores, classification and migration state.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", args[0], err)
	}

	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	p, err := db.GetProject(path)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.SetTitle(p.ProjectName)
	for _, row := range projectRows(p) {
		t.AppendRow(row)
	}
	t.Render()
	return nil
}

// projectRows flattens a project into label/value rows
func projectRows(p *store.Project) []table.Row {
	rows := []table.Row{
		{"Path", p.FilePath},
		{"Phase", orDash(p.Phase)},
		{"Live version", orDash(p.LiveVersion)},
		{"Content hash", p.ContentHash},
		{"File size", humanize.IBytes(uint64(p.FileSize))},
		{"Audio folders", humanize.IBytes(uint64(p.AudioFolderSize))},
		{"Last modified", fmt.Sprintf("%s (%s)", p.LastModified.Format("2006-01-02 15:04"), humanize.Time(p.LastModified))},
		{"Tracks", fmt.Sprintf("%d (%d audio, %d MIDI)", p.TrackCount, p.AudioTrackCount, p.MidiTrackCount)},
		{"Devices", fmt.Sprintf("%d plugins, %d effects", p.PluginCount, p.EffectCount)},
		{"Clips", fmt.Sprintf("%d (%d session, %d arrangement)", p.ClipCount, p.SessionClipCount, p.ArrangementClipCount)},
		{"Tempo", fmt.Sprintf("%.2f BPM", p.Tempo)},
		{"Key", p.KeySignature},
		{"Duration", fmt.Sprintf("%.1f beats, %.1f s", p.DurationBeats, p.DurationSeconds)},
		{"Arrangement", fmt.Sprintf("%.1f beats", p.ArrangementDurationBeats)},
		{"Automation", yesNo(p.HasAutomation)},
		{"Session only", yesNo(p.SessionOnly)},
		{"Complexity", fmt.Sprintf("%.2f", p.ComplexityScore)},
		{"Completion", p.CompletionStatus},
	}

	if p.Processed {
		rows = append(rows,
			table.Row{"Category", p.Category},
			table.Row{"Usage priority", p.UsagePriority},
			table.Row{"Classified", humanize.Time(p.ClassifiedAt)},
		)
	} else {
		rows = append(rows, table.Row{"Category", "(not classified)"})
	}

	switch {
	case p.Migrated:
		rows = append(rows, table.Row{"Migration", "migrated " + humanize.Time(p.MigratedAt)})
	case p.MigrationFailed:
		rows = append(rows, table.Row{"Migration", "failed: " + p.MigrationError})
	default:
		rows = append(rows, table.Row{"Migration", "pending"})
	}

	return rows
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
