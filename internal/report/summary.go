package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/franz/project-janitor/internal/store"
	"github.com/franz/project-janitor/internal/util"
)

// Output file names written next to each other in the artifacts directory
const (
	MarkdownFile = "project_report.md"
	CSVFile      = "project_analysis.csv"
	JSONFile     = "classification_data.json"
)

// SummaryReport is a read-only snapshot of the store for reporting
type SummaryReport struct {
	GeneratedAt  time.Time          `json:"generated_at"`
	DatabasePath string             `json:"database_path,omitempty"`
	EventLogPath string             `json:"event_log_path,omitempty"`
	Stats        *store.Stats       `json:"stats"`
	LastRun      *store.Run         `json:"last_run,omitempty"`
	Categories   []store.GroupCount `json:"categories"`
	Completion   []store.GroupCount `json:"completion"`
	Phases       []store.GroupCount `json:"phases"`
	TopComplex   []*store.Project   `json:"-"`
	Queue        []*store.Project   `json:"-"`
}

// GenerateSummaryReport gathers aggregates from the store
func GenerateSummaryReport(db *store.Store, eventLogPath string) (*SummaryReport, error) {
	report := &SummaryReport{
		GeneratedAt:  time.Now(),
		DatabasePath: db.Path(),
		EventLogPath: eventLogPath,
	}

	var err error
	if report.Stats, err = db.Stats(); err != nil {
		return nil, err
	}
	if report.Categories, err = db.CategoryBreakdown(); err != nil {
		return nil, err
	}
	if report.Completion, err = db.CompletionBreakdown(); err != nil {
		return nil, err
	}
	if report.Phases, err = db.PhaseBreakdown(); err != nil {
		return nil, err
	}
	if report.TopComplex, err = db.TopByComplexity(10); err != nil {
		return nil, err
	}
	if report.Queue, err = db.MigrationQueue(store.QueueOptions{Limit: 20, PendingOnly: true}); err != nil {
		return nil, err
	}

	report.LastRun, err = db.LastRun()
	if err != nil && !errors.Is(err, util.ErrNotFound) {
		return nil, err
	}

	return report, nil
}

// WriteMarkdownReport writes the summary report as Markdown
func WriteMarkdownReport(report *SummaryReport, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var md strings.Builder
	st := report.Stats
	if st == nil {
		st = &store.Stats{}
	}

	md.WriteString("# Project Library Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))
	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", report.DatabasePath))
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", report.EventLogPath))
	}
	md.WriteString("---\n\n")

	md.WriteString("## Overview\n\n")
	overview := newMarkdownTable("Metric", "Value")
	overview.AppendRow(table.Row{"Projects", st.Total})
	overview.AppendRow(table.Row{"Analyzed", st.Analyzed})
	overview.AppendRow(table.Row{"Classified", st.Processed})
	overview.AppendRow(table.Row{"Migrated", st.Migrated})
	if st.MigrationFailed > 0 {
		overview.AppendRow(table.Row{"Migration Failures", st.MigrationFailed})
	}
	overview.AppendRow(table.Row{"Remaining", st.Remaining()})
	overview.AppendRow(table.Row{"Avg Complexity", fmt.Sprintf("%.1f", st.AvgComplexity)})
	overview.AppendRow(table.Row{"Project Files", humanize.IBytes(uint64(st.TotalFileSize))})
	overview.AppendRow(table.Row{"Audio Folders", humanize.IBytes(uint64(st.TotalAudioSize))})
	overview.AppendRow(table.Row{"Total Duration", time.Duration(st.TotalDuration * float64(time.Second)).Round(time.Second).String()})
	md.WriteString(overview.RenderMarkdown())
	md.WriteString("\n\n")

	if run := report.LastRun; run != nil {
		md.WriteString("## Last Scan\n\n")
		md.WriteString(fmt.Sprintf("- **Run:** `%s`\n", run.RunID))
		md.WriteString(fmt.Sprintf("- **Root:** `%s`\n", run.Root))
		md.WriteString(fmt.Sprintf("- **Started:** %s\n", humanize.Time(run.StartedAt)))
		md.WriteString(fmt.Sprintf("- **Result:** %d succeeded, %d failed of %d\n\n", run.Succeeded, run.Failed, run.Total))
	}

	if len(report.Categories) > 0 {
		md.WriteString("## Categories (migration order)\n\n")
		md.WriteString(renderGroups("Category", report.Categories))
		md.WriteString("\n\n")
	}

	if len(report.Completion) > 0 {
		md.WriteString("## Completion\n\n")
		md.WriteString(renderGroups("Status", report.Completion))
		md.WriteString("\n\n")
	}

	if len(report.Phases) > 0 {
		md.WriteString("## Phases\n\n")
		md.WriteString(renderGroups("Phase", report.Phases))
		md.WriteString("\n\n")
	}

	if len(report.TopComplex) > 0 {
		md.WriteString("## Most Complex Projects\n\n")
		t := newMarkdownTable("Project", "Complexity", "Status", "Tracks", "Plugins", "Path")
		for _, p := range report.TopComplex {
			t.AppendRow(table.Row{
				p.ProjectName,
				fmt.Sprintf("%.1f", p.ComplexityScore),
				p.CompletionStatus,
				p.TrackCount,
				p.PluginCount,
				"`" + truncatePath(p.FilePath, 60) + "`",
			})
		}
		md.WriteString(t.RenderMarkdown())
		md.WriteString("\n\n")
	}

	if len(report.Queue) > 0 {
		md.WriteString("## Migration Queue (next 20)\n\n")
		t := newMarkdownTable("#", "Project", "Category", "Priority", "Audio")
		for i, p := range report.Queue {
			t.AppendRow(table.Row{
				i + 1,
				p.ProjectName,
				p.Category,
				p.UsagePriority,
				humanize.IBytes(uint64(p.AudioFolderSize)),
			})
		}
		md.WriteString(t.RenderMarkdown())
		md.WriteString("\n\n")
	}

	md.WriteString("---\n\n")
	md.WriteString("*Generated by plc - project library classifier*\n")

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

func newMarkdownTable(headers ...any) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row(headers))
	return t
}

func renderGroups(label string, groups []store.GroupCount) string {
	t := newMarkdownTable(label, "Projects", "Avg Complexity", "Avg Priority", "Audio")
	for _, g := range groups {
		key := g.Key
		if key == "" {
			key = "(none)"
		}
		t.AppendRow(table.Row{
			key,
			g.Count,
			fmt.Sprintf("%.1f", g.AvgComplexity),
			fmt.Sprintf("%.1f", g.AvgPriority),
			humanize.IBytes(uint64(g.TotalAudio)),
		})
	}
	return t.RenderMarkdown()
}

// csvHeader lists the columns of the project export
var csvHeader = []string{
	"project_name", "file_path", "phase", "live_version",
	"category", "usage_priority", "completion_status", "complexity_score",
	"track_count", "audio_track_count", "midi_track_count", "plugin_count", "effect_count",
	"clip_count", "session_clip_count", "arrangement_clip_count",
	"tempo", "key_signature", "duration_beats", "duration_seconds",
	"has_arrangement", "session_only", "has_automation",
	"file_size", "audio_folder_size", "last_modified", "migrated",
}

// WriteProjectCSV exports every analysed project, one row each
func WriteProjectCSV(db *store.Store, outputPath string) (int, error) {
	projects, err := db.ListAnalyzed()
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create csv: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, p := range projects {
		priority := ""
		if p.Processed {
			priority = strconv.Itoa(p.UsagePriority)
		}
		record := []string{
			p.ProjectName, p.FilePath, p.Phase, p.LiveVersion,
			p.Category, priority, p.CompletionStatus, formatFloat(p.ComplexityScore),
			strconv.Itoa(p.TrackCount), strconv.Itoa(p.AudioTrackCount), strconv.Itoa(p.MidiTrackCount),
			strconv.Itoa(p.PluginCount), strconv.Itoa(p.EffectCount),
			strconv.Itoa(p.ClipCount), strconv.Itoa(p.SessionClipCount), strconv.Itoa(p.ArrangementClipCount),
			formatFloat(p.Tempo), p.KeySignature, formatFloat(p.DurationBeats), formatFloat(p.DurationSeconds),
			strconv.FormatBool(p.HasArrangement), strconv.FormatBool(p.SessionOnly), strconv.FormatBool(p.HasAutomation),
			strconv.FormatInt(p.FileSize, 10), strconv.FormatInt(p.AudioFolderSize, 10),
			p.LastModified.UTC().Format(time.RFC3339), strconv.FormatBool(p.Migrated),
		}
		if err := w.Write(record); err != nil {
			return 0, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush csv: %w", err)
	}

	return len(projects), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// classifiedProject is the JSON shape of one queue entry
type classifiedProject struct {
	Path       string  `json:"path"`
	Name       string  `json:"name"`
	Phase      string  `json:"phase,omitempty"`
	Category   string  `json:"category"`
	Priority   int     `json:"priority"`
	Completion string  `json:"completion_status"`
	Complexity float64 `json:"complexity_score"`
	Migrated   bool    `json:"migrated"`
}

// categorySummary is the JSON shape of one category aggregate
type categorySummary struct {
	Count         int     `json:"count"`
	AvgComplexity float64 `json:"avg_complexity"`
	AvgPriority   float64 `json:"avg_priority"`
	Description   string  `json:"description"`
}

// classificationData is the layout of classification_data.json
type classificationData struct {
	GeneratedAt    time.Time                  `json:"generated_at"`
	DatabasePath   string                     `json:"database_path,omitempty"`
	Categories     map[string]categorySummary `json:"categories"`
	TotalProjects  int                        `json:"total_projects"`
	MigrationOrder []string                   `json:"migration_order"`
	Stats          *store.Stats               `json:"stats,omitempty"`
	LastRun        *store.Run                 `json:"last_run,omitempty"`
	Projects       []classifiedProject        `json:"projects"`
}

// WriteClassificationJSON writes per-category aggregates, the category
// migration order and the full migration queue. descriptions maps category
// names to their rule table descriptions.
func WriteClassificationJSON(db *store.Store, report *SummaryReport, descriptions map[string]string, outputPath string) error {
	queue, err := db.MigrationQueue(store.QueueOptions{})
	if err != nil {
		return err
	}

	payload := classificationData{
		GeneratedAt:    report.GeneratedAt,
		DatabasePath:   report.DatabasePath,
		Categories:     make(map[string]categorySummary, len(report.Categories)),
		MigrationOrder: make([]string, 0, len(report.Categories)),
		Stats:          report.Stats,
		LastRun:        report.LastRun,
		Projects:       make([]classifiedProject, 0, len(queue)),
	}

	// report.Categories is already ordered by average priority
	for _, g := range report.Categories {
		payload.Categories[g.Key] = categorySummary{
			Count:         g.Count,
			AvgComplexity: round1(g.AvgComplexity),
			AvgPriority:   round1(g.AvgPriority),
			Description:   descriptions[g.Key],
		}
		payload.TotalProjects += g.Count
		payload.MigrationOrder = append(payload.MigrationOrder, g.Key)
	}

	for _, p := range queue {
		payload.Projects = append(payload.Projects, classifiedProject{
			Path:       p.FilePath,
			Name:       p.ProjectName,
			Phase:      p.Phase,
			Category:   p.Category,
			Priority:   p.UsagePriority,
			Completion: p.CompletionStatus,
			Complexity: p.ComplexityScore,
			Migrated:   p.Migrated,
		})
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode classification data: %w", err)
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write classification data: %w", err)
	}

	return nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// truncatePath truncates a file path to a maximum length in characters
func truncatePath(path string, maxLen int) string {
	runes := []rune(path)
	if len(runes) <= maxLen {
		return path
	}
	// Truncate from the middle, keeping start and end
	start := maxLen/2 - 2
	end := len(runes) - (maxLen/2 - 2)
	return string(runes[:start]) + "..." + string(runes[end:])
}
