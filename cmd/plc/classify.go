package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/project-janitor/internal/classify"
	"github.com/franz/project-janitor/internal/report"
	"github.com/franz/project-janitor/internal/store"
	"github.com/franz/project-janitor/internal/util"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Assign a category and migration priority to every analysed project",
	Long: `Classify every analysed project in the database.

The category table is evaluated in order and the first matching category
wins. Projects that match nothing fall back to a category chosen from their
completion status and complexity. Each project also receives a usage
priority between 0 and 100 that orders the migration queue.

Classification is all-or-nothing: it runs in a single transaction and a
failure leaves the previous classification untouched.

A custom category table can be supplied as a TOML file with --categories.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, "categories")
	},
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().String("categories", "", "TOML file with [[category]] rules (default: built-in table)")
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	verbose, quiet := applyLogLevel()
	logger := openEventLogger(verbose, quiet)
	defer logger.Close()

	_, err := classifyStage(ctx, logger)
	return err
}

// loadRules returns the configured category table or the built-in one
func loadRules() (*classify.Rules, error) {
	path := viper.GetString("categories")
	if path == "" {
		return classify.DefaultRules(), nil
	}
	util.InfoLog("Category rules: %s", path)
	return classify.LoadRules(path)
}

// classifyStage runs one classification pass under the stage lock
func classifyStage(ctx context.Context, logger *report.EventLogger) (*classify.Result, error) {
	rules, err := loadRules()
	if err != nil {
		return nil, err
	}

	dbPath := viper.GetString("db")

	lock, err := store.LockStage(dbPath)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	db, err := store.OpenWithOptions(dbPath, &store.OpenOptions{NetworkOptimized: util.IsNetworkPath(dbPath)})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	util.InfoLog("=== Classification ===")
	util.InfoLog("Database: %s", dbPath)

	classifier := classify.New(&classify.Config{
		Rules:  rules,
		Logger: logger,
	})

	result, err := classifier.Run(ctx, db)
	if err != nil {
		return nil, err
	}

	printClassifyResult(result, rules)
	return result, nil
}

func printClassifyResult(result *classify.Result, rules *classify.Rules) {
	util.InfoLog("")
	util.SuccessLog("=== Classification Summary ===")
	util.InfoLog("Projects classified: %d", result.Classified)
	if result.Fallbacks > 0 {
		util.InfoLog("Fallback assignments: %d", result.Fallbacks)
	}

	// Table order first, then any fallback-only names
	seen := make(map[string]bool)
	for _, name := range rules.Names() {
		seen[name] = true
		if n := result.ByCategory[name]; n > 0 {
			util.InfoLog("  %-24s %d", name, n)
		}
	}
	var rest []string
	for name := range result.ByCategory {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		util.InfoLog("  %-24s %d", name, result.ByCategory[name])
	}
}
