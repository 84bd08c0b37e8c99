package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/project-janitor/internal/report"
	"github.com/franz/project-janitor/internal/util"
)

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (PLC_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigInt retrieves an int config value with proper precedence
func GetConfigInt(key string, defaultValue int) int {
	val := viper.GetInt(key)
	if val == 0 {
		return defaultValue
	}
	return val
}

// GetConfigBool retrieves a bool config value
func GetConfigBool(key string) bool {
	return viper.GetBool(key)
}

// GetConfigStringSlice retrieves a string slice config value
func GetConfigStringSlice(key string) []string {
	return viper.GetStringSlice(key)
}

// bindFlags binds the named local flags of cmd to viper. Several commands
// share keys such as "source", so binding happens when the command runs
// rather than in init, where the last registration would win.
func bindFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if f := cmd.Flags().Lookup(name); f != nil {
			viper.BindPFlag(name, f)
		}
	}
}

// applyLogLevel configures console logging from the global flags
func applyLogLevel() (verbose, quiet bool) {
	verbose = GetConfigBool("verbose")
	quiet = GetConfigBool("quiet")
	util.SetVerbose(verbose)
	util.SetQuiet(quiet)
	return verbose, quiet
}

// openEventLogger creates the JSONL event log in the artifacts directory,
// falling back to a discarding logger when it cannot be created.
func openEventLogger(verbose, quiet bool) *report.EventLogger {
	logLevel := report.LevelInfo
	if quiet {
		logLevel = report.LevelWarning
	} else if verbose {
		logLevel = report.LevelDebug
	}

	logger, err := report.NewEventLogger(GetConfigString("artifacts", "artifacts"), logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}
	if logger.Path() != "" {
		util.InfoLog("Event log: %s", logger.Path())
	}
	return logger
}
