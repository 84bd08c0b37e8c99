package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/franz/project-janitor/internal/util"
)

// ProjectExt is the project file extension, matched case-insensitively
const ProjectExt = ".als"

// DefaultExclude are directory names never descended into. Live writes
// autosave copies to Backup/; _BACKUP_PHASES holds reorganisation snapshots.
var DefaultExclude = []string{"Backup", "_BACKUP_PHASES"}

// IsProjectFile reports whether name looks like a project document
func IsProjectFile(name string) bool {
	base := filepath.Base(name)
	// AppleDouble companions left behind by macOS on network shares
	if strings.HasPrefix(base, "._") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ProjectExt)
}

// Discover walks root and returns every project file outside excluded
// directories, sorted by path
func Discover(ctx context.Context, root string, exclude []string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to access root: %w", util.ClassifyIOError(err))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", util.ErrInvalidConfig, abs)
	}

	markers := make(map[string]bool, len(exclude))
	for _, m := range exclude {
		markers[strings.ToLower(m)] = true
	}

	var paths []string
	walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == abs {
				return err
			}
			util.WarnLog("Error accessing path %s: %v", path, err)
			return nil
		}

		if d.IsDir() {
			if path != abs && markers[strings.ToLower(d.Name())] {
				util.DebugLog("Skipping excluded directory: %s", path)
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type().IsRegular() && IsProjectFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk error: %w", walkErr)
	}

	sort.Strings(paths)
	return paths, nil
}
