package meta

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PhasesDir is the reserved directory name whose next component labels a phase
const PhasesDir = "Phases"

// ProjectName returns the NFC-normalised file stem
func ProjectName(path string) string {
	base := filepath.Base(path)
	return norm.NFC.String(strings.TrimSuffix(base, filepath.Ext(base)))
}

// PhaseFromPath returns the directory component following "Phases", or ""
// when the path has none. The file name itself is never a phase.
func PhaseFromPath(path string) string {
	dir := filepath.ToSlash(filepath.Dir(filepath.Clean(path)))
	parts := strings.Split(dir, "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == PhasesDir && parts[i+1] != "" {
			return norm.NFC.String(parts[i+1])
		}
	}
	return ""
}
