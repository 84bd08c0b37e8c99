package scan

import (
	"github.com/franz/project-janitor/internal/meta"
	"github.com/franz/project-janitor/internal/score"
	"github.com/franz/project-janitor/internal/store"
)

// AnalyzeFile runs the per-item chain: extract the document, then score it.
// The returned project is ready to upsert.
func AnalyzeFile(path string) (*store.Project, error) {
	p, err := meta.ExtractFile(path)
	if err != nil {
		return nil, err
	}
	score.Apply(p)
	return p, nil
}
