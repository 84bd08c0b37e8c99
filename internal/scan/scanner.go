package scan

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/franz/project-janitor/internal/report"
	"github.com/franz/project-janitor/internal/store"
	"github.com/franz/project-janitor/internal/util"
)

// Scanner fans project analysis out over a worker pool. Workers share
// nothing but the database file: each opens its own store handle and commits
// one upsert per project.
type Scanner struct {
	dbPath           string
	openOpts         *store.OpenOptions
	workers          int
	exclude          []string
	logger           *report.EventLogger
	progressInterval time.Duration
}

// Config holds scanner configuration
type Config struct {
	DBPath           string
	Workers          int      // <= 0 uses util.DefaultWorkers
	Exclude          []string // nil uses DefaultExclude
	NetworkOptimized bool
	Logger           *report.EventLogger
	ProgressInterval time.Duration // default 2s
}

// New creates a new Scanner
func New(cfg *Config) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = util.DefaultWorkers()
	}
	if cfg.Exclude == nil {
		cfg.Exclude = DefaultExclude
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = 2 * time.Second
	}

	return &Scanner{
		dbPath:           cfg.DBPath,
		openOpts:         &store.OpenOptions{NetworkOptimized: cfg.NetworkOptimized},
		workers:          cfg.Workers,
		exclude:          cfg.Exclude,
		logger:           cfg.Logger,
		progressInterval: cfg.ProgressInterval,
	}
}

// Failure records one project that could not be analysed or stored
type Failure struct {
	Path string
	Err  error
}

// Result represents a scan result
type Result struct {
	RunID     string
	Root      string
	Workers   int
	Total     int
	Succeeded int
	Failed    int
	Failures  []Failure
	Elapsed   time.Duration
}

// itemResult travels from a worker to the collector
type itemResult struct {
	path string
	err  error
}

// Scan discovers every project under root and analyses it
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	util.InfoLog("Starting scan of: %s", abs)

	paths, err := Discover(ctx, abs, s.exclude)
	if err != nil {
		return nil, err
	}
	util.InfoLog("Found %d project files", len(paths))

	return s.process(ctx, abs, paths)
}

// Rescan analyses an explicit list of project files
func (s *Scanner) Rescan(ctx context.Context, paths []string) (*Result, error) {
	absPaths := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		absPaths = append(absPaths, abs)
	}
	return s.process(ctx, "rescan", absPaths)
}

func (s *Scanner) process(ctx context.Context, root string, paths []string) (*Result, error) {
	start := time.Now()

	// Opening here first applies migrations once, before workers race for it
	db, err := store.OpenWithOptions(s.dbPath, s.openOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	workers := s.workers
	if workers > len(paths) && len(paths) > 0 {
		workers = len(paths)
	}

	run := &store.Run{RunID: uuid.NewString(), Root: root, Workers: workers, Total: len(paths)}
	if err := db.StartRun(run); err != nil {
		return nil, err
	}
	s.logger.LogRun(run.RunID, root, "start", len(paths), 0)
	util.DebugLog("Run %s: %d projects, %d workers", run.RunID, len(paths), workers)

	result := &Result{
		RunID:   run.RunID,
		Root:    root,
		Workers: workers,
		Total:   len(paths),
	}

	jobs := make(chan string)
	resultCh := make(chan itemResult, workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for _, path := range paths {
			select {
			case jobs <- path:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			wdb, err := store.OpenWithOptions(s.dbPath, s.openOpts)
			if err != nil {
				return fmt.Errorf("worker failed to open store: %w", err)
			}
			defer wdb.Close()

			for path := range jobs {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				resultCh <- s.processOne(wdb, run.RunID, path)
			}
			return nil
		})
	}

	var waitErr error
	go func() {
		waitErr = g.Wait()
		close(resultCh)
	}()

	prog := newProgress(len(paths))
	ticker := time.NewTicker(s.progressInterval)
	defer ticker.Stop()

	for results := resultCh; results != nil; {
		select {
		case r, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			if r.err != nil {
				result.Failed++
				result.Failures = append(result.Failures, Failure{Path: r.path, Err: r.err})
				util.ErrorLog("Failed to analyze %s: %v", r.path, r.err)
			} else {
				result.Succeeded++
			}
			prog.add(r.err == nil)
		case <-ticker.C:
			prog.tick()
		}
	}
	prog.finish()

	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Path < result.Failures[j].Path
	})
	result.Elapsed = time.Since(start)

	run.Succeeded = result.Succeeded
	run.Failed = result.Failed
	if err := db.FinishRun(run); err != nil {
		util.WarnLog("Failed to record run %s: %v", run.RunID, err)
	}
	s.logger.LogRun(run.RunID, root, "finish", result.Total, result.Failed)

	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		return result, fmt.Errorf("scan aborted: %w", waitErr)
	}
	if waitErr != nil {
		util.WarnLog("Scan cancelled after %d of %d projects", result.Succeeded+result.Failed, result.Total)
		return result, waitErr
	}

	util.SuccessLog("Scan complete: %d analyzed, %d failed in %s",
		result.Succeeded, result.Failed, result.Elapsed.Round(time.Millisecond))

	return result, nil
}

// processOne analyses a single project and upserts it on the worker's handle.
// Errors stay with the item; they never stop the pool.
func (s *Scanner) processOne(db *store.Store, runID, path string) itemResult {
	start := time.Now()
	s.logger.LogScan(runID, path)

	p, err := AnalyzeFile(path)
	if err == nil {
		err = util.Retry(util.StoreRetryConfig(), func() error {
			return db.UpsertProject(p)
		}, "upsert "+filepath.Base(path))
	}

	if err != nil {
		s.logger.LogExtract(runID, path, "", 0, "", time.Since(start), err)
		return itemResult{path: path, err: err}
	}

	s.logger.LogExtract(runID, path, p.Phase, p.ComplexityScore, p.CompletionStatus, time.Since(start), nil)
	util.DebugLog("Analyzed %s: complexity %.1f, %s", path, p.ComplexityScore, p.CompletionStatus)
	return itemResult{path: path}
}
