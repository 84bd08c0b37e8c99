package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventRun      EventType = "run"
	EventScan     EventType = "scan"
	EventExtract  EventType = "extract"
	EventClassify EventType = "classify"
	EventMigrate  EventType = "migrate"
	EventError    EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event in the pipeline
type Event struct {
	Timestamp  time.Time         `json:"ts"`
	Level      EventLevel        `json:"level"`
	Event      EventType         `json:"event"`
	RunID      string            `json:"run_id,omitempty"`
	Path       string            `json:"path,omitempty"`
	Phase      string            `json:"phase,omitempty"`
	Complexity float64           `json:"complexity,omitempty"`
	Completion string            `json:"completion,omitempty"`
	Category   string            `json:"category,omitempty"`
	Priority   int               `json:"priority,omitempty"`
	Duration   int64             `json:"duration_ms,omitempty"` // in milliseconds
	Error      string            `json:"error,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file. A nil logger discards events.
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
// minLevel determines which events are written (e.g., LevelInfo skips LevelDebug)
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	// Append so two commands in the same second share one log
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogRun logs the start or end of a scan run
func (l *EventLogger) LogRun(runID, root, action string, total, failed int) error {
	return l.Log(&Event{
		Level: LevelInfo,
		Event: EventRun,
		RunID: runID,
		Path:  root,
		Extra: map[string]string{
			"action": action,
			"total":  strconv.Itoa(total),
			"failed": strconv.Itoa(failed),
		},
	})
}

// LogScan logs a discovered project file
func (l *EventLogger) LogScan(runID, path string) error {
	return l.Log(&Event{
		Level: LevelDebug,
		Event: EventScan,
		RunID: runID,
		Path:  path,
	})
}

// LogExtract logs the outcome of analysing one project
func (l *EventLogger) LogExtract(runID, path, phase string, complexity float64, completion string, elapsed time.Duration, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:      level,
		Event:      EventExtract,
		RunID:      runID,
		Path:       path,
		Phase:      phase,
		Complexity: complexity,
		Completion: completion,
		Duration:   elapsed.Milliseconds(),
		Error:      errMsg,
	})
}

// LogClassify logs a category assignment
func (l *EventLogger) LogClassify(path, category string, priority int, fallback bool) error {
	return l.Log(&Event{
		Level:    LevelDebug,
		Event:    EventClassify,
		Path:     path,
		Category: category,
		Priority: priority,
		Extra: map[string]string{
			"fallback": strconv.FormatBool(fallback),
		},
	})
}

// LogMigrate logs a migration result reported back by the mover
func (l *EventLogger) LogMigrate(path string, ok bool, reason string) error {
	level := LevelInfo
	if !ok {
		level = LevelWarning
	}
	return l.Log(&Event{
		Level: level,
		Event: EventMigrate,
		Path:  path,
		Error: reason,
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, path string, err error) error {
	return l.Log(&Event{
		Level: LevelError,
		Event: event,
		Path:  path,
		Error: err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
