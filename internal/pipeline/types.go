package pipeline

import (
	"time"
)

// Config holds configuration for an ingest run.
type Config struct {
	WorkerCount   int           // files read concurrently
	RetryAttempts int           // attempts per file and per write
	RetryBackoff  time.Duration // wait between attempts
	FallbackDate  time.Time     // snapshot date for files without a YYYYMMDD prefix
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		WorkerCount:   4,
		RetryAttempts: 3,
		RetryBackoff:  2 * time.Second,
	}
}

// RunStatus represents the current state of an ingest run
type RunStatus string

const (
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// FileJobStatus represents the state of a single file
type FileJobStatus string

const (
	FileStatusQueued    FileJobStatus = "queued"
	FileStatusCompleted FileJobStatus = "completed"
	FileStatusFailed    FileJobStatus = "failed"
)

// Run tracks the ingestion of every file of one snapshot date.
type Run struct {
	ID             int64
	Date           time.Time
	Status         RunStatus
	TotalFiles     int
	ProcessedFiles int
	TotalRows      int
	StartedAt      time.Time
	CompletedAt    *time.Time
	ErrorMessage   string
}

// FileJob tracks one snapshot file of a run.
type FileJob struct {
	ID           int64
	RunID        int64
	FilePath     string
	Status       FileJobStatus
	Rows         int
	ErrorMessage string
	ProcessedAt  *time.Time
	RetryCount   int
}
