package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/autoreplenish/internal/domain"
	"github.com/andresuchdata/autoreplenish/internal/snapshot"
	"github.com/rs/zerolog/log"
)

// RunStore persists ingest runs and their file jobs.
type RunStore interface {
	CreateRun(ctx context.Context, run *Run) error
	UpdateRun(ctx context.Context, run *Run) error
	CreateFileJob(ctx context.Context, job *FileJob) error
	UpdateFileJob(ctx context.Context, job *FileJob) error
}

// InventoryWriter replaces the stored rows of one snapshot date.
type InventoryWriter interface {
	ReplaceSnapshot(ctx context.Context, date time.Time, records []domain.InventoryRecord) (int, error)
}

// Orchestrator loads local snapshot files into the inventory store, one run
// per snapshot date. A run replaces whatever was stored for its date.
type Orchestrator struct {
	runs     RunStore
	writer   InventoryWriter
	cfg      Config
	readFile func(path string) ([]domain.InventoryRecord, error)
	now      func() time.Time
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(runs RunStore, writer InventoryWriter, cfg Config) *Orchestrator {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	return &Orchestrator{
		runs:     runs,
		writer:   writer,
		cfg:      cfg,
		readFile: snapshot.ReadFile,
		now:      time.Now,
	}
}

// Run groups files by snapshot date and ingests each group in date order.
// Runs processed before a failure are returned along with the error.
func (o *Orchestrator) Run(ctx context.Context, files []string) ([]*Run, error) {
	if len(files) == 0 {
		return nil, nil
	}

	byDate, err := o.groupByDate(files)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	runs := make([]*Run, 0, len(dates))
	for _, date := range dates {
		run, err := o.processBatch(ctx, date, byDate[date])
		if run != nil {
			runs = append(runs, run)
		}
		if err != nil {
			return runs, fmt.Errorf("failed to process batch for %s: %w", date.Format("2006-01-02"), err)
		}
	}

	return runs, nil
}

func (o *Orchestrator) groupByDate(files []string) (map[time.Time][]string, error) {
	byDate := make(map[time.Time][]string)
	for _, f := range files {
		date := snapshot.SnapshotDate(f)
		if date.IsZero() {
			date = o.cfg.FallbackDate
		}
		if date.IsZero() {
			return nil, fmt.Errorf("%s has no YYYYMMDD name prefix and no fallback date was given", f)
		}

		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		byDate[date] = append(byDate[date], f)
	}
	return byDate, nil
}

func (o *Orchestrator) processBatch(ctx context.Context, date time.Time, files []string) (*Run, error) {
	logger := log.With().Str("snapshot_date", date.Format("2006-01-02")).Logger()
	logger.Info().Int("files", len(files)).Msg("starting ingest run")

	run := &Run{
		Date:       date,
		Status:     StatusProcessing,
		TotalFiles: len(files),
		StartedAt:  o.now(),
	}
	if err := o.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create ingest run: %w", err)
	}

	jobs := make([]*FileJob, len(files))
	for i, file := range files {
		job := &FileJob{RunID: run.ID, FilePath: file, Status: FileStatusQueued}
		if err := o.runs.CreateFileJob(ctx, job); err != nil {
			return run, o.fail(ctx, run, fmt.Errorf("failed to create file job: %w", err))
		}
		jobs[i] = job
	}

	records, err := o.readAll(ctx, run, jobs)
	if err != nil {
		return run, o.fail(ctx, run, err)
	}

	for i := range records {
		records[i].SnapshotDate = date
	}
	numberSourceRows(records)

	var written int
	err = o.retry(ctx, func(int) error {
		n, err := o.writer.ReplaceSnapshot(ctx, date, records)
		written = n
		return err
	})
	if err != nil {
		return run, o.fail(ctx, run, fmt.Errorf("failed to store inventory rows: %w", err))
	}

	run.Status = StatusCompleted
	run.TotalRows = written
	completed := o.now()
	run.CompletedAt = &completed
	if err := o.runs.UpdateRun(ctx, run); err != nil {
		return run, fmt.Errorf("failed to complete ingest run: %w", err)
	}

	logger.Info().
		Int("files", run.ProcessedFiles).
		Int("rows", run.TotalRows).
		Dur("duration", completed.Sub(run.StartedAt)).
		Msg("ingest run completed")
	return run, nil
}

// numberSourceRows gives repeated product×store rows distinct ordinals so
// each one is stored and later summed, not overwritten.
func numberSourceRows(records []domain.InventoryRecord) {
	type key struct{ product, store string }
	seen := make(map[key]int, len(records))
	for i := range records {
		k := key{records[i].ProductID, records[i].StoreID}
		records[i].SourceRow = seen[k]
		seen[k]++
	}
}

// readAll reads the files of a run with a pool of workers. Rows keep job order.
func (o *Orchestrator) readAll(ctx context.Context, run *Run, jobs []*FileJob) ([]domain.InventoryRecord, error) {
	results := make([][]domain.InventoryRecord, len(jobs))
	jobChan := make(chan int, len(jobs))
	errChan := make(chan error, o.cfg.WorkerCount)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for w := 0; w < o.cfg.WorkerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobChan {
				rows, err := o.readJob(ctx, jobs[i])
				if err != nil {
					select {
					case errChan <- err:
					default:
					}
					continue
				}
				results[i] = rows

				mu.Lock()
				run.ProcessedFiles++
				mu.Unlock()
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []domain.InventoryRecord
	for _, rows := range results {
		all = append(all, rows...)
	}
	return all, nil
}

func (o *Orchestrator) readJob(ctx context.Context, job *FileJob) ([]domain.InventoryRecord, error) {
	var rows []domain.InventoryRecord
	err := o.retry(ctx, func(attempt int) error {
		job.RetryCount = attempt
		var err error
		rows, err = o.readFile(job.FilePath)
		return err
	})

	processed := o.now()
	job.ProcessedAt = &processed
	if err != nil {
		job.Status = FileStatusFailed
		job.ErrorMessage = err.Error()
	} else {
		job.Status = FileStatusCompleted
		job.Rows = len(rows)
	}

	if uerr := o.runs.UpdateFileJob(ctx, job); uerr != nil {
		log.Warn().Err(uerr).Str("file", job.FilePath).Msg("failed to update file job")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", job.FilePath, err)
	}

	log.Debug().Str("file", job.FilePath).Int("rows", len(rows)).Msg("snapshot file read")
	return rows, nil
}

// retry calls fn up to RetryAttempts times, waiting RetryBackoff in between.
// fn receives the zero-based attempt number.
func (o *Orchestrator) retry(ctx context.Context, fn func(attempt int) error) error {
	var err error
	for attempt := 0; attempt < o.cfg.RetryAttempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if attempt == o.cfg.RetryAttempts-1 {
			break
		}

		log.Warn().Err(err).Int("attempt", attempt+1).Int("max_attempts", o.cfg.RetryAttempts).Msg("retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.cfg.RetryBackoff):
		}
	}
	return err
}

func (o *Orchestrator) fail(ctx context.Context, run *Run, cause error) error {
	run.Status = StatusFailed
	run.ErrorMessage = cause.Error()
	completed := o.now()
	run.CompletedAt = &completed

	if err := o.runs.UpdateRun(ctx, run); err != nil {
		log.Error().Err(err).Int64("run_id", run.ID).Msg("failed to mark ingest run as failed")
	}
	return cause
}
