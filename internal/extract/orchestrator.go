package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/zuai/sample-paper-api/internal/models"
	"github.com/zuai/sample-paper-api/internal/schema"
)

// ErrInvalidJSON marks model output that failed to parse as JSON. This is
// the dominant real-world failure mode and is reported distinctly from
// other faults.
var ErrInvalidJSON = errors.New("invalid JSON response from model")

// StoreError wraps a document-store failure so handlers can answer 503.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string { return e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }

// Task failure descriptions surfaced through GET /tasks/{task_id}.
const (
	descInvalidJSON     = "Invalid JSON Response"
	descInvalidResponse = "Invalid response received"
	descDatabaseError   = "Database error"
	descInternalError   = "Internal Server error"
	descCompleted       = "Sample paper extracted and saved successfully"
)

// Generator drives the external content-generation model.
type Generator interface {
	GenerateFromText(ctx context.Context, input string) (string, error)
	UploadPDF(ctx context.Context, name string, data []byte) (string, error)
	GenerateFromFile(ctx context.Context, fileURI string) (string, error)
}

// PaperInserter persists extracted papers.
type PaperInserter interface {
	Insert(ctx context.Context, paper *models.Paper) (string, error)
}

// TaskStore tracks background job lifecycle state.
type TaskStore interface {
	Create(ctx context.Context) (string, error)
	Update(ctx context.Context, id, status, description string) error
}

// FileStore holds uploaded PDFs while a job is in flight.
type FileStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
}

const (
	maxConcurrentJobs = 4
	jobTimeout        = 5 * time.Minute
)

// Orchestrator runs the extraction pipeline: generation, parsing,
// validation and persistence, synchronously for text input and as
// detached background jobs for PDFs.
type Orchestrator struct {
	papers PaperInserter
	tasks  TaskStore
	files  FileStore
	gen    Generator

	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

func NewOrchestrator(papers PaperInserter, tasks TaskStore, files FileStore, gen Generator) *Orchestrator {
	return &Orchestrator{
		papers: papers,
		tasks:  tasks,
		files:  files,
		gen:    gen,
		sem:    semaphore.NewWeighted(maxConcurrentJobs),
	}
}

// ExtractText runs the synchronous path: generate, parse, validate,
// persist. No task is created; the outcome is returned to the caller.
func (o *Orchestrator) ExtractText(ctx context.Context, input string) error {
	raw, err := o.gen.GenerateFromText(ctx, input)
	if err != nil {
		return fmt.Errorf("content generation: %w", err)
	}
	paper, err := parseCandidate(raw)
	if err != nil {
		return err
	}
	if _, err := o.papers.Insert(ctx, paper); err != nil {
		return &StoreError{Err: err}
	}
	return nil
}

// SubmitPDF stores the upload, creates an In Progress task, then
// schedules a detached job. The task record exists and is queryable
// before SubmitPDF returns, so a client can never poll an id that is not
// there yet.
func (o *Orchestrator) SubmitPDF(ctx context.Context, filename string, data []byte) (string, error) {
	key := "uploads/" + uuid.NewString() + ".pdf"
	if err := o.files.Put(ctx, key, data); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	taskID, err := o.tasks.Create(ctx)
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}

	o.wg.Add(1)
	go o.runJob(taskID, key, filename, data)
	return taskID, nil
}

// Wait blocks until all in-flight background jobs have reached a
// terminal status. Used on shutdown.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// runJob executes one background extraction. It never propagates
// failures past its own boundary: every exit path, including a panic,
// lands the task in a terminal status.
func (o *Orchestrator) runJob(taskID, key, filename string, data []byte) {
	defer o.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("extraction job %s panic: %v", taskID, r)
			o.fail(taskID, descInternalError)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := o.sem.Acquire(ctx, 1); err != nil {
		log.Printf("extraction job %s: semaphore: %v", taskID, err)
		o.fail(taskID, descInternalError)
		return
	}
	defer o.sem.Release(1)

	fileURI, err := o.gen.UploadPDF(ctx, filename, data)
	if err != nil {
		log.Printf("extraction job %s: upload: %v", taskID, err)
		o.fail(taskID, descInternalError)
		return
	}

	raw, err := o.gen.GenerateFromFile(ctx, fileURI)
	if err != nil {
		log.Printf("extraction job %s: generation: %v", taskID, err)
		o.fail(taskID, descInternalError)
		return
	}

	paper, err := parseCandidate(raw)
	if errors.Is(err, ErrInvalidJSON) {
		log.Printf("extraction job %s: model returned malformed JSON", taskID)
		o.fail(taskID, descInvalidJSON)
		return
	}
	if err != nil {
		log.Printf("extraction job %s: %v", taskID, err)
		o.fail(taskID, descInvalidResponse)
		return
	}

	if _, err := o.papers.Insert(ctx, paper); err != nil {
		log.Printf("extraction job %s: persist: %v", taskID, err)
		o.fail(taskID, descDatabaseError)
		return
	}

	if err := o.files.Remove(ctx, key); err != nil {
		log.Printf("extraction job %s: cleanup %s: %v", taskID, key, err)
	}
	o.finish(taskID, models.TaskCompleted, descCompleted)
}

// parseCandidate turns raw model output into a validated paper. JSON
// syntax errors and schema violations are distinct outcomes.
func parseCandidate(raw string) (*models.Paper, error) {
	data := []byte(raw)
	if !json.Valid(data) {
		return nil, ErrInvalidJSON
	}
	paper, err := schema.Validate(data)
	if err != nil {
		return nil, err
	}
	return paper, nil
}

func (o *Orchestrator) fail(taskID, description string) {
	o.finish(taskID, models.TaskFailed, description)
}

// finish writes the terminal status with a fresh context so a job that
// died by timeout can still record its outcome.
func (o *Orchestrator) finish(taskID, status, description string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.tasks.Update(ctx, taskID, status, description); err != nil {
		log.Printf("extraction job %s: status update to %q failed: %v", taskID, status, err)
	}
}
