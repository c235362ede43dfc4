package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/webinclude/internal/book"
	"github.com/dgallion1/webinclude/internal/include"
)

// JobStatus represents the state of a build job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusExpanding JobStatus = "expanding"
	StatusCompleted JobStatus = "completed"
	StatusPartial   JobStatus = "partial"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the expansion of one book.
type Job struct {
	mu sync.Mutex

	ID     string
	Title  string
	Status JobStatus
	Phase  string

	Progress Progress

	CreatedAt time.Time
	UpdatedAt time.Time

	// Internal: not serialized.
	book *book.Book
}

// Progress tracks processing progress.
type Progress struct {
	TotalChapters     int                 `json:"total_chapters"`
	ChaptersProcessed int                 `json:"chapters_processed"`
	LinksResolved     int                 `json:"links_resolved"`
	DepthExceeded     int                 `json:"depth_exceeded"`
	Failed            []include.LinkError `json:"failed_links"`
	Errors            []string            `json:"errors"`
}

// NewJob creates a queued job for b.
func NewJob(b *book.Book) *Job {
	now := time.Now()
	return &Job{
		ID:        newJobID(),
		Title:     b.Title,
		Status:    StatusQueued,
		Phase:     "queued",
		Progress:  Progress{TotalChapters: len(b.Chapters)},
		CreatedAt: now,
		UpdatedAt: now,
		book:      b,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes jobs not updated within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records a job-level error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Errors = append(j.Progress.Errors, err)
	j.UpdatedAt = time.Now()
}

// FinishChapter stores the expanded content of chapter i and folds its
// report into the progress counters.
func (j *Job) FinishChapter(i int, content string, rep include.Report) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.book.Chapters[i].Content = content
	j.Progress.ChaptersProcessed++
	j.Progress.LinksResolved += rep.Resolved
	j.Progress.DepthExceeded += rep.DepthExceeded
	j.Progress.Failed = append(j.Progress.Failed, rep.Failed...)
	j.UpdatedAt = time.Now()
}

// ChapterCount returns the number of chapters in the job's book.
func (j *Job) ChapterCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.book.Chapters)
}

// Chapter returns a copy of chapter i, or false if out of range.
func (j *Job) Chapter(i int) (book.Chapter, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if i < 0 || i >= len(j.book.Chapters) {
		return book.Chapter{}, false
	}
	return *j.book.Chapters[i], true
}

// ChapterSummary describes a chapter without its content.
type ChapterSummary struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Path  string `json:"path"`
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string           `json:"job_id"`
	Title     string           `json:"title"`
	Status    JobStatus        `json:"status"`
	Phase     string           `json:"phase"`
	Progress  Progress         `json:"progress"`
	Chapters  []ChapterSummary `json:"chapters"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	p := j.Progress
	p.Failed = append([]include.LinkError{}, p.Failed...)
	p.Errors = append([]string{}, p.Errors...)

	chapters := make([]ChapterSummary, 0, len(j.book.Chapters))
	for i, ch := range j.book.Chapters {
		chapters = append(chapters, ChapterSummary{Index: i, Name: ch.Name, Path: ch.Path})
	}

	return JobSnapshot{
		ID:        j.ID,
		Title:     j.Title,
		Status:    j.Status,
		Phase:     j.Phase,
		Progress:  p,
		Chapters:  chapters,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
