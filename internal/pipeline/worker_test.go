package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dgallion1/webinclude/internal/book"
	"github.com/dgallion1/webinclude/internal/config"
	"github.com/dgallion1/webinclude/internal/include"
)

type stubFetcher map[string]string

func (f stubFetcher) Fetch(_ context.Context, url string, _ map[string]string) (string, error) {
	if body, ok := f[url]; ok {
		return body, nil
	}
	return "", errors.New("not found")
}

func testExpander(f include.Fetcher) *include.Expander {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return include.NewExpander(include.NewResolver(f, nil), log)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorker_Process(t *testing.T) {
	b := book.New("demo")
	b.Add("a.md", "A: {{#webinclude http://src.test/a}}")
	b.Add("b.md", "B: {{#webinclude http://src.test/b}}")
	job := NewJob(b)

	w := NewWorker(testExpander(stubFetcher{"http://src.test/a": "alpha", "http://src.test/b": "beta"}), discardLogger())
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q", StatusCompleted, snap.Status)
	}
	if snap.Progress.ChaptersProcessed != 2 || snap.Progress.LinksResolved != 2 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
	if ch, _ := job.Chapter(1); ch.Content != "B: beta" {
		t.Errorf("unexpected chapter content %q", ch.Content)
	}
}

func TestWorker_ProcessPartial(t *testing.T) {
	b := book.New("demo")
	b.Add("a.md", "{{#webinclude http://src.test/missing}}")
	job := NewJob(b)

	NewWorker(testExpander(stubFetcher{}), discardLogger()).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected status %q, got %q", StatusPartial, snap.Status)
	}
	if ch, _ := job.Chapter(0); ch.Content != "{{#webinclude http://src.test/missing}}" {
		t.Errorf("failed directive should stay literal, got %q", ch.Content)
	}
}

func TestWorker_ProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := NewJob(testBook())
	NewWorker(testExpander(stubFetcher{}), discardLogger()).Process(ctx, job)

	if snap := job.Snapshot(); snap.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, snap.Status)
	}
}

func TestOrchestrator_SubmitAndProcess(t *testing.T) {
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 4, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, testExpander(stubFetcher{"http://src.test/a": "alpha"}), discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	b := book.New("demo")
	b.Add("a.md", "{{#webinclude http://src.test/a}}")
	job := NewJob(b)
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if o.GetJob(job.ID) != job {
		t.Fatal("expected job to be registered")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if job.Snapshot().Status == StatusCompleted {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if ch, _ := job.Chapter(0); ch.Content != "alpha" {
		t.Errorf("expected expanded chapter, got %q (status %q)", ch.Content, job.Snapshot().Status)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	// Not started: nothing drains the queue.
	o := NewOrchestrator(cfg, testExpander(stubFetcher{}), discardLogger())

	if err := o.Submit(NewJob(testBook())); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second := NewJob(testBook())
	if err := o.Submit(second); err == nil {
		t.Fatal("expected queue full error")
	}
	if second.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected job to be failed, got %q", second.Snapshot().Status)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}
