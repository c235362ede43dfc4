package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/webinclude/internal/book"
	"github.com/dgallion1/webinclude/internal/include"
)

func testBook() *book.Book {
	b := book.New("demo")
	b.Add("intro.md", "# Intro\n")
	b.Add("usage.md", "# Usage\n")
	return b
}

func TestContentHashHex_Consistency(t *testing.T) {
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h := ContentHashHex([]byte("hello world")); h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob(testBook())
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
	snap := job.Snapshot()
	if snap.Title != "demo" {
		t.Errorf("expected title %q, got %q", "demo", snap.Title)
	}
	if snap.Progress.TotalChapters != 2 {
		t.Errorf("expected 2 chapters, got %d", snap.Progress.TotalChapters)
	}
	if len(snap.Chapters) != 2 || snap.Chapters[1].Name != "Usage" || snap.Chapters[1].Index != 1 {
		t.Errorf("unexpected chapter summaries %+v", snap.Chapters)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob(testBook())

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusExpanding, "expanding"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_FinishChapter(t *testing.T) {
	job := NewJob(testBook())
	job.FinishChapter(0, "expanded", include.Report{
		Resolved:      3,
		DepthExceeded: 1,
		Failed:        []include.LinkError{{Link: "{{#webinclude http://x}}", Err: "boom"}},
	})

	ch, ok := job.Chapter(0)
	if !ok || ch.Content != "expanded" {
		t.Fatalf("expected expanded chapter, got %+v", ch)
	}
	snap := job.Snapshot()
	if snap.Progress.ChaptersProcessed != 1 || snap.Progress.LinksResolved != 3 || snap.Progress.DepthExceeded != 1 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
	if len(snap.Progress.Failed) != 1 {
		t.Errorf("expected one failed link, got %+v", snap.Progress.Failed)
	}
}

func TestJob_ChapterOutOfRange(t *testing.T) {
	job := NewJob(testBook())
	for _, i := range []int{-1, 2} {
		if _, ok := job.Chapter(i); ok {
			t.Errorf("Chapter(%d): expected not found", i)
		}
	}
}

func TestJob_SnapshotSlicesNotNil(t *testing.T) {
	snap := NewJob(testBook()).Snapshot()
	if snap.Progress.Errors == nil || snap.Progress.Failed == nil {
		t.Error("expected non-nil slices in snapshot")
	}
}

func TestJob_AddError(t *testing.T) {
	job := NewJob(testBook())
	job.AddError("first")
	job.AddError("second")
	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 || snap.Progress.Errors[0] != "first" {
		t.Errorf("unexpected errors %v", snap.Progress.Errors)
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := NewJob(testBook())
	store.Put(job)

	if got := store.Get(job.ID); got != job {
		t.Fatal("expected to get job back")
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := NewJob(testBook())
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	fresh := NewJob(testBook())
	store.Put(fresh)

	store.Cleanup()

	if store.Get(expired.ID) != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get(fresh.ID) == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}
