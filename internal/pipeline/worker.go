package pipeline

import (
	"context"
	"log/slog"

	"github.com/dgallion1/webinclude/internal/include"
)

// Worker expands the chapters of one job at a time.
type Worker struct {
	expander *include.Expander
	log      *slog.Logger
}

func NewWorker(expander *include.Expander, log *slog.Logger) *Worker {
	return &Worker{expander: expander, log: log}
}

// Process expands every chapter of job in order.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "title", job.Title)
	job.SetStatus(StatusExpanding, "expanding")

	total := job.ChapterCount()
	failed := 0
	for i := range total {
		if err := ctx.Err(); err != nil {
			log.Warn("build cancelled", "chapter", i, "error", err)
			job.AddError("cancelled: " + err.Error())
			job.SetStatus(StatusFailed, "expanding")
			return
		}

		ch, _ := job.Chapter(i)
		content, rep := w.expander.ExpandReport(ctx, ch.Content)
		job.FinishChapter(i, content, rep)
		failed += len(rep.Failed)

		log.Info("expanded chapter",
			"chapter", ch.Path,
			"resolved", rep.Resolved,
			"failed", len(rep.Failed),
			"depth_exceeded", rep.DepthExceeded,
		)
	}

	log.Info("build complete", "chapters", total, "failed_links", failed)
	if failed > 0 {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}
