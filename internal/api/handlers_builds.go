package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/dgallion1/webinclude/internal/book"
	"github.com/dgallion1/webinclude/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// handleCreateBuild accepts a multipart upload of markdown chapters and
// queues the book for expansion.
func (s *Server) handleCreateBuild(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	b := book.New(r.FormValue("title"))
	var skipped []string
	for _, fh := range files {
		name := sanitizeFilename(fh.Filename)
		if !book.IsChapterFile(name) {
			skipped = append(skipped, name)
			continue
		}

		f, err := fh.Open()
		if err != nil {
			jsonError(w, "failed to open "+name, http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			jsonError(w, "failed to read "+name, http.StatusBadRequest)
			return
		}
		b.Add(name, string(data))
	}
	if len(b.Chapters) == 0 {
		jsonError(w, "no markdown chapters in upload", http.StatusBadRequest)
		return
	}
	if b.Title == "" {
		b.Title = b.Chapters[0].Name
	}

	job := pipeline.NewJob(b)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.log.Info("build queued", "job_id", job.ID, "chapters", len(b.Chapters), "skipped", len(skipped))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"chapters": len(b.Chapters),
		"skipped":  skipped,
		"poll_url": fmt.Sprintf("/api/builds/%s/status", job.ID),
	})
}

func (s *Server) handleBuildStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(job.Snapshot())
}

// handleBuildChapter returns one chapter. Before the chapter has been
// expanded its source text is returned.
func (s *Server) handleBuildChapter(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		jsonError(w, "chapter index must be an integer", http.StatusBadRequest)
		return
	}
	ch, ok := job.Chapter(idx)
	if !ok {
		jsonError(w, "chapter not found", http.StatusNotFound)
		return
	}
	format, ok := outputFormat(r)
	if !ok {
		jsonError(w, "format must be markdown or html", http.StatusBadRequest)
		return
	}

	snap := job.Snapshot()
	content := ch.Content
	contentType := "text/markdown; charset=utf-8"
	if format == "html" {
		content, _, err = renderHTML(content)
		if err != nil {
			s.log.Error("render failed", "job_id", job.ID, "chapter", ch.Path, "error", err)
			jsonError(w, "render failed", http.StatusInternalServerError)
			return
		}
		contentType = "text/html; charset=utf-8"
	}

	etag := `"` + pipeline.ContentHashHex([]byte(content))[:32] + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Build-Status", string(snap.Status))
	w.Header().Set("X-Chapter-Name", ch.Name)
	_, _ = io.WriteString(w, content)
}

// sanitizeFilename cleans an uploaded name to a relative slash path
// without parent references.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Clean("/" + name)
	name = strings.TrimPrefix(name, "/")
	if name == "" || name == "." {
		return "unnamed.md"
	}
	return name
}
