package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dgallion1/webinclude/internal/include"
	"github.com/dgallion1/webinclude/internal/render"
)

type expandResponse struct {
	Content string              `json:"content"`
	Format  string              `json:"format"`
	TOC     []render.Entry      `json:"toc,omitempty"`
	Report  expandReportSummary `json:"report"`
}

type expandReportSummary struct {
	Resolved      int                 `json:"resolved"`
	DepthExceeded int                 `json:"depth_exceeded"`
	Failed        []include.LinkError `json:"failed_links"`
}

func summarize(rep include.Report) expandReportSummary {
	failed := rep.Failed
	if failed == nil {
		failed = []include.LinkError{}
	}
	return expandReportSummary{
		Resolved:      rep.Resolved,
		DepthExceeded: rep.DepthExceeded,
		Failed:        failed,
	}
}

// handleExpand expands the request body synchronously.
func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	format, ok := outputFormat(r)
	if !ok {
		jsonError(w, "format must be markdown or html", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	content, rep := s.orchestrator.Expander().ExpandReport(r.Context(), string(data))
	resp := expandResponse{Content: content, Format: format, Report: summarize(rep)}

	if format == "html" {
		resp.Content, resp.TOC, err = renderHTML(content)
		if err != nil {
			s.log.Error("render failed", "error", err)
			jsonError(w, "render failed", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// outputFormat reads ?format=, defaulting to markdown.
func outputFormat(r *http.Request) (string, bool) {
	switch f := r.URL.Query().Get("format"); f {
	case "", "markdown", "md":
		return "markdown", true
	case "html":
		return "html", true
	default:
		return f, false
	}
}

func renderHTML(markdown string) (string, []render.Entry, error) {
	out, err := render.HTML(markdown)
	if err != nil {
		return "", nil, err
	}
	toc, err := render.TOC(out)
	if err != nil {
		return "", nil, err
	}
	return out, toc, nil
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
