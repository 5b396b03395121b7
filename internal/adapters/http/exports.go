package httpadapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"rollcall/internal/domain"
	"rollcall/internal/workers/exportrunner"
)

const defaultWaitSeconds = 30

func (s *Server) createExport(w http.ResponseWriter, r *http.Request) {
	format, err := domain.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "unknown export format")
		return
	}
	var (
		wait    *bool
		timeout *int
	)
	if err := runtime.BindQueryParameter("form", true, false, "wait", r.URL.Query(), &wait); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "timeout", r.URL.Query(), &timeout); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.Jobs.Enqueue(r.Context(), format)
	if err != nil {
		s.internalError(w, r, "enqueue export", err)
		return
	}
	if wait == nil || !*wait {
		writeJSON(w, http.StatusAccepted, map[string]int64{"id": id})
		return
	}

	// blocking path, mostly for scripts and tests
	seconds := defaultWaitSeconds
	if timeout != nil && *timeout > 0 {
		seconds = *timeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(seconds)*time.Second)
	defer cancel()
	job, err := exportrunner.ProcessInline(ctx, s.Jobs, s.Processor, id, s.Logger)
	switch {
	case errors.Is(err, domain.ErrNotQueued):
		// a background worker claimed it first
		job, err = s.Jobs.Get(r.Context(), id)
		if err != nil {
			s.internalError(w, r, "load export", err)
			return
		}
		writeJSON(w, http.StatusAccepted, job)
	case err != nil:
		s.internalError(w, r, "inline export", err)
	case job.Status != domain.JobCompleted && errors.Is(ctx.Err(), context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, job)
	default:
		writeJSON(w, http.StatusOK, job)
	}
}

func (s *Server) exportID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid export id: %v", err))
		return 0, false
	}
	return id, true
}

func (s *Server) loadExport(w http.ResponseWriter, r *http.Request) (domain.ExportJob, bool) {
	id, ok := s.exportID(w, r)
	if !ok {
		return domain.ExportJob{}, false
	}
	job, err := s.Jobs.Get(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "export not found")
		return job, false
	}
	if err != nil {
		s.internalError(w, r, "load export", err)
		return job, false
	}
	return job, true
}

func (s *Server) getExport(w http.ResponseWriter, r *http.Request) {
	if job, ok := s.loadExport(w, r); ok {
		writeJSON(w, http.StatusOK, job)
	}
}

func (s *Server) downloadExport(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadExport(w, r)
	if !ok {
		return
	}
	if job.Status != domain.JobCompleted {
		writeJSONError(w, http.StatusConflict, fmt.Sprintf("export is %s", job.Status))
		return
	}

	f, err := os.Open(job.ResultPath)
	if errors.Is(err, os.ErrNotExist) {
		writeJSONError(w, http.StatusGone, "export file no longer exists")
		return
	}
	if err != nil {
		s.internalError(w, r, "open export", err)
		return
	}
	defer f.Close()

	modified := time.Time{}
	if job.FinishedAt != nil {
		modified = *job.FinishedAt
	}
	w.Header().Set("Content-Type", job.Format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(job.ResultPath)))
	http.ServeContent(w, r, filepath.Base(job.ResultPath), modified, f)
}
