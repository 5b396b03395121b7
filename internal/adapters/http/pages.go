package httpadapter

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"rollcall/internal/domain"
	"rollcall/internal/roster"
	"rollcall/internal/services/students"
)

type indexPage struct {
	Snapshot *roster.Snapshot
	Uploaded string
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", indexPage{
		Snapshot: s.Store.Current(),
		Uploaded: r.URL.Query().Get("uploaded"),
	})
}

func (s *Server) student(w http.ResponseWriter, r *http.Request) {
	prof, err := s.Students.Lookup(r.Context(), r.FormValue("roll"))
	var notFound *students.NotFoundError
	switch {
	case errors.Is(err, students.ErrRollRequired):
		http.Error(w, "Roll number is required.", http.StatusBadRequest)
		return
	case errors.As(err, &notFound):
		msg := "Student not found."
		if len(notFound.Suggestions) > 0 {
			msg += " Did you mean: " + strings.Join(notFound.Suggestions, ", ") + "?"
		}
		http.Error(w, msg, http.StatusNotFound)
		return
	case err != nil:
		s.internalError(w, r, "student lookup", err)
		return
	}
	s.render(w, r, "student.html", prof)
}

func (s *Server) hackerRankBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := s.Students.Badges(r.Context(), r.FormValue("hackerrank_url"))
	if errors.Is(err, students.ErrInvalidURL) {
		writeJSON(w, http.StatusOK, map[string]string{"error": "Invalid URL"})
		return
	}
	if err != nil {
		s.internalError(w, r, "badge lookup", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"badges": badges})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.UploadMaxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("Upload exceeds %d bytes.", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "A roster file is required.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	parsed, err := roster.ParseFile(header.Filename, file)
	switch {
	case errors.Is(err, roster.ErrUnsupportedFormat),
		errors.Is(err, roster.ErrMissingColumn),
		errors.Is(err, roster.ErrEmpty):
		http.Error(w, "Invalid roster: "+err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, "Could not read roster file.", http.StatusBadRequest)
		return
	}

	snap := s.Store.Replace(parsed, header.Filename)
	s.Logger.InfoContext(r.Context(), "roster replaced", "version", snap.Version, "source", snap.Source, "students", parsed.Len())
	if s.Rosters != nil {
		if err := s.Rosters.SaveRoster(r.Context(), snap); err != nil {
			s.Logger.WarnContext(r.Context(), "persist roster", "version", snap.Version, "error", err)
		}
	}
	http.Redirect(w, r, fmt.Sprintf("/?uploaded=%d", snap.Version), http.StatusSeeOther)
}

func (s *Server) bulkFetch(w http.ResponseWriter, r *http.Request) {
	format, err := domain.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, "Unknown export format.", http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := s.Exporter.Export(r.Context(), s.Store.Current(), format, &buf, nil); err != nil {
		s.internalError(w, r, "bulk export", err)
		return
	}
	name := fmt.Sprintf("students_%s.%s", time.Now().Format("20060102"), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = buf.WriteTo(w)
}
