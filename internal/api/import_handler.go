package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"testdesk/app"
	"testdesk/domain/core"
	"testdesk/internal/errors"
	"testdesk/internal/report"
	"testdesk/models"
)

type importResponse struct {
	RunID     string                 `json:"run_id"`
	ProjectID int64                  `json:"project_id"`
	Outcomes  []models.ImportOutcome `json:"outcomes"`
	Summary   report.Summary         `json:"summary"`
	RuntimeMs int64                  `json:"runtime_ms"`
}

// handleImport accepts a multipart upload with the workbook under "file" and
// the target under "project_id" or "project_name".
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.UploadLimitBytes)
	if err := r.ParseMultipartForm(s.config.UploadLimitBytes); err != nil {
		s.writeError(w, r, errors.InvalidInput(fmt.Sprintf("invalid upload: %v", err)))
		return
	}
	defer r.MultipartForm.RemoveAll()

	target, err := parseTarget(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	overwrite := s.config.DefaultOverwrite
	if raw := r.FormValue("overwrite"); raw != "" {
		overwrite, err = strconv.ParseBool(raw)
		if err != nil {
			s.writeError(w, r, errors.InvalidInput("overwrite must be true or false"))
			return
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, errors.InvalidInput("a workbook must be uploaded in the file field"))
		return
	}
	defer file.Close()

	path, err := spool(file, header.Filename)
	if err != nil {
		s.writeError(w, r, errors.Wrap(err, "failed to store upload"))
		return
	}
	defer os.Remove(path)

	if err := s.imports.Acquire(r.Context(), 1); err != nil {
		s.writeErrorStatus(w, r, http.StatusServiceUnavailable, err)
		return
	}
	defer s.imports.Release(1)

	result, err := s.importer.Import(r.Context(), app.ImportRequest{
		Path:      path,
		FileName:  filepath.Base(header.Filename),
		Target:    target,
		Overwrite: overwrite,
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			status = http.StatusBadRequest
		}
		s.writeErrorStatus(w, r, status, err)
		return
	}

	writeJSON(w, http.StatusOK, importResponse{
		RunID:     result.RunID.String(),
		ProjectID: result.ProjectID,
		Outcomes:  result.Outcomes,
		Summary:   report.Summarize(result.Outcomes),
		RuntimeMs: result.RuntimeMs,
	})
}

func parseTarget(r *http.Request) (models.ImportTarget, error) {
	var target models.ImportTarget
	if raw := strings.TrimSpace(r.FormValue("project_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return target, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("%w: project_id %q is not a number", core.ErrInvalidTarget, raw))
		}
		target.ProjectID = id
	}
	target.NewProjectName = r.FormValue("project_name")
	if err := target.Validate(); err != nil {
		return target, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("%w: %v", core.ErrInvalidTarget, err))
	}
	return target, nil
}

// spool copies the upload to a temporary file that keeps the original
// extension, which the workbook reader checks.
func spool(src io.Reader, name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	f, err := os.CreateTemp("", "testdesk-upload-*"+ext)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, src); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
