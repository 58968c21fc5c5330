package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/retailkit/poscanon/internal/ingest"
	"github.com/retailkit/poscanon/internal/pipeline"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreateRun accepts a multipart upload ("file" part, CSV or XLSX),
// runs the pipeline on it, and returns the full run result. Rejected rows are
// part of the result, not an error; only batch-fatal failures (unusable
// schema, unknown location) return an error status.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, r, fmt.Errorf("upload exceeds limit of %d bytes", maxErr.Limit),
				http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, fmt.Errorf("missing multipart file part %q: %w", "file", err),
			http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	batch, err := ingest.Read(name, file)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
	defer cancel()

	result, err := s.pipeline.Run(ctx, batch)
	if err != nil {
		status := http.StatusInternalServerError

		var schemaErr *pipeline.SchemaError
		var configErr *pipeline.ConfigError
		if errors.As(err, &schemaErr) || errors.As(err, &configErr) {
			status = http.StatusUnprocessableEntity
		}

		respondError(w, r, err, status)
		return
	}

	if s.store != nil {
		if err := s.store.SaveResult(ctx, result); err != nil {
			// The run itself succeeded; report it and surface the persistence
			// failure in the log only.
			logger(r).Error("persist run", "run_id", result.RunID, "error", err)
		}
	}

	logger(r).Info("run complete",
		"run_id", result.RunID,
		"file", name,
		"accepted", result.Summary.Accepted,
		"rejected", result.Summary.Rejected,
		"exceptions", len(result.Exceptions),
	)

	respondJSON(w, http.StatusOK, result)
}
