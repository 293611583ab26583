// upload.go - The report intake handler.
//
// Validation order is part of the contract: auth (middleware), file
// presence, extension allow-list on the raw client filename, then
// persistence, then archive verification. Each step short-circuits.
package server

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/Aevum11/ET-Physics-Toolbox/internal/report"
)

// multipartMemoryLimit is the in-memory threshold for parsing the upload
// form; larger parts spool to temp files before the store sees them.
const multipartMemoryLimit = 4 << 20

// handleUpload accepts a multipart body with a required "file" part and
// an optional "description" text field, and persists both under today's
// date bucket. Responds 201 on success and a JSON error otherwise.
//
// Rejected zips stay on disk: by the time verification runs the bytes
// are already durable, and this node never deletes a received report.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	rid := RequestIDFromContext(r.Context())

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.metrics.recordUpload("too_large", 0)
			respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		s.metrics.recordUpload("bad_request", 0)
		respondError(w, http.StatusBadRequest, "No file part")
		return
	}

	fhs := r.MultipartForm.File["file"]
	if len(fhs) == 0 {
		// The multipart parser folds a file part with an empty filename
		// into a plain form value, so a "file" value here means the
		// part arrived without a usable name.
		s.metrics.recordUpload("bad_request", 0)
		if _, ok := r.MultipartForm.Value["file"]; ok {
			respondError(w, http.StatusBadRequest, "No selected file")
		} else {
			respondError(w, http.StatusBadRequest, "No file part")
		}
		return
	}
	fh := fhs[0]

	if fh.Filename == "" {
		s.metrics.recordUpload("bad_request", 0)
		respondError(w, http.StatusBadRequest, "No selected file")
		return
	}

	// Allow-list check on the raw client filename, before sanitization:
	// sanitizing first could rewrite an adversarial name (embedded
	// nulls) into an accepted extension.
	if !report.ExtensionAllowed(fh.Filename, s.cfg.AllowedExtensions) {
		s.metrics.recordUpload("bad_extension", 0)
		respondError(w, http.StatusBadRequest, "Invalid file type")
		return
	}

	file, err := fh.Open()
	if err != nil {
		log.Printf("rid=%s msg=form_file_open_failed err=%v", rid, err)
		s.metrics.recordUpload("store_failed", 0)
		respondError(w, http.StatusInternalServerError, "Failed to store report")
		return
	}
	defer file.Close()

	saved, err := s.store.Save(fh.Filename, file)
	if err != nil {
		log.Printf("rid=%s msg=store_failed err=%v", rid, err)
		s.metrics.recordUpload("store_failed", 0)
		respondError(w, http.StatusInternalServerError, "Failed to store report")
		return
	}

	if strings.HasSuffix(saved.Name, ".zip") {
		if err := report.VerifyArchive(saved.Path); err != nil {
			log.Printf("rid=%s msg=zip_rejected path=%s err=%v", rid, saved.Path, err)
			s.metrics.recordUpload("bad_archive", 0)
			if errors.Is(err, report.ErrCorruptArchive) {
				respondError(w, http.StatusBadRequest, "Corrupted ZIP")
			} else {
				respondError(w, http.StatusBadRequest, "Invalid ZIP")
			}
			return
		}
	}

	if desc := r.FormValue("description"); desc != "" {
		if _, err := s.store.SaveDescription(saved, desc); err != nil {
			// The report itself is durable; losing the optional note is
			// not worth failing the whole request over.
			log.Printf("rid=%s msg=desc_write_failed err=%v", rid, err)
		}
	}

	s.metrics.recordUpload("success", saved.Size)
	log.Printf("rid=%s msg=report_received path=%s bytes=%d", rid, saved.Path, saved.Size)
	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "Secure upload successful",
	})
}
