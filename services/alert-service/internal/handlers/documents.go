package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/adapters/documents"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

// maxUploadBytes bounds multipart document uploads.
const maxUploadBytes = 20 << 20

// ClassifyRequest lists filenames to classify.
type ClassifyRequest struct {
	Filenames []string `json:"filenames"`
}

// Classification is the inferred type of one filename.
type Classification struct {
	Filename     string              `json:"filename"`
	DocumentType models.DocumentType `json:"document_type"`
}

// ClassifyResponse is the result of ClassifyDocuments.
type ClassifyResponse struct {
	Classifications []Classification `json:"classifications"`
}

// ClassifyDocuments infers document types from filenames.
// POST /api/v1/documents/classify
func (h *Handlers) ClassifyDocuments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req ClassifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Filenames) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "filenames is required"})
		return
	}

	out := make([]Classification, 0, len(req.Filenames))
	for _, name := range req.Filenames {
		out = append(out, Classification{Filename: name, DocumentType: documents.Classify(name)})
	}
	writeJSON(w, http.StatusOK, ClassifyResponse{Classifications: out})
}

// ListDocuments returns the user's documents from the document store, or the documents
// recorded in the user's state when the store is unavailable.
// GET /api/v1/users/:user_id/documents
func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := userIDParam(w, ps)
	if !ok {
		return
	}

	var recorded []models.Document
	state, err := h.states.Get(r.Context(), userID)
	switch {
	case err == nil:
		recorded = state.Documents
	case errors.Is(err, apperr.ErrNotFound):
	default:
		writeError(w, err, "user_id", userID)
		return
	}

	if h.docs == nil {
		writeJSON(w, http.StatusOK, models.DocumentListing{Documents: nonNil(recorded), Source: "state"})
		return
	}
	listing := h.docs.List(r.Context(), userID, recorded)
	listing.Documents = nonNil(listing.Documents)
	writeJSON(w, http.StatusOK, listing)
}

// UploadDocument stores a multipart "file" upload with an optional expiry_date (YYYY-MM-DD).
// POST /api/v1/users/:user_id/documents
func (h *Handlers) UploadDocument(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := userIDParam(w, ps)
	if !ok {
		return
	}
	if h.uploads == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "document storage is not configured"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid multipart form: " + err.Error()})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "file is required"})
		return
	}
	defer file.Close()

	req := documents.UploadRequest{
		UserID:      userID,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
	if raw := strings.TrimSpace(r.FormValue("expiry_date")); raw != "" {
		expiry, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "expiry_date must be YYYY-MM-DD"})
			return
		}
		req.ExpiryDate = &expiry
	}

	doc, err := h.uploads.Upload(r.Context(), req)
	if err != nil {
		h.metrics.IncrementCustom("document_uploads_failed")
		writeError(w, err, "user_id", userID, "filename", header.Filename)
		return
	}
	h.metrics.IncrementCustom("document_uploads")
	writeJSON(w, http.StatusCreated, doc)
}

func nonNil(docs []models.Document) []models.Document {
	if docs == nil {
		return []models.Document{}
	}
	return docs
}
