package http

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"spendlens/internal/amqp"
	applog "spendlens/internal/log"
)

// handleReceiptUpload accepts a multipart "receipt" image and queues it for
// OCR. The job ID is returned at once; results land in the expense list.
func (s *Server) handleReceiptUpload(w http.ResponseWriter, r *http.Request) {
	if s.deps.Queue == nil {
		writeError(w, http.StatusServiceUnavailable, "receipt processing is not configured")
		return
	}
	if r.ContentLength > s.deps.UploadMaxBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "receipt image is too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.deps.UploadMaxBytes)
	if err := r.ParseMultipartForm(s.deps.UploadMaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "receipt image is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart form with a receipt file")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("receipt")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing receipt file")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read receipt file")
		return
	}
	if len(image) == 0 {
		writeError(w, http.StatusBadRequest, "receipt file is empty")
		return
	}

	msg := amqp.NewReceiptScanMessage(userFrom(r.Context()), filepath.Base(header.Filename), image)
	if err := s.deps.Queue.PublishReceiptScan(r.Context(), msg); err != nil {
		fail(w, r, applog.OpPublish, err)
		return
	}
	applog.FromContext(r.Context()).Op(r.Context(), applog.OpPublish, "Receipt queued",
		applog.NewFields().With(applog.FieldJobID, msg.JobID).With("bytes", len(image)), nil)
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": msg.JobID, "status": "queued"})
}

type receiptTextRequest struct {
	Text string `json:"text"`
}

// handleReceiptText records a receipt whose text was extracted elsewhere.
func (s *Server) handleReceiptText(w http.ResponseWriter, r *http.Request) {
	var req receiptTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.deps.Receipts.ProcessText(r.Context(), userFrom(r.Context()), req.Text)
	if err != nil {
		fail(w, r, applog.OpExtract, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
