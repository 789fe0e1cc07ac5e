package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ledongthuc/pdf"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zuai/sample-paper-api/internal/models"
	"github.com/zuai/sample-paper-api/internal/schema"
	"github.com/zuai/sample-paper-api/internal/store"
)

const maxUploadBytes = 32 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// TaskGetter reads task lifecycle state.
type TaskGetter interface {
	Get(ctx context.Context, id string) (*models.Task, error)
}

// Handler holds the extraction and task-status HTTP handlers.
type Handler struct {
	orch  *Orchestrator
	tasks TaskGetter
}

func NewHandler(orch *Orchestrator, tasks TaskGetter) *Handler {
	return &Handler{orch: orch, tasks: tasks}
}

// ExtractPDF accepts a multipart PDF upload, schedules a background
// extraction job and answers 202 with the task id.
func (h *Handler) ExtractPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a PDF file upload is required"})
		return
	}
	defer file.Close()

	if header.Header.Get("Content-Type") != "application/pdf" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Only PDF files are allowed."})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read uploaded file"})
		return
	}
	// The content-type header is client-controlled; make sure the bytes
	// actually parse as a PDF before burning a generation call on them.
	if !isPDF(data) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Only PDF files are allowed."})
		return
	}

	taskID, err := h.orch.SubmitPDF(r.Context(), header.Filename, data)
	if err != nil {
		log.Printf("extract pdf submit: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error initializing task"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": fmt.Sprintf("The request for PDF extraction is accepted and is under progress. Please check the task status using Task ID: %s", taskID),
	})
}

// ExtractText runs the synchronous extraction path over a raw text body.
// The body may be a JSON string or plain text; any other JSON value is a
// client error.
func (h *Handler) ExtractText(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read request body"})
		return
	}

	input, err := decodeTextBody(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Only plain text is allowed."})
		return
	}

	err = h.orch.ExtractText(r.Context(), input)
	var vErr *schema.ValidationError
	var sErr *StoreError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Sample paper extracted and saved successfully"})
	case errors.Is(err, ErrInvalidJSON):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON response from model."})
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": vErr.Error()})
	case errors.As(err, &sErr):
		log.Printf("extract text: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Database error"})
	default:
		log.Printf("extract text: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server error"})
	}
}

// TaskStatus reports the lifecycle state of a background job. Malformed
// ids are rejected before any store lookup.
func (h *Handler) TaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	if _, err := primitive.ObjectIDFromHex(taskID); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid Task ID format"})
		return
	}

	task, err := h.tasks.Get(r.Context(), taskID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No such Task exists"})
		return
	}
	if err != nil {
		log.Printf("task status %s: %v", taskID, err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Database error"})
		return
	}

	writeJSON(w, http.StatusOK, models.TaskStatusResponse{
		TaskID:      taskID,
		Status:      task.Status,
		Description: task.Description,
	})
}

// isPDF reports whether data parses as a PDF. The parser panics on some
// malformed inputs, so the check is wrapped in a recover.
func isPDF(data []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	return err == nil
}

// decodeTextBody accepts either a JSON string literal (the documented
// request shape) or a plain-text body, and rejects any other JSON value.
func decodeTextBody(body []byte) (string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", errors.New("empty body")
	}
	if json.Valid(trimmed) {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", errors.New("body must be a string")
		}
		return s, nil
	}
	return string(trimmed), nil
}
