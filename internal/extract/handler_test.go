package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zuai/sample-paper-api/internal/models"
	"github.com/zuai/sample-paper-api/internal/store"
)

type fakeTaskGetter struct {
	task  *models.Task
	calls int
}

func (g *fakeTaskGetter) Get(ctx context.Context, id string) (*models.Task, error) {
	g.calls++
	if g.task == nil {
		return nil, store.ErrNotFound
	}
	return g.task, nil
}

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/extract/pdf", h.ExtractPDF)
	r.Post("/extract/text", h.ExtractText)
	r.Get("/tasks/{task_id}", h.TaskStatus)
	return r
}

func TestTaskStatusMalformedIDNeverHitsStore(t *testing.T) {
	getter := &fakeTaskGetter{}
	h := NewHandler(nil, getter)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/tasks/not-a-valid-id", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
	if getter.calls != 0 {
		t.Fatalf("store lookup must not run for a malformed id")
	}
}

func TestTaskStatusUnknownTask(t *testing.T) {
	getter := &fakeTaskGetter{}
	h := NewHandler(nil, getter)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/tasks/6633e17c8b6f4a0001aaaaaa", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
	if getter.calls != 1 {
		t.Fatalf("well-formed ids should reach the store")
	}
}

func TestTaskStatusReportsTerminalState(t *testing.T) {
	desc := "Invalid JSON Response"
	getter := &fakeTaskGetter{task: &models.Task{Status: models.TaskFailed, Description: &desc}}
	h := NewHandler(nil, getter)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/tasks/6633e17c8b6f4a0001aaaaaa", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
	var body models.TaskStatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TaskID != "6633e17c8b6f4a0001aaaaaa" || body.Status != models.TaskFailed {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Description == nil || *body.Description != desc {
		t.Fatalf("description should round-trip, got %v", body.Description)
	}
}

func TestExtractTextHappyPath(t *testing.T) {
	papers := &fakePapers{}
	orch, _ := newTestOrchestrator(&fakeGen{textResp: quizResponse}, papers, newFakeTasks())
	h := NewHandler(orch, &fakeTaskGetter{})
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/extract/text", strings.NewReader(`"Q1: 2+2=? Ans: 4"`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rec.Code, rec.Body)
	}
	if papers.count() != 1 {
		t.Fatalf("paper should be persisted")
	}
}

func TestExtractTextInvalidModelJSON(t *testing.T) {
	orch, _ := newTestOrchestrator(&fakeGen{textResp: `{"broken": `}, &fakePapers{}, newFakeTasks())
	h := NewHandler(orch, &fakeTaskGetter{})
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/extract/text", strings.NewReader(`"some text"`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid JSON response from model") {
		t.Fatalf("body should call out the model JSON failure: %s", rec.Body)
	}
}

func TestExtractTextValidationFailureIs422(t *testing.T) {
	resp := `{"title":"X","type":"sample_paper","time":10,"tags":[],"chapters":[],"sections":[]}`
	orch, _ := newTestOrchestrator(&fakeGen{textResp: resp}, &fakePapers{}, newFakeTasks())
	h := NewHandler(orch, &fakeTaskGetter{})
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/extract/text", strings.NewReader(`"some text"`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got %d, want 422", rec.Code)
	}
}

func TestExtractTextRejectsNonStringJSONBody(t *testing.T) {
	orch, _ := newTestOrchestrator(&fakeGen{}, &fakePapers{}, newFakeTasks())
	h := NewHandler(orch, &fakeTaskGetter{})
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/extract/text", strings.NewReader(`{"not":"a string"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
}

func multipartBody(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="paper.pdf"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write(data)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestExtractPDFRejectsWrongContentType(t *testing.T) {
	orch, _ := newTestOrchestrator(&fakeGen{}, &fakePapers{}, newFakeTasks())
	h := NewHandler(orch, &fakeTaskGetter{})
	router := newTestRouter(h)

	body, contentType := multipartBody(t, "text/plain", []byte("just text"))
	req := httptest.NewRequest(http.MethodPost, "/extract/pdf", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Only PDF files are allowed") {
		t.Fatalf("unexpected body: %s", rec.Body)
	}
}

func TestExtractPDFRejectsNonPDFBytes(t *testing.T) {
	orch, _ := newTestOrchestrator(&fakeGen{}, &fakePapers{}, newFakeTasks())
	h := NewHandler(orch, &fakeTaskGetter{})
	router := newTestRouter(h)

	body, contentType := multipartBody(t, "application/pdf", []byte("definitely not a pdf"))
	req := httptest.NewRequest(http.MethodPost, "/extract/pdf", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
}

func TestExtractPDFMissingFile(t *testing.T) {
	orch, _ := newTestOrchestrator(&fakeGen{}, &fakePapers{}, newFakeTasks())
	h := NewHandler(orch, &fakeTaskGetter{})
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/extract/pdf", strings.NewReader("no multipart"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xxx")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
}
