package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"admissions-advisor/internal/app"
	"admissions-advisor/internal/platform/rabbitmq"
	"admissions-advisor/internal/repository"
	"admissions-advisor/internal/transport/http/middleware"
)

type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, job rabbitmq.IngestJob) error {
	_ = ctx
	_ = job
	return nil
}

const testJWTSecret = "handler-test-secret"

// newDocumentRouter wires the staff-gated document API the way the server
// does and returns an admin token for it.
func newDocumentRouter(t *testing.T) (*gin.Engine, *app.AuthService, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := openTestDB(t)

	authService := app.NewAuthService(repository.NewStaffRepository(db), testJWTSecret, time.Hour)
	admin, err := authService.Bootstrap(app.StaffInput{
		Username: "director",
		Email:    "director@university.edu",
		Password: "long-enough",
	})
	if err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}

	docService := app.NewDocumentService(repository.NewDocumentRepository(db), noopPublisher{}, t.TempDir())
	docHandler := NewDocumentHandler(docService, 1) // 1 MB cap for the tests

	router := gin.New()
	staffGroup := router.Group("/api/v1")
	staffGroup.Use(middleware.AuthJWT(testJWTSecret, authService))
	staffGroup.POST("/documents/upload", docHandler.Upload)
	staffGroup.GET("/documents", docHandler.List)
	staffGroup.DELETE("/documents/:id", docHandler.Delete)

	return router, authService, admin.Token
}

func uploadRequest(t *testing.T, filename string, content []byte, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fw, err := form.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestUploadEndpoint_RejectsNonPDF(t *testing.T) {
	router, _, token := newDocumentRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "notes.txt", []byte("plain text"), token))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for .txt upload, got %d body=%s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "only PDF files are allowed" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestUploadEndpoint_RejectsOversizedFile(t *testing.T) {
	router, _, token := newDocumentRouter(t)

	oversized := bytes.Repeat([]byte("a"), 1<<20+1) // just over the 1 MB cap
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "big.pdf", oversized, token))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized upload, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "file too large" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestUploadEndpoint_RejectsMissingFile(t *testing.T) {
	router, _, token := newDocumentRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without file part, got %d", rec.Code)
	}
}

func TestUploadEndpoint_AcceptsPDFAndListsIt(t *testing.T) {
	router, _, token := newDocumentRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "guide.pdf", []byte("%PDF-1.4 body"), token))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}

	var body struct {
		Data []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].Name != "guide" || body.Data[0].Status != "pending" {
		t.Fatalf("unexpected listing: %+v", body.Data)
	}
}

func TestDocumentAPI_RequiresToken(t *testing.T) {
	router, _, _ := newDocumentRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "guide.pdf", []byte("%PDF-1.4 body"), ""))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestDocumentAPI_DeactivatedStaffRejected(t *testing.T) {
	router, authService, _ := newDocumentRouter(t)

	admin, err := authService.Login(app.LoginInput{Username: "director", Password: "long-enough"})
	if err != nil {
		t.Fatalf("login admin: %v", err)
	}
	officer, err := authService.CreateStaff(admin.Staff.ID, app.StaffInput{
		Username: "leaver",
		Email:    "leaver@university.edu",
		Password: "long-enough",
	})
	if err != nil {
		t.Fatalf("create officer: %v", err)
	}
	officerLogin, err := authService.Login(app.LoginInput{Username: "leaver", Password: "long-enough"})
	if err != nil {
		t.Fatalf("login officer: %v", err)
	}

	if err := authService.Deactivate(admin.Staff.ID, officer.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// the still-unexpired token no longer passes the gate
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "guide.pdf", []byte("%PDF-1.4 body"), officerLogin.Token))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for deactivated staff, got %d body=%s", rec.Code, rec.Body.String())
	}
}
