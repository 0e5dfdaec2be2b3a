package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/filedrop/filedrop/internal/common"
	"github.com/filedrop/filedrop/internal/logging"
	"github.com/filedrop/filedrop/internal/server/config"
	"github.com/filedrop/filedrop/internal/server/files"
	"github.com/filedrop/filedrop/internal/server/models"
	"github.com/filedrop/filedrop/internal/server/storage"
	"github.com/filedrop/filedrop/internal/server/users"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// -------- test fixtures --------

type fakeUsersRepo struct {
	users map[string]*models.User
}

func (f *fakeUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = "id-" + user.UserName
	f.users[user.UserName] = user
	return user, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	user, ok := f.users[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return user, nil
}

type presigningStorage struct {
	*storage.MemoryStorage
}

func (p *presigningStorage) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return "https://store.example/put/" + key, nil
}

func testServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AccessTokenValidityDuration = time.Hour

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	hash, err := bcrypt.GenerateFromPassword([]byte("demo"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}
	repo := &fakeUsersRepo{users: map[string]*models.User{
		"demo": {ID: "1", UserName: "demo", PasswordHash: hash},
	}}
	us := users.NewService(repo, cfg)

	objects := &presigningStorage{MemoryStorage: storage.NewMemoryStorage()}
	fs := files.NewService(files.NewStore(), objects, logger, cfg.PresignTTL, cfg.MaxUploadSizeBytes)

	return NewServer(cfg, logger, us, fs)
}

func doRequest(t *testing.T, s *Server, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func loginDemo(t *testing.T, s *Server) string {
	t.Helper()
	w := doRequest(t, s, http.MethodPost, "/auth/login", "",
		strings.NewReader(`{"username":"demo","password":"demo"}`), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
	var res struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if res.AccessToken == "" {
		t.Fatalf("empty access token")
	}
	return res.AccessToken
}

func multipartBody(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// -------- auth --------

func TestLogin_InvalidCredentials(t *testing.T) {
	s := testServer(t)

	w := doRequest(t, s, http.MethodPost, "/auth/login", "",
		strings.NewReader(`{"username":"demo","password":"wrong"}`), "application/json")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	s := testServer(t)

	w := doRequest(t, s, http.MethodPost, "/auth/login", "",
		strings.NewReader(`{"username":"demo"}`), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestFilesRoutes_RequireToken(t *testing.T) {
	s := testServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/files"},
		{http.MethodPost, "/files/upload"},
		{http.MethodPost, "/files/upload-url"},
		{http.MethodGet, "/files/abc/download-url"},
		{http.MethodDelete, "/files/abc"},
	} {
		w := doRequest(t, s, tc.method, tc.path, "", nil, "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 without token, got %d", tc.method, tc.path, w.Code)
		}
	}

	w := doRequest(t, s, http.MethodGet, "/files", "not-a-token", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", w.Code)
	}
}

// -------- upload + list + download + delete round trip --------

func TestUploadListDownloadDelete(t *testing.T) {
	s := testServer(t)
	token := loginDemo(t, s)

	// empty listing first
	w := doRequest(t, s, http.MethodGet, "/files", token, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Fatalf("expected empty array, got %s", got)
	}

	// upload
	body, ctype := multipartBody(t, "notes.txt", "text/plain", []byte("hello world"))
	w = doRequest(t, s, http.MethodPost, "/files/upload", token, body, ctype)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d %s", w.Code, w.Body.String())
	}
	var rec models.FileInfo
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if rec.ID == "" || rec.OriginalName != "notes.txt" || rec.Size != 11 || rec.MimeType != "text/plain" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	// listing shows it
	w = doRequest(t, s, http.MethodGet, "/files", token, nil, "")
	var list []models.FileInfo
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != rec.ID {
		t.Fatalf("unexpected list: %+v", list)
	}

	// download url (memory backend serves a data URL)
	w = doRequest(t, s, http.MethodGet, "/files/"+rec.ID+"/download-url", token, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("download-url: expected 200, got %d", w.Code)
	}
	var dl struct {
		DownloadURL string `json:"downloadUrl"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &dl); err != nil {
		t.Fatalf("decode download-url: %v", err)
	}
	if !strings.HasPrefix(dl.DownloadURL, "data:text/plain;base64,") {
		t.Fatalf("unexpected download url: %q", dl.DownloadURL)
	}

	// delete
	w = doRequest(t, s, http.MethodDelete, "/files/"+rec.ID, token, nil, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	w = doRequest(t, s, http.MethodDelete, "/files/"+rec.ID, token, nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
}

func TestUpload_DisallowedType(t *testing.T) {
	s := testServer(t)
	token := loginDemo(t, s)

	body, ctype := multipartBody(t, "movie.mp4", "video/mp4", []byte("x"))
	w := doRequest(t, s, http.MethodPost, "/files/upload", token, body, ctype)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUpload_NoFile(t *testing.T) {
	s := testServer(t)
	token := loginDemo(t, s)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("other", "value")
	_ = mw.Close()

	w := doRequest(t, s, http.MethodPost, "/files/upload", token, &buf, mw.FormDataContentType())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

// -------- presigned flow --------

func TestUploadURLAndCompleteUpload(t *testing.T) {
	s := testServer(t)
	token := loginDemo(t, s)

	w := doRequest(t, s, http.MethodPost, "/files/upload-url", token,
		strings.NewReader(`{"filename":"report.pdf","mimeType":"application/pdf"}`), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("upload-url: expected 200, got %d %s", w.Code, w.Body.String())
	}

	var res struct {
		UploadURL string          `json:"uploadUrl"`
		File      models.FileInfo `json:"file"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(res.UploadURL, "https://store.example/put/uploads/") {
		t.Fatalf("unexpected upload url: %q", res.UploadURL)
	}
	if res.File.Size != 0 {
		t.Fatalf("presigned record must start at size 0, got %d", res.File.Size)
	}

	// client reports completion
	w = doRequest(t, s, http.MethodPost, "/files/"+res.File.ID+"/complete-upload", token,
		strings.NewReader(`{"size":4096}`), "application/json")
	if w.Code != http.StatusNoContent {
		t.Fatalf("complete-upload: expected 204, got %d", w.Code)
	}

	w = doRequest(t, s, http.MethodGet, "/files", token, nil, "")
	var list []models.FileInfo
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].Size != 4096 {
		t.Fatalf("size not finalized: %+v", list)
	}

	// unknown id: still 204, silently ignored
	w = doRequest(t, s, http.MethodPost, "/files/unknown/complete-upload", token,
		strings.NewReader(`{"size":1}`), "application/json")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for unknown id, got %d", w.Code)
	}
}

func TestUploadURL_MissingFields(t *testing.T) {
	s := testServer(t)
	token := loginDemo(t, s)

	w := doRequest(t, s, http.MethodPost, "/files/upload-url", token,
		strings.NewReader(`{"filename":"report.pdf"}`), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUploadURL_DisallowedType(t *testing.T) {
	s := testServer(t)
	token := loginDemo(t, s)

	w := doRequest(t, s, http.MethodPost, "/files/upload-url", token,
		strings.NewReader(`{"filename":"page.html","mimeType":"text/html"}`), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

// -------- ownership --------

func TestDownloadURL_ForeignFileIs404(t *testing.T) {
	s := testServer(t)
	token := loginDemo(t, s)

	// upload as demo, then ask for a non-existent id: same 404 either way
	body, ctype := multipartBody(t, "notes.txt", "text/plain", []byte("x"))
	w := doRequest(t, s, http.MethodPost, "/files/upload", token, body, ctype)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload failed: %d", w.Code)
	}

	w = doRequest(t, s, http.MethodGet, "/files/someone-elses-id/download-url", token, nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/files", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow-origin: %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("unexpected allow-credentials: %q", got)
	}
}
