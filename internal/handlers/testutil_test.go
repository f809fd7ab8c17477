package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/metaa35/qrwedding-sub000/internal/database"
	"github.com/metaa35/qrwedding-sub000/internal/middleware"
	"github.com/metaa35/qrwedding-sub000/internal/models"
	"github.com/metaa35/qrwedding-sub000/internal/services"
	"github.com/metaa35/qrwedding-sub000/internal/storage"
	"github.com/metaa35/qrwedding-sub000/pkg/linktoken"
	"github.com/metaa35/qrwedding-sub000/pkg/utils"
)

const testFrontendURL = "http://localhost:3000"

type testEnv struct {
	app     *fiber.App
	db      *gorm.DB
	store   *storage.MemoryStore
	tempDir string
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return setupTestEnvWithStore(t, func(store *storage.MemoryStore) storage.ObjectStore { return store })
}

// setupTestEnvWithStore lets a test wrap the in-memory object store.
func setupTestEnvWithStore(t *testing.T, wrap func(*storage.MemoryStore) storage.ObjectStore) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		utils.ConfigureJWT("test-secret", 24)
		linktoken.Configure("test-link-secret", time.Hour)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	store := storage.NewMemoryStore()
	tempDir := t.TempDir()

	renderer, err := services.NewQRRenderer(300, 2, "#000000", "#FFFFFF")
	if err != nil {
		t.Fatalf("failed creating qr renderer: %v", err)
	}

	auditService := services.NewAuditService(db, 100)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = auditService.Close(ctx)
	})

	authService := services.NewAuthService(db, true)
	accessService := services.NewAccessService(db)
	qrService := services.NewQRService(db, renderer, testFrontendURL, 10)
	driveService := services.NewDriveService(db, wrap(store), "Etkinlik Yüklemeleri")
	links := services.NewLinkBuilder("http://localhost:8080")
	uploadService := services.NewUploadService(db, qrService, driveService, links, tempDir, 50*1024*1024, 10)
	galleryService := services.NewGalleryService(accessService, driveService, links)

	if _, err := driveService.EnsureRoot(context.Background()); err != nil {
		t.Fatalf("failed creating drive root: %v", err)
	}

	app := fiber.New(fiber.Config{BodyLimit: 100 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	RegisterRoutes(app, middleware.NewAuthMiddleware(authService), Handlers{
		Auth:   NewAuthHandler(authService, auditService),
		QR:     NewQRHandler(qrService, auditService),
		Upload: NewUploadHandler(uploadService, galleryService, accessService, auditService),
		Public: NewPublicHandler(galleryService),
		Users:  NewUsersHandler(db, qrService, auditService),
		Audit:  NewAuditHandler(auditService),
	}, nil)

	return &testEnv{app: app, db: db, store: store, tempDir: tempDir}
}

var errStoreRead = errors.New("store read failed")

// flakyStore serves objects from the in-memory store. Once failReads is set,
// every reader opened after the first fails on Read.
type flakyStore struct {
	*storage.MemoryStore
	failReads atomic.Bool
	opened    atomic.Int32
}

func (s *flakyStore) Open(ctx context.Context, objectName string) (io.ReadCloser, error) {
	rc, err := s.MemoryStore.Open(ctx, objectName)
	if err != nil || !s.failReads.Load() || s.opened.Add(1) == 1 {
		return rc, err
	}
	return failingReader{rc}, nil
}

type failingReader struct {
	io.Closer
}

func (failingReader) Read([]byte) (int, error) {
	return 0, errStoreRead
}

type testUserOptions struct {
	admin    bool
	noCaps   bool
	inactive bool
}

func createTestUser(t *testing.T, db *gorm.DB, username, password string, opts testUserOptions) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Username:         username,
		Email:            username + "@example.com",
		PasswordHash:     hash,
		CompanyName:      "Test Co",
		FolderRef:        fmt.Sprintf("Test_Co_%d", time.Now().UnixNano()),
		IsAdmin:          opts.admin,
		CanCreateQR:      !opts.noCaps,
		CanUploadFiles:   !opts.noCaps,
		CanAccessGallery: !opts.noCaps,
		IsActive:         !opts.inactive,
		PaymentStatus:    models.PaymentStatusPending,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

type uploadFile struct {
	name    string
	content []byte
}

// performUpload posts a multipart form with the given fields and files under
// fileField.
func performUpload(t *testing.T, app *fiber.App, path, fileField string, fields map[string]string, files []uploadFile, headers map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed writing field %s: %v", key, err)
		}
	}
	for _, file := range files {
		part, err := writer.CreateFormFile(fileField, file.name)
		if err != nil {
			t.Fatalf("failed creating form file: %v", err)
		}
		if _, err := part.Write(file.content); err != nil {
			t.Fatalf("failed writing form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed closing multipart writer: %v", err)
	}

	requestHeaders := map[string]string{"Content-Type": writer.FormDataContentType()}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	return performRequest(t, app, http.MethodPost, path, &buf, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}
	return raw
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeCode(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["code"].(string); got != expected {
		t.Fatalf("expected code %q, got %q (body=%+v)", expected, got, body)
	}
}

func assertSuccess(t *testing.T, body map[string]any) {
	t.Helper()
	if success, _ := body["success"].(bool); !success {
		t.Fatalf("expected success=true, got %+v", body)
	}
}

// pngBytes is a stand-in payload; uploads are classified by name and declared
// type, not by content.
var pngBytes = []byte("\x89PNG\r\n\x1a\nfake-image-data")
