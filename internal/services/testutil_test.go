package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/metaa35/qrwedding-sub000/internal/models"
	"github.com/metaa35/qrwedding-sub000/internal/storage"
	"github.com/metaa35/qrwedding-sub000/pkg/utils"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

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

	if err := db.AutoMigrate(
		&models.User{},
		&models.QRCode{},
		&models.DriveNode{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}
	return db
}

type userOption func(*models.User)

func asAdmin(u *models.User) { u.IsAdmin = true }

func withoutCapabilities(u *models.User) {
	u.CanCreateQR = false
	u.CanUploadFiles = false
	u.CanAccessGallery = false
}

func inactive(u *models.User) { u.IsActive = false }

func createUser(t *testing.T, db *gorm.DB, username string, opts ...userOption) *models.User {
	t.Helper()

	hash, err := utils.HashPassword("secret123")
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}
	user := &models.User{
		Username:         username,
		Email:            username + "@example.com",
		PasswordHash:     hash,
		CompanyName:      "Test Co",
		FolderRef:        fmt.Sprintf("Test_Co_%d", time.Now().UnixNano()),
		CanCreateQR:      true,
		CanUploadFiles:   true,
		CanAccessGallery: true,
		IsActive:         true,
		PaymentStatus:    models.PaymentStatusPending,
	}
	for _, opt := range opts {
		opt(user)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating user: %v", err)
	}
	return user
}

func newTestRenderer(t *testing.T) *QRRenderer {
	t.Helper()
	renderer, err := NewQRRenderer(300, 2, "#000000", "#FFFFFF")
	if err != nil {
		t.Fatalf("failed creating renderer: %v", err)
	}
	return renderer
}

// fixedClock returns a clock frozen at t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// stringFile builds an upload whose body is content.
func stringFile(name, content string) FileInput {
	return FileInput{
		Filename: name,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

var errInjected = errors.New("injected store failure")

// faultyStore wraps a MemoryStore and fails selected operations.
type faultyStore struct {
	*storage.MemoryStore
	failUpload bool
	failOpen   bool
	// failReadAfter makes every opened object error after that many bytes.
	failReadAfter int
}

func newFaultyStore() *faultyStore {
	return &faultyStore{MemoryStore: storage.NewMemoryStore(), failReadAfter: -1}
}

func (s *faultyStore) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	if s.failUpload {
		return errInjected
	}
	return s.MemoryStore.Upload(ctx, objectName, reader, size, contentType)
}

func (s *faultyStore) Open(ctx context.Context, objectName string) (io.ReadCloser, error) {
	if s.failOpen {
		return nil, errInjected
	}
	rc, err := s.MemoryStore.Open(ctx, objectName)
	if err != nil || s.failReadAfter < 0 {
		return rc, err
	}
	return &brokenReader{rc: rc, remaining: s.failReadAfter}, nil
}

type brokenReader struct {
	rc        io.ReadCloser
	remaining int
}

func (r *brokenReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, errInjected
	}
	if len(p) > r.remaining {
		p = p[:r.remaining]
	}
	n, err := r.rc.Read(p)
	r.remaining -= n
	if err == io.EOF {
		return n, errInjected
	}
	return n, err
}

func (r *brokenReader) Close() error {
	return r.rc.Close()
}

// galleryFixture wires the storage-facing services over store.
type galleryFixture struct {
	db      *gorm.DB
	qr      *QRService
	drive   *DriveService
	uploads *UploadService
	gallery *GalleryService
	access  *AccessService
	tempDir string
}

func newGalleryFixture(t *testing.T, store storage.ObjectStore) *galleryFixture {
	t.Helper()

	db := setupServiceDB(t)
	tempDir := t.TempDir()
	access := NewAccessService(db)
	qr := NewQRService(db, newTestRenderer(t), "http://localhost:3000", 10)
	drive := NewDriveService(db, store, "Etkinlik Yüklemeleri")
	links := NewLinkBuilder("http://localhost:8080")
	return &galleryFixture{
		db:      db,
		qr:      qr,
		drive:   drive,
		uploads: NewUploadService(db, qr, drive, links, tempDir, 1024, 3),
		gallery: NewGalleryService(access, drive, links),
		access:  access,
		tempDir: tempDir,
	}
}
