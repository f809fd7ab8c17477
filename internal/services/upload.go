package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/metaa35/qrwedding-sub000/internal/metrics"
	"github.com/metaa35/qrwedding-sub000/internal/models"
	"github.com/metaa35/qrwedding-sub000/pkg/apperr"
	"github.com/metaa35/qrwedding-sub000/pkg/logger"
)

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
}

var allowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/pjpeg":     true,
	"image/png":       true,
	"image/gif":       true,
	"video/mp4":       true,
	"video/x-msvideo": true,
	"video/avi":       true,
	"video/msvideo":   true,
	"video/quicktime": true,
	"video/x-ms-wmv":  true,
	"video/x-flv":     true,
	"video/webm":      true,
}

// FileInput is one uploaded file. Open is called at most once, after the file
// has passed validation.
type FileInput struct {
	Filename    string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

type UploadMeta struct {
	QRID         string
	EventName    string
	UploaderName string
	Message      string
}

type AssetRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ViewLink string `json:"viewLink"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

type FailedUpload struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type BatchResult struct {
	Uploaded []AssetRef     `json:"files"`
	Failed   []FailedUpload `json:"failed"`
}

type UploadService struct {
	DB          *gorm.DB
	QR          *QRService
	Drive       *DriveService
	Links       *LinkBuilder
	TempDir     string
	MaxFileSize int64
	MaxFiles    int
	now         func() time.Time
}

func NewUploadService(db *gorm.DB, qr *QRService, drive *DriveService, links *LinkBuilder, tempDir string, maxFileSize int64, maxFiles int) *UploadService {
	return &UploadService{
		DB:          db,
		QR:          qr,
		Drive:       drive,
		Links:       links,
		TempDir:     tempDir,
		MaxFileSize: maxFileSize,
		MaxFiles:    maxFiles,
		now:         time.Now,
	}
}

// uploadTarget is the resolved destination of an upload request.
type uploadTarget struct {
	EventTarget
	meta UploadMeta
}

// resolveTarget checks the request-level preconditions. With a qrId the
// binding must be active and its owner must hold the upload capability; the
// guest needs no account. Without one the caller must be allowed to upload.
func (s *UploadService) resolveTarget(ctx context.Context, actor *models.User, meta UploadMeta) (uploadTarget, error) {
	meta.EventName = strings.TrimSpace(meta.EventName)
	meta.QRID = strings.TrimSpace(meta.QRID)
	if meta.EventName == "" {
		return uploadTarget{}, apperr.Validation("Etkinlik adı gerekli")
	}

	if meta.QRID == "" {
		if actor == nil {
			return uploadTarget{}, apperr.Auth(apperr.CodeNoToken, "QR kod olmadan yükleme için giriş yapmalısınız")
		}
		if err := Require(actor, CapabilityUpload); err != nil {
			return uploadTarget{}, err
		}
		return uploadTarget{EventTarget: EventTarget{EventName: meta.EventName}, meta: meta}, nil
	}

	binding, err := s.QR.Validate(ctx, meta.QRID)
	if err != nil {
		return uploadTarget{}, err
	}

	var owner models.User
	if err := s.DB.WithContext(ctx).First(&owner, "id = ?", binding.OwnerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uploadTarget{}, apperr.NotFound(apperr.CodeQRNotFound, "QR kod sahibi bulunamadı")
		}
		return uploadTarget{}, apperr.Upstream("QR kod sahibi sorgulanamadı", err)
	}
	if !owner.IsActive {
		return uploadTarget{}, apperr.NotFound(apperr.CodeQRNotFound, "Geçersiz veya süresi dolmuş QR kod")
	}
	if err := Require(&owner, CapabilityUpload); err != nil {
		return uploadTarget{}, err
	}

	meta.EventName = binding.EventName
	return uploadTarget{EventTarget: EventTarget{EventName: binding.EventName, QRID: binding.QRID}, meta: meta}, nil
}

// validateFile checks the allow-list and the size cap and returns the MIME
// type to store.
func (s *UploadService) validateFile(file FileInput) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	canonical, ok := allowedExtensions[ext]
	if !ok {
		return "", apperr.UnsupportedMedia("Sadece resim ve video dosyaları yüklenebilir")
	}

	mimeType := strings.ToLower(strings.TrimSpace(file.ContentType))
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = parsed
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = canonical
	}
	if !allowedMimeTypes[mimeType] {
		return "", apperr.UnsupportedMedia("Sadece resim ve video dosyaları yüklenebilir")
	}

	if file.Size > s.MaxFileSize {
		return "", apperr.PayloadTooLarge(fmt.Sprintf("Dosya boyutu en fazla %d MB olabilir", s.MaxFileSize/(1024*1024)))
	}
	return mimeType, nil
}

// Upload stores one file for an event.
func (s *UploadService) Upload(ctx context.Context, actor *models.User, file FileInput, meta UploadMeta) (*AssetRef, error) {
	if strings.TrimSpace(meta.EventName) == "" {
		return nil, apperr.Validation("Etkinlik adı gerekli")
	}
	if _, err := s.validateFile(file); err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	target, err := s.resolveTarget(ctx, actor, meta)
	if err != nil {
		return nil, err
	}
	return s.store(ctx, target, file)
}

// UploadBatch applies Upload to each file and keeps going past per-file
// failures, which are returned in Failed.
func (s *UploadService) UploadBatch(ctx context.Context, actor *models.User, files []FileInput, meta UploadMeta) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, apperr.Validation("Yüklenecek dosya seçilmedi")
	}
	if len(files) > s.MaxFiles {
		return nil, apperr.LimitExceeded(apperr.CodeTooManyFiles, fmt.Sprintf("En fazla %d dosya yüklenebilir", s.MaxFiles))
	}

	target, err := s.resolveTarget(ctx, actor, meta)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Uploaded: []AssetRef{}, Failed: []FailedUpload{}}
	for _, file := range files {
		ref, err := s.store(ctx, target, file)
		if err != nil {
			failed := FailedUpload{Name: file.Filename, Message: err.Error()}
			if appErr, ok := apperr.As(err); ok {
				failed.Message = appErr.Message
				failed.Code = appErr.Code
			}
			result.Failed = append(result.Failed, failed)
			continue
		}
		result.Uploaded = append(result.Uploaded, *ref)
	}

	if len(result.Failed) > 0 {
		logger.Warn("upload_batch_partial_failure", map[string]interface{}{
			"event_name": target.EventName,
			"uploaded":   len(result.Uploaded),
			"failed":     len(result.Failed),
		})
	}
	return result, nil
}

func (s *UploadService) store(ctx context.Context, target uploadTarget, file FileInput) (ref *AssetRef, err error) {
	defer func() {
		if err != nil {
			metrics.UploadsTotal.WithLabelValues(resultLabel(err)).Inc()
		}
	}()

	mimeType, err := s.validateFile(file)
	if err != nil {
		return nil, err
	}

	tempName, tempPath, size, err := s.writeTemp(target.EventName, file)
	if tempPath != "" {
		defer func() {
			if rmErr := os.Remove(tempPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				logger.Error("upload_temp_cleanup_failed", rmErr, map[string]interface{}{"path": tempPath})
			}
		}()
	}
	if err != nil {
		return nil, err
	}

	folder, created, err := s.Drive.FindOrCreateFolder(ctx, target.FolderKey())
	if err != nil {
		return nil, err
	}

	description := ComposeDescription(AssetMeta{
		UploaderName: target.meta.UploaderName,
		EventName:    target.EventName,
		Message:      target.meta.Message,
	})
	displayName := orDefault(singleLine(target.meta.UploaderName), DefaultUploaderName) + "_" + tempName

	tmp, err := os.Open(tempPath)
	if err != nil {
		return nil, apperr.Upstream("Geçici dosya okunamadı", err)
	}
	node, err := s.Drive.CreateFile(ctx, folder.ID, displayName, mimeType, description, tmp, size)
	_ = tmp.Close()
	if err != nil {
		if created {
			if rmErr := s.Drive.RemoveFolderIfEmpty(context.WithoutCancel(ctx), folder.ID); rmErr != nil {
				logger.Error("upload_folder_compensation_failed", rmErr, map[string]interface{}{"folder": folder.Name})
			}
		}
		return nil, err
	}

	metrics.UploadsTotal.WithLabelValues("success").Inc()
	metrics.UploadBytesTotal.Add(float64(size))
	logger.Info("asset_uploaded", map[string]interface{}{
		"asset_id":   node.ID.String(),
		"event_name": target.EventName,
		"qr_id":      target.QRID,
		"size":       size,
		"mime_type":  mimeType,
	})

	return &AssetRef{
		ID:       node.ID.String(),
		Name:     node.Name,
		ViewLink: s.Links.ViewLink(node),
		MimeType: node.MimeType,
		Size:     node.Size,
	}, nil
}

// writeTemp copies the upload to TempDir as <millis>_<event>_<filename> and
// returns the name, the path (set whenever a file was created) and the number
// of bytes written.
func (s *UploadService) writeTemp(eventName string, file FileInput) (string, string, int64, error) {
	millis := s.now().UnixMilli()
	var (
		name string
		path string
		dst  *os.File
		err  error
	)
	for attempt := int64(0); attempt < 5; attempt++ {
		name = fmt.Sprintf("%d_%s_%s", millis+attempt, slugify(eventName), cleanFilename(file.Filename))
		path = filepath.Join(s.TempDir, name)
		dst, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if !errors.Is(err, os.ErrExist) {
			break
		}
	}
	if err != nil {
		return "", "", 0, apperr.Upstream("Geçici dosya oluşturulamadı", err)
	}

	src, err := file.Open()
	if err != nil {
		_ = dst.Close()
		return name, path, 0, apperr.Upstream("Yüklenen dosya okunamadı", err)
	}
	defer src.Close()

	written, copyErr := io.Copy(dst, io.LimitReader(src, s.MaxFileSize+1))
	closeErr := dst.Close()
	if copyErr != nil {
		return name, path, 0, apperr.Upstream("Geçici dosya yazılamadı", copyErr)
	}
	if closeErr != nil {
		return name, path, 0, apperr.Upstream("Geçici dosya yazılamadı", closeErr)
	}
	if written > s.MaxFileSize {
		return name, path, 0, apperr.PayloadTooLarge(fmt.Sprintf("Dosya boyutu en fazla %d MB olabilir", s.MaxFileSize/(1024*1024)))
	}
	return name, path, written, nil
}

func cleanFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == '/' {
			return '_'
		}
		return r
	}, name)
	if name == "." || name == "" {
		return "dosya"
	}
	return name
}

func resultLabel(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindUnsupportedMedia, apperr.KindPayloadTooLarge, apperr.KindValidation:
		return "rejected"
	default:
		return "failed"
	}
}
