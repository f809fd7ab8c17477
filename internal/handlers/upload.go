package handlers

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/metaa35/qrwedding-sub000/internal/middleware"
	"github.com/metaa35/qrwedding-sub000/internal/models"
	"github.com/metaa35/qrwedding-sub000/internal/services"
	"github.com/metaa35/qrwedding-sub000/pkg/apperr"
	"github.com/metaa35/qrwedding-sub000/pkg/logger"
	"github.com/metaa35/qrwedding-sub000/pkg/utils"
)

const (
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	zipStreamBufferSize = 64 * 1024
)

type UploadHandler struct {
	Uploads *services.UploadService
	Gallery *services.GalleryService
	Access  *services.AccessService
	Audit   *services.AuditService
}

func NewUploadHandler(uploads *services.UploadService, gallery *services.GalleryService, access *services.AccessService, audit *services.AuditService) *UploadHandler {
	return &UploadHandler{Uploads: uploads, Gallery: gallery, Access: access, Audit: audit}
}

// Single stores the multipart field "file". Guests upload anonymously with a
// qrId; signed-in users may upload to their own event without one.
func (h *UploadHandler) Single(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return utils.Fail(c, apperr.Validation("Yüklenecek dosya seçilmedi"))
	}

	meta := uploadMeta(c)
	ref, err := h.Uploads.Upload(c.UserContext(), middleware.GetCurrentUser(c), fileInput(fh), meta)
	if err != nil {
		return utils.Fail(c, err)
	}

	h.Audit.LogAsync(auditEntry(c, "asset_uploaded", models.ResourceAsset, ref.ID, map[string]interface{}{
		"event_name": meta.EventName,
		"qr_id":      meta.QRID,
		"size":       ref.Size,
	}))

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"message": "Dosya başarıyla yüklendi",
		"file":    ref,
	})
}

// Multiple stores the multipart field "files" and reports per-file failures.
func (h *UploadHandler) Multiple(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return utils.Fail(c, apperr.Validation("Yüklenecek dosya seçilmedi"))
	}

	headers := form.File["files"]
	files := make([]services.FileInput, 0, len(headers))
	for _, fh := range headers {
		files = append(files, fileInput(fh))
	}

	meta := uploadMeta(c)
	result, err := h.Uploads.UploadBatch(c.UserContext(), middleware.GetCurrentUser(c), files, meta)
	if err != nil {
		return utils.Fail(c, err)
	}

	h.Audit.LogAsync(auditEntry(c, "assets_uploaded", models.ResourceEvent, meta.QRID, map[string]interface{}{
		"event_name": meta.EventName,
		"uploaded":   len(result.Uploaded),
		"failed":     len(result.Failed),
	}))

	if len(result.Uploaded) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Hiçbir dosya yüklenemedi",
			"files":   result.Uploaded,
			"failed":  result.Failed,
		})
	}

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"message": fmt.Sprintf("%d dosya başarıyla yüklendi", len(result.Uploaded)),
		"files":   result.Uploaded,
		"failed":  result.Failed,
	})
}

func (h *UploadHandler) resolveTarget(c *fiber.Ctx) (services.EventTarget, error) {
	q := parseEventQuery(c)
	return h.Access.ResolveGalleryTarget(c.UserContext(), middleware.GetCurrentUser(c), q.EventName, q.QRID)
}

func (h *UploadHandler) Files(c *fiber.Ctx) error {
	target, err := h.resolveTarget(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	views, err := h.Gallery.ListByEvent(c.UserContext(), target)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"files": views,
		"count": len(views),
	})
}

func (h *UploadHandler) DeleteFile(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("fileId"))
	if err != nil {
		return utils.Fail(c, apperr.Validation("Geçersiz dosya kimliği"))
	}

	if err := h.Gallery.DeleteAsset(c.UserContext(), middleware.GetCurrentUser(c), id); err != nil {
		return utils.Fail(c, err)
	}

	h.Audit.LogAsync(auditEntry(c, "asset_deleted", models.ResourceAsset, id.String(), nil))
	return utils.Message(c, fiber.StatusOK, "Dosya silindi")
}

// DownloadAll streams the event as a ZIP. Every object is opened before the
// first byte goes out, so open failures still get a JSON error. A failure
// mid-stream fails the body read and the connection closes without the final
// chunk.
func (h *UploadHandler) DownloadAll(c *fiber.Ctx) error {
	target, err := h.resolveTarget(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	archive, err := h.Gallery.PrepareZip(c.UserContext(), target)
	if err != nil {
		return utils.Fail(c, err)
	}
	if archive.Len() == 0 {
		archive.Close()
		return utils.Fail(c, apperr.NotFound(apperr.CodeNotFound, "İndirilecek dosya bulunamadı"))
	}

	h.Audit.LogAsync(auditEntry(c, "event_downloaded", models.ResourceEvent, target.FolderKey(), map[string]interface{}{
		"files": archive.Len(),
	}))

	userID := logger.GetUserIDFromContext(c)
	pr, pw := io.Pipe()
	go func() {
		bw := bufio.NewWriterSize(pw, zipStreamBufferSize)
		err := archive.WriteTo(bw)
		if err == nil {
			err = bw.Flush()
		}
		if err != nil {
			details := map[string]interface{}{"folder": target.FolderKey()}
			if userID != nil {
				logger.ErrorWithUser(*userID, "zip_download_failed", err, details)
			} else {
				logger.Error("zip_download_failed", err, details)
			}
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.Close()
	}()

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", archive.Name))
	c.Context().SetBodyStream(pr, -1)
	return nil
}

// ShareAll makes every asset of the event viewable through its plain link.
func (h *UploadHandler) ShareAll(c *fiber.Ctx) error {
	target, err := h.resolveTarget(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	count, err := h.Gallery.ShareAll(c.UserContext(), target)
	if err != nil {
		return utils.Fail(c, err)
	}

	h.Audit.LogAsync(auditEntry(c, "event_shared", models.ResourceEvent, target.FolderKey(), map[string]interface{}{
		"count": count,
	}))
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": fmt.Sprintf("%d dosya paylaşıma açıldı", count),
		"count":   count,
	})
}

func (h *UploadHandler) Guestbook(c *fiber.Ctx) error {
	target, err := h.resolveTarget(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	var buf bytes.Buffer
	if err := h.Gallery.WriteGuestbook(c.UserContext(), &buf, target); err != nil {
		return utils.Fail(c, err)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "ani-defteri.xlsx"))
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}
