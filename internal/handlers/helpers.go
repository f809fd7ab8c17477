package handlers

import (
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/metaa35/qrwedding-sub000/internal/middleware"
	"github.com/metaa35/qrwedding-sub000/internal/services"
	"github.com/metaa35/qrwedding-sub000/pkg/apperr"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

func invalidBody() error {
	return apperr.Validation("Geçersiz istek gövdesi")
}

// parseEventDate accepts RFC 3339 timestamps and plain dates.
func parseEventDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, apperr.Validation("Geçersiz etkinlik tarihi")
	}
	return &t, nil
}

func currentUserID(c *fiber.Ctx) *uuid.UUID {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return nil
	}
	id := user.ID
	return &id
}

func auditEntry(c *fiber.Ctx, action, resourceType, resourceID string, details map[string]interface{}) services.AuditEntry {
	return services.AuditEntry{
		UserID:       currentUserID(c),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		IPAddress:    c.IP(),
		RequestID:    middleware.RequestID(c),
	}
}

func fileInput(fh *multipart.FileHeader) services.FileInput {
	return services.FileInput{
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// uploadMeta reads the event fields sent next to the files. The binding id is
// accepted as qrId or qr.
func uploadMeta(c *fiber.Ctx) services.UploadMeta {
	qrID := c.FormValue("qrId")
	if qrID == "" {
		qrID = c.FormValue("qr")
	}
	return services.UploadMeta{
		QRID:         strings.TrimSpace(qrID),
		EventName:    c.FormValue("eventName"),
		UploaderName: c.FormValue("uploaderName"),
		Message:      c.FormValue("message"),
	}
}

// eventQuery reads the event selector of gallery routes from the query string
// or, for POST routes, a JSON body.
type eventQuery struct {
	EventName string `json:"eventName" query:"eventName"`
	QRID      string `json:"qr" query:"qr"`
}

func parseEventQuery(c *fiber.Ctx) eventQuery {
	q := eventQuery{
		EventName: strings.TrimSpace(c.Query("eventName")),
		QRID:      strings.TrimSpace(c.Query("qr")),
	}
	if q.QRID == "" {
		q.QRID = strings.TrimSpace(c.Query("qrId"))
	}
	if q.EventName == "" && q.QRID == "" && len(c.Body()) > 0 {
		var body struct {
			EventName string `json:"eventName"`
			QR        string `json:"qr"`
			QRID      string `json:"qrId"`
		}
		if err := c.BodyParser(&body); err == nil {
			q.EventName = strings.TrimSpace(body.EventName)
			q.QRID = strings.TrimSpace(body.QR)
			if q.QRID == "" {
				q.QRID = strings.TrimSpace(body.QRID)
			}
		}
	}
	return q
}
