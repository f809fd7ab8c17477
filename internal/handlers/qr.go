package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/metaa35/qrwedding-sub000/internal/middleware"
	"github.com/metaa35/qrwedding-sub000/internal/models"
	"github.com/metaa35/qrwedding-sub000/internal/services"
	"github.com/metaa35/qrwedding-sub000/pkg/apperr"
	"github.com/metaa35/qrwedding-sub000/pkg/utils"
)

type QRHandler struct {
	QR    *services.QRService
	Audit *services.AuditService
}

func NewQRHandler(qr *services.QRService, audit *services.AuditService) *QRHandler {
	return &QRHandler{QR: qr, Audit: audit}
}

type generateQRRequest struct {
	EventName     string  `json:"eventName"`
	EventDate     string  `json:"eventDate"`
	CustomMessage *string `json:"customMessage"`
}

type updateQRRequest struct {
	EventDate     *string `json:"eventDate"`
	CustomMessage *string `json:"customMessage"`
	IsActive      *bool   `json:"isActive"`
}

// eventData is the public view of a binding shown on the guest upload page.
func eventData(binding *models.QRCode) fiber.Map {
	return fiber.Map{
		"qrId":          binding.QRID,
		"eventName":     binding.EventName,
		"eventDate":     binding.EventDate,
		"customMessage": binding.CustomMessage,
		"isActive":      binding.IsActive,
	}
}

func (h *QRHandler) Generate(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	var req generateQRRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, invalidBody())
	}
	eventDate, err := parseEventDate(req.EventDate)
	if err != nil {
		return utils.Fail(c, err)
	}

	binding, err := h.QR.Generate(c.UserContext(), user, services.GenerateInput{
		EventName:     req.EventName,
		EventDate:     eventDate,
		CustomMessage: req.CustomMessage,
	})
	if err != nil {
		return utils.Fail(c, err)
	}

	h.Audit.LogAsync(auditEntry(c, "qr_generated", models.ResourceQRCode, binding.QRID, map[string]interface{}{
		"event_name": binding.EventName,
	}))

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"message": "QR kod oluşturuldu",
		"qrCode":  binding,
	})
}

func (h *QRHandler) UserQR(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	binding, err := h.QR.ActiveForOwner(c.UserContext(), user.ID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"hasQR":  binding != nil,
		"qrCode": binding,
	})
}

func (h *QRHandler) Validate(c *fiber.Ctx) error {
	binding, err := h.QR.Validate(c.UserContext(), c.Params("qrId"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"eventData": eventData(binding)})
}

func (h *QRHandler) Verify(c *fiber.Ctx) error {
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"valid": h.QR.Verify(c.UserContext(), c.Params("qrId")),
	})
}

func (h *QRHandler) Info(c *fiber.Ctx) error {
	binding, err := h.QR.Info(c.UserContext(), middleware.GetCurrentUser(c), c.Params("qrId"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"qrCode": binding})
}

func (h *QRHandler) List(c *fiber.Ctx) error {
	bindings, err := h.QR.List(c.UserContext(), middleware.GetCurrentUser(c))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"qrCodes": bindings,
		"count":   len(bindings),
	})
}

func (h *QRHandler) Update(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Fail(c, apperr.Validation("Geçersiz QR kod kimliği"))
	}

	var req updateQRRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, invalidBody())
	}

	in := services.UpdateQRInput{CustomMessage: req.CustomMessage, IsActive: req.IsActive}
	if req.EventDate != nil {
		eventDate, err := parseEventDate(*req.EventDate)
		if err != nil {
			return utils.Fail(c, err)
		}
		in.EventDate = eventDate
	}

	binding, err := h.QR.Update(c.UserContext(), middleware.GetCurrentUser(c), id, in)
	if err != nil {
		return utils.Fail(c, err)
	}

	h.Audit.LogAsync(auditEntry(c, "qr_updated", models.ResourceQRCode, binding.QRID, nil))
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "QR kod güncellendi",
		"qrCode":  binding,
	})
}

func (h *QRHandler) Delete(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Fail(c, apperr.Validation("Geçersiz QR kod kimliği"))
	}

	if err := h.QR.Delete(c.UserContext(), middleware.GetCurrentUser(c), id); err != nil {
		return utils.Fail(c, err)
	}

	h.Audit.LogAsync(auditEntry(c, "qr_deleted", models.ResourceQRCode, id.String(), nil))
	return utils.Message(c, fiber.StatusOK, "QR kod devre dışı bırakıldı")
}
