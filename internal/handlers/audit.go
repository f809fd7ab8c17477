package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/metaa35/qrwedding-sub000/internal/services"
	"github.com/metaa35/qrwedding-sub000/pkg/apperr"
	"github.com/metaa35/qrwedding-sub000/pkg/utils"
)

type AuditHandler struct {
	Audit *services.AuditService
}

func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{Audit: audit}
}

func (h *AuditHandler) List(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)
	filter := services.AuditFilter{
		Action: strings.TrimSpace(c.Query("action")),
		Offset: p.Offset,
		Limit:  p.Limit,
	}
	if raw := c.Query("userId"); raw != "" {
		userID, err := parseUUID(raw)
		if err != nil {
			return utils.Fail(c, apperr.Validation("Geçersiz kullanıcı kimliği"))
		}
		filter.UserID = &userID
	}

	logs, total, err := h.Audit.List(c.UserContext(), filter)
	if err != nil {
		return utils.Fail(c, apperr.Upstream("Denetim kayıtları listelenemedi", err))
	}
	return utils.Paginated(c, "logs", logs, p.Page, p.Limit, total)
}
