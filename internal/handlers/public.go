package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/metaa35/qrwedding-sub000/internal/services"
	"github.com/metaa35/qrwedding-sub000/pkg/apperr"
	"github.com/metaa35/qrwedding-sub000/pkg/utils"
)

type PublicHandler struct {
	Gallery *services.GalleryService
}

func NewPublicHandler(gallery *services.GalleryService) *PublicHandler {
	return &PublicHandler{Gallery: gallery}
}

// Asset streams an asset inline for gallery view links.
func (h *PublicHandler) Asset(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Fail(c, apperr.NotFound(apperr.CodeNotFound, "Dosya bulunamadı"))
	}

	node, rc, err := h.Gallery.OpenPublicAsset(c.UserContext(), id, c.Query("token"))
	if err != nil {
		return utils.Fail(c, err)
	}

	c.Set(fiber.HeaderContentType, node.MimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", node.Name))
	c.Set(fiber.HeaderCacheControl, "private, max-age=300")
	return c.Status(fiber.StatusOK).SendStream(rc, int(node.Size))
}
