package utils

import (
	"github.com/gofiber/fiber/v2"

	"github.com/metaa35/qrwedding-sub000/pkg/apperr"
	"github.com/metaa35/qrwedding-sub000/pkg/logger"
)

var exposeInternalErrors = false

// ConfigureErrors controls whether upstream failures carry their cause in the
// response message. Only development should enable it.
func ConfigureErrors(exposeInternal bool) {
	exposeInternalErrors = exposeInternal
}

// Success writes {success: true, ...payload}.
func Success(c *fiber.Ctx, status int, payload fiber.Map) error {
	body := fiber.Map{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

func Message(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"message": message,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func ErrorWithCode(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
		"code":    code,
	})
}

// Fail translates err into the error envelope. Errors outside the apperr
// taxonomy are treated as upstream failures.
func Fail(c *fiber.Ctx, err error) error {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Upstream("Sunucu hatası", err)
	}

	message := appErr.Message
	if appErr.Kind == apperr.KindUpstream {
		logger.Error("upstream_failure", err, map[string]interface{}{
			"path":   c.Path(),
			"method": c.Method(),
		})
		if exposeInternalErrors && appErr.Err != nil {
			message = message + ": " + appErr.Err.Error()
		}
	}

	return ErrorWithCode(c, appErr.Kind.Status(), appErr.Code, message)
}

func Paginated(c *fiber.Ctx, key string, data interface{}, page, limit int, total int64) error {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		key:       data,
		"pagination": fiber.Map{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": totalPages,
		},
	})
}
