package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/metaa35/qrwedding-sub000/internal/models"
	"github.com/metaa35/qrwedding-sub000/internal/services"
	"github.com/metaa35/qrwedding-sub000/pkg/apperr"
	"github.com/metaa35/qrwedding-sub000/pkg/logger"
	"github.com/metaa35/qrwedding-sub000/pkg/utils"
)

const currentUserKey = "currentUser"

type AuthMiddleware struct {
	Auth *services.AuthService
}

func NewAuthMiddleware(auth *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{Auth: auth}
}

func CORS(origins []string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:  strings.Join(origins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		ExposeHeaders: "Content-Disposition",
	})
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	if tokenString == authHeader || tokenString == "" {
		return "", false
	}
	return tokenString, true
}

// RequireAuth resolves the bearer token to a fresh user row on every request,
// so flag and status changes apply immediately.
func (a *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	if c.Get("Authorization") == "" {
		logger.Warn("jwt_missing_header", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Fail(c, apperr.Auth(apperr.CodeNoToken, "Yetkilendirme token'ı gerekli"))
	}

	tokenString, ok := bearerToken(c)
	if !ok {
		logger.Warn("jwt_invalid_format", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Fail(c, apperr.Auth(apperr.CodeInvalidToken, "Geçersiz yetkilendirme biçimi"))
	}

	user, err := a.Auth.VerifyToken(c.UserContext(), tokenString)
	if err != nil {
		logger.Warn("jwt_validation_failed", map[string]interface{}{
			"ip":    c.IP(),
			"path":  c.Path(),
			"error": err.Error(),
		})
		return utils.Fail(c, err)
	}

	setCurrentUser(c, user)
	return c.Next()
}

// OptionalAuth attaches the user when a valid token is present and otherwise
// lets the request through anonymously.
func (a *AuthMiddleware) OptionalAuth(c *fiber.Ctx) error {
	tokenString, ok := bearerToken(c)
	if !ok {
		return c.Next()
	}

	user, err := a.Auth.VerifyToken(c.UserContext(), tokenString)
	if err != nil {
		return c.Next()
	}

	setCurrentUser(c, user)
	return c.Next()
}

func setCurrentUser(c *fiber.Ctx, user *models.User) {
	c.Locals(currentUserKey, user)
	c.Locals("userID", user.ID.String())
}

func AdminOnly(c *fiber.Ctx) error {
	user := GetCurrentUser(c)
	if user == nil {
		return utils.Fail(c, apperr.Auth(apperr.CodeNoToken, "Yetkilendirme token'ı gerekli"))
	}
	if !user.IsAdmin {
		return utils.Fail(c, apperr.Authorization(apperr.CodeAdminRequired, "Bu işlem için yönetici yetkisi gerekli"))
	}
	return c.Next()
}

// RequireCapability guards a route with one of the permission predicates.
func RequireCapability(capability services.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetCurrentUser(c)
		if user == nil {
			return utils.Fail(c, apperr.Auth(apperr.CodeNoToken, "Yetkilendirme token'ı gerekli"))
		}
		if err := services.Require(user, capability); err != nil {
			return utils.Fail(c, err)
		}
		return c.Next()
	}
}

func GetCurrentUser(c *fiber.Ctx) *models.User {
	value := c.Locals(currentUserKey)
	if value == nil {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
