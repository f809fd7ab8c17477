package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/metaa35/qrwedding-sub000/internal/middleware"
	"github.com/metaa35/qrwedding-sub000/internal/services"
)

type Handlers struct {
	Auth   *AuthHandler
	QR     *QRHandler
	Upload *UploadHandler
	Public *PublicHandler
	Users  *UsersHandler
	Audit  *AuditHandler
}

// RegisterRoutes mounts the API. authLimiter, when set, guards the
// credential endpoints in addition to any global limiter.
func RegisterRoutes(app *fiber.App, auth *middleware.AuthMiddleware, h Handlers, authLimiter fiber.Handler) {
	if authLimiter == nil {
		authLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authLimiter, h.Auth.Register)
	authRoutes.Post("/login", authLimiter, h.Auth.Login)
	authRoutes.Get("/me", auth.RequireAuth, h.Auth.Me)
	authRoutes.Put("/change-password", authLimiter, auth.RequireAuth, h.Auth.ChangePassword)
	authRoutes.Post("/update-payment", auth.RequireAuth, h.Auth.UpdatePayment)

	qrRoutes := api.Group("/qr")
	qrRoutes.Post("/generate", auth.RequireAuth, middleware.RequireCapability(services.CapabilityCreateQR), h.QR.Generate)
	qrRoutes.Get("/user-qr", auth.RequireAuth, h.QR.UserQR)
	qrRoutes.Get("/validate/:qrId", h.QR.Validate)
	qrRoutes.Get("/verify/:qrId", h.QR.Verify)
	qrRoutes.Get("/info/:qrId", auth.RequireAuth, h.QR.Info)
	qrRoutes.Get("/list", auth.RequireAuth, h.QR.List)
	qrRoutes.Put("/:id", auth.RequireAuth, h.QR.Update)
	qrRoutes.Delete("/:id", auth.RequireAuth, middleware.AdminOnly, h.QR.Delete)

	uploadRoutes := api.Group("/upload")
	uploadRoutes.Post("/single", auth.OptionalAuth, h.Upload.Single)
	uploadRoutes.Post("/multiple", auth.OptionalAuth, h.Upload.Multiple)
	uploadRoutes.Get("/files", auth.RequireAuth, h.Upload.Files)
	uploadRoutes.Delete("/files/:fileId", auth.RequireAuth, h.Upload.DeleteFile)
	uploadRoutes.Get("/download-all", auth.RequireAuth, h.Upload.DownloadAll)
	uploadRoutes.Post("/share-all", auth.RequireAuth, middleware.AdminOnly, h.Upload.ShareAll)
	uploadRoutes.Get("/guestbook", auth.RequireAuth, h.Upload.Guestbook)

	api.Get("/public/assets/:id", h.Public.Asset)

	adminRoutes := api.Group("/admin", auth.RequireAuth, middleware.AdminOnly)
	adminRoutes.Get("/users", h.Users.List)
	adminRoutes.Get("/users/:id", h.Users.Get)
	adminRoutes.Put("/users/:id", h.Users.Update)
	adminRoutes.Delete("/users/:id", h.Users.Delete)
	adminRoutes.Post("/users/:id/reset-qr", h.Users.ResetQR)
	adminRoutes.Get("/audit-logs", h.Audit.List)
}
