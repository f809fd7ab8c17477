package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/metaa35/qrwedding-sub000/internal/middleware"
	"github.com/metaa35/qrwedding-sub000/internal/models"
	"github.com/metaa35/qrwedding-sub000/internal/services"
	"github.com/metaa35/qrwedding-sub000/pkg/apperr"
	"github.com/metaa35/qrwedding-sub000/pkg/logger"
	"github.com/metaa35/qrwedding-sub000/pkg/utils"
)

type AuthHandler struct {
	Auth  *services.AuthService
	Audit *services.AuditService
}

func NewAuthHandler(auth *services.AuthService, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{Auth: auth, Audit: audit}
}

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"companyName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type updatePaymentRequest struct {
	Status string `json:"status"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, invalidBody())
	}

	user, token, err := h.Auth.Register(c.UserContext(), services.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		logger.Warn("register_failed", map[string]interface{}{
			"email": req.Email,
			"ip":    c.IP(),
			"error": err.Error(),
		})
		return utils.Fail(c, err)
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &user.ID,
		Action:       "user_registered",
		ResourceType: models.ResourceUser,
		ResourceID:   user.ID.String(),
		Details:      map[string]interface{}{"username": user.Username},
		IPAddress:    c.IP(),
		RequestID:    middleware.RequestID(c),
	})

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"message": "Kayıt başarılı",
		"token":   token,
		"user":    user,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, invalidBody())
	}

	user, token, err := h.Auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		logger.Warn("login_failed", map[string]interface{}{
			"email": req.Email,
			"ip":    c.IP(),
		})
		return utils.Fail(c, err)
	}

	logger.InfoWithUser(user.ID.String(), "login_success", map[string]interface{}{"ip": c.IP()})
	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &user.ID,
		Action:       "user_login",
		ResourceType: models.ResourceUser,
		ResourceID:   user.ID.String(),
		IPAddress:    c.IP(),
		RequestID:    middleware.RequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "Giriş başarılı",
		"token":   token,
		"user":    user,
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Fail(c, apperr.Auth(apperr.CodeNoToken, "Yetkilendirme token'ı gerekli"))
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"user": user})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Fail(c, apperr.Auth(apperr.CodeNoToken, "Yetkilendirme token'ı gerekli"))
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, invalidBody())
	}

	if err := h.Auth.ChangePassword(c.UserContext(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return utils.Fail(c, err)
	}

	h.Audit.LogAsync(auditEntry(c, "password_changed", models.ResourceUser, user.ID.String(), nil))
	return utils.Message(c, fiber.StatusOK, "Şifre güncellendi")
}

func (h *AuthHandler) UpdatePayment(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Fail(c, apperr.Auth(apperr.CodeNoToken, "Yetkilendirme token'ı gerekli"))
	}

	var req updatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, invalidBody())
	}

	updated, err := h.Auth.UpdatePayment(c.UserContext(), user.ID, req.Status)
	if err != nil {
		return utils.Fail(c, err)
	}

	h.Audit.LogAsync(auditEntry(c, "payment_updated", models.ResourceUser, user.ID.String(), map[string]interface{}{
		"status": updated.PaymentStatus,
	}))
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "Ödeme durumu güncellendi",
		"user":    updated,
	})
}
