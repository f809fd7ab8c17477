package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/metaa35/qrwedding-sub000/internal/middleware"
	"github.com/metaa35/qrwedding-sub000/internal/models"
	"github.com/metaa35/qrwedding-sub000/internal/services"
	"github.com/metaa35/qrwedding-sub000/pkg/apperr"
	"github.com/metaa35/qrwedding-sub000/pkg/logger"
	"github.com/metaa35/qrwedding-sub000/pkg/utils"
)

type UsersHandler struct {
	DB    *gorm.DB
	QR    *services.QRService
	Audit *services.AuditService
}

func NewUsersHandler(db *gorm.DB, qr *services.QRService, audit *services.AuditService) *UsersHandler {
	return &UsersHandler{DB: db, QR: qr, Audit: audit}
}

func (h *UsersHandler) List(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)
	search := strings.TrimSpace(c.Query("search"))

	query := h.DB.WithContext(c.UserContext()).Model(&models.User{})
	if search != "" {
		searchValue := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(company_name) LIKE ?",
			searchValue,
			searchValue,
			searchValue,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Fail(c, apperr.Upstream("Kullanıcılar sayılamadı", err))
	}

	var users []models.User
	if err := utils.ApplyPagination(query.Order("created_at DESC"), p).Find(&users).Error; err != nil {
		return utils.Fail(c, apperr.Upstream("Kullanıcılar listelenemedi", err))
	}

	return utils.Paginated(c, "users", users, p.Page, p.Limit, total)
}

func (h *UsersHandler) load(c *fiber.Ctx) (*models.User, error) {
	userID, err := parseUUID(c.Params("id"))
	if err != nil {
		return nil, apperr.Validation("Geçersiz kullanıcı kimliği")
	}

	var user models.User
	if err := h.DB.WithContext(c.UserContext()).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.CodeNotFound, "Kullanıcı bulunamadı")
		}
		return nil, apperr.Upstream("Kullanıcı sorgulanamadı", err)
	}
	return &user, nil
}

func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.load(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	var qrCount int64
	if err := h.DB.WithContext(c.UserContext()).Model(&models.QRCode{}).
		Where("owner_id = ?", user.ID).
		Count(&qrCount).Error; err != nil {
		return utils.Fail(c, apperr.Upstream("QR kodlar sayılamadı", err))
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"user":    user,
		"qrCount": qrCount,
	})
}

type updateUserRequest struct {
	CompanyName      *string `json:"companyName"`
	IsAdmin          *bool   `json:"isAdmin"`
	CanCreateQR      *bool   `json:"canCreateQr"`
	CanUploadFiles   *bool   `json:"canUploadFiles"`
	CanAccessGallery *bool   `json:"canAccessGallery"`
	IsActive         *bool   `json:"isActive"`
	IsPaid           *bool   `json:"isPaid"`
}

func (h *UsersHandler) Update(c *fiber.Ctx) error {
	user, err := h.load(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, invalidBody())
	}

	currentUser := middleware.GetCurrentUser(c)
	if currentUser != nil && currentUser.ID == user.ID {
		if (req.IsAdmin != nil && !*req.IsAdmin) || (req.IsActive != nil && !*req.IsActive) {
			return utils.Fail(c, apperr.Validation("Kendi yönetici yetkinizi veya hesabınızı kapatamazsınız"))
		}
	}

	updates := map[string]interface{}{}
	if req.CompanyName != nil {
		value := strings.TrimSpace(*req.CompanyName)
		if value == "" {
			return utils.Fail(c, apperr.Validation("Şirket adı boş olamaz"))
		}
		updates["company_name"] = value
	}
	if req.IsAdmin != nil {
		updates["is_admin"] = *req.IsAdmin
	}
	if req.CanCreateQR != nil {
		updates["can_create_qr"] = *req.CanCreateQR
	}
	if req.CanUploadFiles != nil {
		updates["can_upload_files"] = *req.CanUploadFiles
	}
	if req.CanAccessGallery != nil {
		updates["can_access_gallery"] = *req.CanAccessGallery
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsPaid != nil {
		updates["is_paid"] = *req.IsPaid
	}

	if len(updates) == 0 {
		return utils.Fail(c, apperr.Validation("Güncellenecek alan yok"))
	}

	if err := h.DB.WithContext(c.UserContext()).Model(user).Updates(updates).Error; err != nil {
		return utils.Fail(c, apperr.Upstream("Kullanıcı güncellenemedi", err))
	}
	if err := h.DB.WithContext(c.UserContext()).First(user, "id = ?", user.ID).Error; err != nil {
		return utils.Fail(c, apperr.Upstream("Kullanıcı sorgulanamadı", err))
	}

	h.Audit.LogAsync(auditEntry(c, "user_updated", models.ResourceUser, user.ID.String(), updates))
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "Kullanıcı güncellendi",
		"user":    user,
	})
}

// Delete deactivates the account. Users are never removed.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	user, err := h.load(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	currentUser := middleware.GetCurrentUser(c)
	if currentUser != nil && currentUser.ID == user.ID {
		return utils.Fail(c, apperr.Validation("Kendi hesabınızı kapatamazsınız"))
	}

	if err := h.DB.WithContext(c.UserContext()).Model(user).Update("is_active", false).Error; err != nil {
		return utils.Fail(c, apperr.Upstream("Kullanıcı devre dışı bırakılamadı", err))
	}

	logger.InfoWithUser(currentUser.ID.String(), "user_deactivated", map[string]interface{}{
		"target_user_id": user.ID.String(),
	})
	h.Audit.LogAsync(auditEntry(c, "user_deactivated", models.ResourceUser, user.ID.String(), nil))
	return utils.Message(c, fiber.StatusOK, "Kullanıcı devre dışı bırakıldı")
}

// ResetQR deactivates the user's bindings so they can generate a new one.
func (h *UsersHandler) ResetQR(c *fiber.Ctx) error {
	user, err := h.load(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	count, err := h.QR.ResetOwner(c.UserContext(), user.ID)
	if err != nil {
		return utils.Fail(c, err)
	}

	h.Audit.LogAsync(auditEntry(c, "qr_reset", models.ResourceUser, user.ID.String(), map[string]interface{}{
		"deactivated": count,
	}))
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":     "QR kodlar sıfırlandı",
		"deactivated": count,
	})
}
