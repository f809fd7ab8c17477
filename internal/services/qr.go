package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/metaa35/qrwedding-sub000/internal/metrics"
	"github.com/metaa35/qrwedding-sub000/internal/models"
	"github.com/metaa35/qrwedding-sub000/pkg/apperr"
	"github.com/metaa35/qrwedding-sub000/pkg/logger"
)

const (
	maxQRIDAttempts = 5
	// maxEventNameLength keeps the access URL within QR code capacity.
	maxEventNameLength = 200
)

type GenerateInput struct {
	EventName     string
	EventDate     *time.Time
	CustomMessage *string
}

type UpdateQRInput struct {
	EventDate     *time.Time
	CustomMessage *string
	IsActive      *bool
}

type QRService struct {
	DB          *gorm.DB
	Renderer    *QRRenderer
	FrontendURL string
	MaxPerOwner int
	now         func() time.Time
}

func NewQRService(db *gorm.DB, renderer *QRRenderer, frontendURL string, maxPerOwner int) *QRService {
	return &QRService{
		DB:          db,
		Renderer:    renderer,
		FrontendURL: strings.TrimRight(frontendURL, "/"),
		MaxPerOwner: maxPerOwner,
		now:         time.Now,
	}
}

// Generate creates a new active binding for owner. Non-admin owners may hold
// one active binding and at most MaxPerOwner bindings in total.
func (s *QRService) Generate(ctx context.Context, owner *models.User, in GenerateInput) (*models.QRCode, error) {
	if err := Require(owner, CapabilityCreateQR); err != nil {
		return nil, err
	}

	eventName := strings.TrimSpace(in.EventName)
	if eventName == "" {
		return nil, apperr.Validation("Etkinlik adı gerekli")
	}
	if utf8.RuneCountInString(eventName) > maxEventNameLength {
		return nil, apperr.Validation(fmt.Sprintf("Etkinlik adı en fazla %d karakter olabilir", maxEventNameLength))
	}

	if !owner.IsAdmin {
		active, err := s.ActiveForOwner(ctx, owner.ID)
		if err != nil {
			return nil, err
		}
		if active != nil {
			return nil, apperr.Conflict(apperr.CodeQRAlreadyCreated, "Zaten bir QR kodunuz var")
		}

		var total int64
		if err := s.DB.WithContext(ctx).Model(&models.QRCode{}).Where("owner_id = ?", owner.ID).Count(&total).Error; err != nil {
			return nil, apperr.Upstream("QR kodlar sorgulanamadı", err)
		}
		if total >= int64(s.MaxPerOwner) {
			return nil, apperr.LimitExceeded(apperr.CodeQRLimitExceeded,
				fmt.Sprintf("En fazla %d QR kod oluşturabilirsiniz", s.MaxPerOwner))
		}
	}

	eventSlug := slugify(eventName)
	millis := s.now().UnixMilli()

	for attempt := 0; attempt < maxQRIDAttempts; attempt++ {
		qrID := fmt.Sprintf("qr_%s_%d", eventSlug, millis+int64(attempt))

		var taken int64
		if err := s.DB.WithContext(ctx).Model(&models.QRCode{}).Where("qr_id = ?", qrID).Count(&taken).Error; err != nil {
			return nil, apperr.Upstream("QR kod sorgulanamadı", err)
		}
		if taken > 0 {
			continue
		}

		binding := models.QRCode{
			QRID:          qrID,
			OwnerID:       owner.ID,
			EventName:     eventName,
			EventDate:     in.EventDate,
			CustomMessage: in.CustomMessage,
			AccessURL:     s.clientURL("/upload", qrID, eventName),
			GalleryURL:    s.clientURL("/gallery", qrID, eventName),
			IsActive:      true,
		}

		image, err := s.Renderer.RenderDataURL(binding.AccessURL)
		if err != nil {
			return nil, apperr.Upstream("QR görseli oluşturulamadı", err)
		}
		binding.QRImage = image

		if err := s.DB.WithContext(ctx).Create(&binding).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return nil, apperr.Upstream("QR kod kaydedilemedi", err)
		}

		metrics.QRGeneratedTotal.Inc()
		logger.InfoWithUser(owner.ID.String(), "qr_generated", map[string]interface{}{
			"qr_id":      qrID,
			"event_name": eventName,
		})
		return &binding, nil
	}

	return nil, apperr.Upstream("Benzersiz QR kimliği üretilemedi", fmt.Errorf("qr id collided %d times", maxQRIDAttempts))
}

func (s *QRService) clientURL(page, qrID, eventName string) string {
	return fmt.Sprintf("%s%s?qr=%s&event=%s", s.FrontendURL, page, url.QueryEscape(qrID), encodeComponent(eventName))
}

// encodeComponent escapes like encodeURIComponent: spaces become %20.
func encodeComponent(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

// ActiveForOwner returns the owner's active binding, or nil when there is none.
func (s *QRService) ActiveForOwner(ctx context.Context, ownerID uuid.UUID) (*models.QRCode, error) {
	var binding models.QRCode
	err := s.DB.WithContext(ctx).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Order("created_at DESC").
		First(&binding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Upstream("QR kod sorgulanamadı", err)
	}
	return &binding, nil
}

// Validate returns the active binding for qrID.
func (s *QRService) Validate(ctx context.Context, qrID string) (*models.QRCode, error) {
	qrID = strings.TrimSpace(qrID)
	if qrID == "" {
		return nil, apperr.Validation("QR kod gerekli")
	}

	var binding models.QRCode
	err := s.DB.WithContext(ctx).Where("qr_id = ? AND is_active = ?", qrID, true).First(&binding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.CodeQRNotFound, "Geçersiz veya süresi dolmuş QR kod")
		}
		return nil, apperr.Upstream("QR kod sorgulanamadı", err)
	}
	return &binding, nil
}

func (s *QRService) Verify(ctx context.Context, qrID string) bool {
	binding, err := s.Validate(ctx, qrID)
	return err == nil && binding != nil
}

// Info returns any binding, active or not, to its owner or an admin.
func (s *QRService) Info(ctx context.Context, actor *models.User, qrID string) (*models.QRCode, error) {
	var binding models.QRCode
	if err := s.DB.WithContext(ctx).Where("qr_id = ?", qrID).First(&binding).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.CodeQRNotFound, "QR kod bulunamadı")
		}
		return nil, apperr.Upstream("QR kod sorgulanamadı", err)
	}
	if !actor.IsAdmin && binding.OwnerID != actor.ID {
		return nil, apperr.Authorization(apperr.CodeForbidden, "Bu QR koda erişiminiz yok")
	}
	return &binding, nil
}

// List returns the actor's bindings, or every binding for admins.
func (s *QRService) List(ctx context.Context, actor *models.User) ([]models.QRCode, error) {
	query := s.DB.WithContext(ctx).Order("created_at DESC")
	if actor.IsAdmin {
		query = query.Preload("Owner")
	} else {
		query = query.Where("owner_id = ?", actor.ID)
	}

	var bindings []models.QRCode
	if err := query.Find(&bindings).Error; err != nil {
		return nil, apperr.Upstream("QR kodlar listelenemedi", err)
	}
	return bindings, nil
}

// Update edits the custom message and event date. Only admins may toggle
// IsActive; the event name is immutable.
func (s *QRService) Update(ctx context.Context, actor *models.User, id uuid.UUID, in UpdateQRInput) (*models.QRCode, error) {
	binding, err := s.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && binding.OwnerID != actor.ID {
		return nil, apperr.Authorization(apperr.CodeForbidden, "Bu QR kodu düzenleme yetkiniz yok")
	}
	if in.IsActive != nil && !actor.IsAdmin {
		return nil, apperr.Authorization(apperr.CodeAdminRequired, "QR kod durumunu sadece yönetici değiştirebilir")
	}

	updates := map[string]interface{}{}
	if in.CustomMessage != nil {
		updates["custom_message"] = *in.CustomMessage
	}
	if in.EventDate != nil {
		updates["event_date"] = *in.EventDate
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) == 0 {
		return binding, nil
	}

	if err := s.DB.WithContext(ctx).Model(binding).Updates(updates).Error; err != nil {
		return nil, apperr.Upstream("QR kod güncellenemedi", err)
	}
	return s.byID(ctx, id)
}

// Delete deactivates a binding. Rows are kept so the owner's total count
// still reflects it.
func (s *QRService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if actor == nil || !actor.IsAdmin {
		return apperr.Authorization(apperr.CodeAdminRequired, "Bu işlem için yönetici yetkisi gerekli")
	}
	binding, err := s.byID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Model(binding).Update("is_active", false).Error; err != nil {
		return apperr.Upstream("QR kod silinemedi", err)
	}
	return nil
}

// ResetOwner deactivates every binding of ownerID so they can generate again.
func (s *QRService) ResetOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	result := s.DB.WithContext(ctx).Model(&models.QRCode{}).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Update("is_active", false)
	if result.Error != nil {
		return 0, apperr.Upstream("QR kodlar sıfırlanamadı", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *QRService) byID(ctx context.Context, id uuid.UUID) (*models.QRCode, error) {
	var binding models.QRCode
	if err := s.DB.WithContext(ctx).First(&binding, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.CodeQRNotFound, "QR kod bulunamadı")
		}
		return nil, apperr.Upstream("QR kod sorgulanamadı", err)
	}
	return &binding, nil
}
