package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/metaa35/qrwedding-sub000/internal/models"
	"github.com/metaa35/qrwedding-sub000/pkg/apperr"
)

type Capability int

const (
	CapabilityCreateQR Capability = iota + 1
	CapabilityUpload
	CapabilityGallery
)

func CanCreateQR(user *models.User) bool {
	return user != nil && (user.IsAdmin || user.CanCreateQR)
}

func CanUpload(user *models.User) bool {
	return user != nil && (user.IsAdmin || user.CanUploadFiles)
}

func CanAccessGallery(user *models.User) bool {
	return user != nil && (user.IsAdmin || user.CanAccessGallery)
}

// Require returns an authorization error carrying the capability's reason
// code when user lacks it.
func Require(user *models.User, capability Capability) error {
	switch capability {
	case CapabilityCreateQR:
		if !CanCreateQR(user) {
			return apperr.Authorization(apperr.CodeQRPermission, "QR kod oluşturma yetkiniz bulunmuyor")
		}
	case CapabilityUpload:
		if !CanUpload(user) {
			return apperr.Authorization(apperr.CodeUploadPermission, "Dosya yükleme yetkiniz bulunmuyor")
		}
	case CapabilityGallery:
		if !CanAccessGallery(user) {
			return apperr.Authorization(apperr.CodeGalleryPermission, "Galeri erişim yetkiniz bulunmuyor")
		}
	default:
		return apperr.Authorization(apperr.CodeForbidden, "Bu işlem için yetkiniz yok")
	}
	return nil
}

// EventTarget identifies the drive folder of one event.
type EventTarget struct {
	EventName string
	QRID      string
}

func (t EventTarget) FolderKey() string {
	return models.FolderKey(t.EventName, t.QRID)
}

type AccessService struct {
	DB *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{DB: db}
}

// ResolveGalleryTarget checks that user may see the gallery of the event named
// by qrID or eventName and returns its folder target. Owners see their own
// events; admins see every event.
func (a *AccessService) ResolveGalleryTarget(ctx context.Context, user *models.User, eventName, qrID string) (EventTarget, error) {
	if err := Require(user, CapabilityGallery); err != nil {
		return EventTarget{}, err
	}

	qrID = strings.TrimSpace(qrID)
	eventName = strings.TrimSpace(eventName)

	if qrID != "" {
		var binding models.QRCode
		if err := a.DB.WithContext(ctx).Where("qr_id = ?", qrID).First(&binding).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return EventTarget{}, apperr.NotFound(apperr.CodeQRNotFound, "QR kod bulunamadı")
			}
			return EventTarget{}, apperr.Upstream("QR kod sorgulanamadı", err)
		}
		if !user.IsAdmin && binding.OwnerID != user.ID {
			return EventTarget{}, apperr.Authorization(apperr.CodeForbidden, "Bu etkinliğin galerisine erişiminiz yok")
		}
		return EventTarget{EventName: binding.EventName, QRID: binding.QRID}, nil
	}

	if eventName == "" {
		return EventTarget{}, apperr.Validation("Etkinlik adı veya QR kod gerekli")
	}

	if !user.IsAdmin {
		owns, err := a.ownsEvent(ctx, user.ID, eventName)
		if err != nil {
			return EventTarget{}, err
		}
		if !owns {
			return EventTarget{}, apperr.Authorization(apperr.CodeForbidden, "Bu etkinliğin galerisine erişiminiz yok")
		}
	}

	return EventTarget{EventName: eventName}, nil
}

// CanManageFolder reports whether user owns the event whose drive folder is
// named folderName.
func (a *AccessService) CanManageFolder(ctx context.Context, user *models.User, folderName string) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsAdmin {
		return true, nil
	}

	var bindings []models.QRCode
	if err := a.DB.WithContext(ctx).Where("owner_id = ?", user.ID).Find(&bindings).Error; err != nil {
		return false, apperr.Upstream("QR kodlar sorgulanamadı", err)
	}
	for i := range bindings {
		if bindings[i].FolderKey() == folderName || bindings[i].EventName == folderName {
			return true, nil
		}
	}
	return false, nil
}

func (a *AccessService) ownsEvent(ctx context.Context, userID uuid.UUID, eventName string) (bool, error) {
	var count int64
	if err := a.DB.WithContext(ctx).Model(&models.QRCode{}).
		Where("owner_id = ? AND event_name = ?", userID, eventName).
		Count(&count).Error; err != nil {
		return false, apperr.Upstream("QR kodlar sorgulanamadı", err)
	}
	return count > 0, nil
}
