package models

import (
	"time"

	"github.com/google/uuid"
)

// QRCode binds an opaque qrId to an owner and an event. Only IsActive,
// CustomMessage and EventDate change after creation.
type QRCode struct {
	BaseModel
	QRID          string     `json:"qrId" gorm:"column:qr_id;type:varchar(255);uniqueIndex;not null"`
	OwnerID       uuid.UUID  `json:"ownerId" gorm:"type:uuid;not null;index"`
	EventName     string     `json:"eventName" gorm:"type:varchar(255);not null;index"`
	EventDate     *time.Time `json:"eventDate,omitempty"`
	CustomMessage *string    `json:"customMessage,omitempty" gorm:"type:text"`
	QRImage       string     `json:"qrImage" gorm:"column:qr_image;type:text;not null"`
	AccessURL     string     `json:"accessUrl" gorm:"type:text;not null"`
	GalleryURL    string     `json:"galleryUrl" gorm:"type:text;not null"`
	IsActive      bool       `json:"isActive" gorm:"not null;index"`

	Owner *User `json:"owner,omitempty" gorm:"foreignKey:OwnerID;references:ID"`
}

func (QRCode) TableName() string {
	return "qr_codes"
}

// FolderKey is the drive folder name assets of this binding live under.
func (q *QRCode) FolderKey() string {
	return FolderKey(q.EventName, q.QRID)
}

func FolderKey(eventName, qrID string) string {
	if qrID != "" {
		return eventName + "_" + qrID
	}
	return eventName
}
