package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DriveNode is a folder or file in the upload drive. File bytes live in the
// object store under ObjectKey.
type DriveNode struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	ParentID    *uuid.UUID `json:"parentId,omitempty" gorm:"type:uuid;index:idx_drive_nodes_parent_name"`
	Name        string     `json:"name" gorm:"type:varchar(512);not null;index:idx_drive_nodes_parent_name"`
	IsFolder    bool       `json:"isFolder" gorm:"not null"`
	MimeType    string     `json:"mimeType" gorm:"type:varchar(255)"`
	Size        int64      `json:"size" gorm:"not null;default:0"`
	Description string     `json:"description" gorm:"type:text"`
	ObjectKey   string     `json:"-" gorm:"type:text"`
	Trashed     bool       `json:"trashed" gorm:"not null;index"`
	Shared      bool       `json:"shared" gorm:"not null"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"not null;index"`
	UpdatedAt   time.Time  `json:"updatedAt" gorm:"not null"`
}

func (n *DriveNode) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

func (DriveNode) TableName() string {
	return "drive_nodes"
}
