package models

import "time"

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// User owns QR bindings. Accounts are deactivated, never deleted.
type User struct {
	BaseModel
	Username         string     `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	Email            string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash     string     `json:"-" gorm:"type:text;not null"`
	CompanyName      string     `json:"companyName" gorm:"type:varchar(255);not null"`
	FolderRef        string     `json:"folderRef" gorm:"type:varchar(255);not null"`
	IsAdmin          bool       `json:"isAdmin" gorm:"not null"`
	CanCreateQR      bool       `json:"canCreateQr" gorm:"column:can_create_qr;not null"`
	CanUploadFiles   bool       `json:"canUploadFiles" gorm:"not null"`
	CanAccessGallery bool       `json:"canAccessGallery" gorm:"not null"`
	IsActive         bool       `json:"isActive" gorm:"not null;index"`
	IsPaid           bool       `json:"isPaid" gorm:"not null"`
	PaymentStatus    string     `json:"paymentStatus" gorm:"type:varchar(20);not null"`
	PaymentDate      *time.Time `json:"paymentDate,omitempty"`
	LastLogin        *time.Time `json:"lastLogin,omitempty"`
}

func (User) TableName() string {
	return "users"
}
