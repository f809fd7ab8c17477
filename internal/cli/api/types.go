package api

import "time"

// Envelope carries the fields every response shares.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// User mirrors the server's account model.
type User struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	CompanyName      string     `json:"companyName"`
	FolderRef        string     `json:"folderRef"`
	IsAdmin          bool       `json:"isAdmin"`
	CanCreateQR      bool       `json:"canCreateQr"`
	CanUploadFiles   bool       `json:"canUploadFiles"`
	CanAccessGallery bool       `json:"canAccessGallery"`
	IsActive         bool       `json:"isActive"`
	IsPaid           bool       `json:"isPaid"`
	PaymentStatus    string     `json:"paymentStatus"`
	LastLogin        *time.Time `json:"lastLogin,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// QRCode mirrors an event binding.
type QRCode struct {
	ID            string     `json:"id"`
	QRID          string     `json:"qrId"`
	EventName     string     `json:"eventName"`
	EventDate     *time.Time `json:"eventDate,omitempty"`
	CustomMessage *string    `json:"customMessage,omitempty"`
	QRImage       string     `json:"qrImage,omitempty"`
	AccessURL     string     `json:"accessUrl"`
	GalleryURL    string     `json:"galleryUrl"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// EventData is the public view of a binding returned by validate.
type EventData struct {
	QRID          string     `json:"qrId"`
	EventName     string     `json:"eventName"`
	EventDate     *time.Time `json:"eventDate,omitempty"`
	CustomMessage *string    `json:"customMessage,omitempty"`
	IsActive      bool       `json:"isActive"`
}

// Asset is one gallery entry.
type Asset struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"createdTime"`
	ViewLink     string    `json:"viewLink"`
	Shared       bool      `json:"shared"`
	UploaderName string    `json:"uploaderName"`
	EventName    string    `json:"eventName"`
	Message      string    `json:"message"`
}

// UploadedFile is returned for each stored upload.
type UploadedFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ViewLink string `json:"viewLink"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

type FailedFile struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Envelope
	Token string `json:"token"`
	User  User   `json:"user"`
}

type MeResponse struct {
	Envelope
	User User `json:"user"`
}

type QRResponse struct {
	Envelope
	QRCode QRCode `json:"qrCode"`
}

type UserQRResponse struct {
	Envelope
	HasQR  bool    `json:"hasQR"`
	QRCode *QRCode `json:"qrCode"`
}

type ValidateResponse struct {
	Envelope
	EventData EventData `json:"eventData"`
}

type FilesResponse struct {
	Envelope
	Files []Asset `json:"files"`
	Count int     `json:"count"`
}

type UploadResponse struct {
	Envelope
	Files  []UploadedFile `json:"files"`
	Failed []FailedFile   `json:"failed"`
}

type CountResponse struct {
	Envelope
	Count int64 `json:"count"`
}
