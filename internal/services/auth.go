package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/metaa35/qrwedding-sub000/internal/models"
	"github.com/metaa35/qrwedding-sub000/pkg/apperr"
	"github.com/metaa35/qrwedding-sub000/pkg/utils"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	CompanyName string
}

type AuthService struct {
	DB                  *gorm.DB
	DefaultCapabilities bool
	now                 func() time.Time
}

func NewAuthService(db *gorm.DB, defaultCapabilities bool) *AuthService {
	return &AuthService{DB: db, DefaultCapabilities: defaultCapabilities, now: time.Now}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	companyName := strings.TrimSpace(in.CompanyName)

	if username == "" || email == "" || in.Password == "" || companyName == "" {
		return nil, "", apperr.Validation("Kullanıcı adı, e-posta, şifre ve şirket adı gerekli")
	}
	if !emailPattern.MatchString(email) {
		return nil, "", apperr.Validation("Geçerli bir e-posta adresi girin")
	}
	if len(in.Password) < minPasswordLength {
		return nil, "", apperr.Validation(fmt.Sprintf("Şifre en az %d karakter olmalı", minPasswordLength))
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error; err != nil {
		return nil, "", apperr.Upstream("Kullanıcı sorgulanamadı", err)
	}
	if count > 0 {
		return nil, "", apperr.Conflict(apperr.CodeUserExists, "Bu kullanıcı adı veya e-posta zaten kayıtlı")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, "", apperr.Upstream("Şifre işlenemedi", err)
	}

	user := models.User{
		Username:         username,
		Email:            email,
		PasswordHash:     hash,
		CompanyName:      companyName,
		FolderRef:        fmt.Sprintf("%s_%d", slugify(companyName), s.now().UnixMilli()),
		CanCreateQR:      s.DefaultCapabilities,
		CanUploadFiles:   s.DefaultCapabilities,
		CanAccessGallery: s.DefaultCapabilities,
		IsActive:         true,
		PaymentStatus:    models.PaymentStatusPending,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", apperr.Conflict(apperr.CodeUserExists, "Bu kullanıcı adı veya e-posta zaten kayıtlı")
		}
		return nil, "", apperr.Upstream("Kullanıcı oluşturulamadı", err)
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		return nil, "", apperr.Upstream("Token oluşturulamadı", err)
	}
	return &user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", apperr.Validation("E-posta ve şifre gerekli")
	}

	invalid := apperr.Auth(apperr.CodeInvalidCreds, "Geçersiz e-posta veya şifre")

	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", invalid
		}
		return nil, "", apperr.Upstream("Kullanıcı sorgulanamadı", err)
	}
	if !utils.CheckPassword(password, user.PasswordHash) || !user.IsActive {
		return nil, "", invalid
	}

	now := s.now()
	if err := s.DB.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		return nil, "", apperr.Upstream("Giriş kaydedilemedi", err)
	}
	user.LastLogin = &now

	token, err := utils.GenerateToken(&user)
	if err != nil {
		return nil, "", apperr.Upstream("Token oluşturulamadı", err)
	}
	return &user, token, nil
}

// VerifyToken resolves a bearer token to a fresh, active user row.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := utils.ValidateToken(token)
	if err != nil {
		if utils.IsTokenExpired(err) {
			return nil, apperr.TokenExpired()
		}
		return nil, apperr.Auth(apperr.CodeInvalidToken, "Geçersiz token")
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Auth(apperr.CodeInvalidToken, "Geçersiz token")
		}
		return nil, apperr.Upstream("Kullanıcı sorgulanamadı", err)
	}
	if !user.IsActive {
		return nil, apperr.Auth(apperr.CodeInvalidToken, "Hesap devre dışı")
	}
	return &user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if current == "" || next == "" {
		return apperr.Validation("Mevcut ve yeni şifre gerekli")
	}
	if len(next) < minPasswordLength {
		return apperr.Validation(fmt.Sprintf("Şifre en az %d karakter olmalı", minPasswordLength))
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return apperr.NotFound(apperr.CodeNotFound, "Kullanıcı bulunamadı")
	}
	if !utils.CheckPassword(current, user.PasswordHash) {
		return apperr.Auth(apperr.CodeInvalidCreds, "Mevcut şifre yanlış")
	}

	hash, err := utils.HashPassword(next)
	if err != nil {
		return apperr.Upstream("Şifre işlenemedi", err)
	}
	if err := s.DB.WithContext(ctx).Model(&user).Update("password_hash", hash).Error; err != nil {
		return apperr.Upstream("Şifre güncellenemedi", err)
	}
	return nil
}

// UpdatePayment records a payment state. A "paid" status also grants every
// capability.
func (s *AuthService) UpdatePayment(ctx context.Context, userID uuid.UUID, status string) (*models.User, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case models.PaymentStatusPending, models.PaymentStatusPaid, models.PaymentStatusFailed:
	default:
		return nil, apperr.Validation("Geçersiz ödeme durumu")
	}

	updates := map[string]interface{}{
		"payment_status": status,
		"is_paid":        status == models.PaymentStatusPaid,
	}
	if status == models.PaymentStatusPaid {
		updates["payment_date"] = s.now()
		updates["can_create_qr"] = true
		updates["can_upload_files"] = true
		updates["can_access_gallery"] = true
	}

	result := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return nil, apperr.Upstream("Ödeme durumu güncellenemedi", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperr.NotFound(apperr.CodeNotFound, "Kullanıcı bulunamadı")
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, apperr.Upstream("Kullanıcı sorgulanamadı", err)
	}
	return &user, nil
}
