// Package apperr holds the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuth
	KindTokenExpired
	KindAuthorization
	KindNotFound
	KindConflict
	KindLimitExceeded
	KindUnsupportedMedia
	KindPayloadTooLarge
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindTokenExpired:
		return "token_expired"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindLimitExceeded:
		return "limit_exceeded"
	case KindUnsupportedMedia:
		return "unsupported_media"
	case KindPayloadTooLarge:
		return "payload_too_large"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindLimitExceeded, KindUnsupportedMedia:
		return http.StatusBadRequest
	case KindAuth, KindTokenExpired:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// Machine-readable codes returned alongside the message.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeUserExists        = "USER_EXISTS"
	CodeInvalidToken      = "INVALID_TOKEN"
	CodeTokenExpired      = "TOKEN_EXPIRED"
	CodeNoToken           = "NO_TOKEN"
	CodeInvalidCreds      = "INVALID_CREDENTIALS"
	CodeQRPermission      = "QR_PERMISSION_REQUIRED"
	CodeUploadPermission  = "UPLOAD_PERMISSION_REQUIRED"
	CodeGalleryPermission = "GALLERY_PERMISSION_REQUIRED"
	CodeAdminRequired     = "ADMIN_REQUIRED"
	CodeForbidden         = "FORBIDDEN"
	CodeQRAlreadyCreated  = "QR_ALREADY_CREATED"
	CodeQRLimitExceeded   = "QR_LIMIT_EXCEEDED"
	CodeQRNotFound        = "QR_NOT_FOUND"
	CodeNotFound          = "NOT_FOUND"
	CodeUnsupportedMedia  = "UNSUPPORTED_MEDIA"
	CodeFileTooLarge      = "FILE_TOO_LARGE"
	CodeTooManyFiles      = "TOO_MANY_FILES"
	CodeUpstream          = "UPSTREAM_ERROR"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, CodeValidation, message)
}

func Auth(code, message string) *Error {
	return New(KindAuth, code, message)
}

func TokenExpired() *Error {
	return New(KindTokenExpired, CodeTokenExpired, "Oturum süresi doldu, lütfen tekrar giriş yapın")
}

func Authorization(code, message string) *Error {
	return New(KindAuthorization, code, message)
}

func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

func LimitExceeded(code, message string) *Error {
	return New(KindLimitExceeded, code, message)
}

func UnsupportedMedia(message string) *Error {
	return New(KindUnsupportedMedia, CodeUnsupportedMedia, message)
}

func PayloadTooLarge(message string) *Error {
	return New(KindPayloadTooLarge, CodeFileTooLarge, message)
}

func Upstream(message string, err error) *Error {
	return Wrap(KindUpstream, CodeUpstream, message, err)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the kind of err, or zero when err is not an *Error.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return 0
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
