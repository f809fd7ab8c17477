package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/metaa35/qrwedding-sub000/internal/cli/api"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Stdout
	Stdout = &buf
	t.Cleanup(func() { Stdout = prev })
	return &buf
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{52428800, "50.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatSize(tt.input)
			if got != tt.want {
				t.Errorf("FormatSize(%d) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRelativeTime(t *testing.T) {
	t.Run("just now", func(t *testing.T) {
		if got := RelativeTime(time.Now()); got != "just now" {
			t.Errorf("expected 'just now', got %q", got)
		}
	})

	t.Run("hours ago", func(t *testing.T) {
		if got := RelativeTime(time.Now().Add(-3 * time.Hour)); got != "3h ago" {
			t.Errorf("expected '3h ago', got %q", got)
		}
	})

	t.Run("old dates", func(t *testing.T) {
		old := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)
		if got := RelativeTime(old); got != "2020-01-15" {
			t.Errorf("expected '2020-01-15', got %q", got)
		}
	})
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Tebrikler", 40); got != "Tebrikler" {
		t.Errorf("expected untouched string, got %q", got)
	}
	if got := Truncate("Çok güzel bir düğündü", 10); got != "Çok güz..." {
		t.Errorf("expected rune-safe cut, got %q", got)
	}
}

func TestCapabilities(t *testing.T) {
	if got := Capabilities(api.User{}); got != "-" {
		t.Errorf("expected '-', got %q", got)
	}
	got := Capabilities(api.User{CanCreateQR: true, CanAccessGallery: true})
	if got != "qr, gallery" {
		t.Errorf("expected 'qr, gallery', got %q", got)
	}
}

func TestAssetTable(t *testing.T) {
	t.Run("empty gallery", func(t *testing.T) {
		buf := captureStdout(t)
		AssetTable(nil)
		if !strings.Contains(buf.String(), "No files found.") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("rows", func(t *testing.T) {
		buf := captureStdout(t)
		AssetTable([]api.Asset{{
			ID:           "a1",
			Name:         "Ayşe_1_Dugun_photo.jpg",
			MimeType:     "image/jpeg",
			Size:         2048,
			UploaderName: "Ayşe",
			Message:      "Tebrikler!\nÇok mutlu olun",
			CreatedAt:    time.Now(),
		}})
		out := buf.String()
		for _, want := range []string{"NAME", "Ayşe_1_Dugun_photo.jpg", "2.0 KB", "jpeg", "Tebrikler! Çok mutlu olun"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got %q", want, out)
			}
		}
	})
}

func TestQRDetail(t *testing.T) {
	buf := captureStdout(t)
	msg := "Hoş geldiniz"
	QRDetail(api.QRCode{
		QRID:          "qr_Alice_Wedding_1",
		EventName:     "Alice Wedding",
		CustomMessage: &msg,
		AccessURL:     "http://localhost:3000/upload?qr=qr_Alice_Wedding_1&event=Alice%20Wedding",
		IsActive:      true,
	})
	out := buf.String()
	for _, want := range []string{"qr_Alice_Wedding_1", "Alice Wedding", "Hoş geldiniz", "upload?qr="} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}
