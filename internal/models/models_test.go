package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestBaseModel_BeforeCreate(t *testing.T) {
	t.Run("generates UUID if not set", func(t *testing.T) {
		model := &BaseModel{}
		if err := model.BeforeCreate(nil); err != nil {
			t.Fatalf("BeforeCreate returned error: %v", err)
		}
		if model.ID == uuid.Nil {
			t.Error("expected ID to be generated, got nil UUID")
		}
	})

	t.Run("preserves existing UUID", func(t *testing.T) {
		existingID := uuid.New()
		model := &BaseModel{ID: existingID}
		if err := model.BeforeCreate(nil); err != nil {
			t.Fatalf("BeforeCreate returned error: %v", err)
		}
		if model.ID != existingID {
			t.Errorf("expected ID to remain %s, got %s", existingID, model.ID)
		}
	})
}

func TestFolderKey(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		qrID      string
		want      string
	}{
		{"with qr id", "Alice Wedding", "qr_Alice_Wedding_1700000000000", "Alice Wedding_qr_Alice_Wedding_1700000000000"},
		{"without qr id", "Dugun2025", "", "Dugun2025"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FolderKey(tt.eventName, tt.qrID); got != tt.want {
				t.Errorf("FolderKey() = %q, want %q", got, tt.want)
			}
		})
	}

	qr := &QRCode{EventName: "Party", QRID: "qr_Party_1"}
	if got := qr.FolderKey(); got != "Party_qr_Party_1" {
		t.Errorf("QRCode.FolderKey() = %q", got)
	}
}

func TestTableNames(t *testing.T) {
	if (User{}).TableName() != "users" {
		t.Error("unexpected users table name")
	}
	if (QRCode{}).TableName() != "qr_codes" {
		t.Error("unexpected qr_codes table name")
	}
	if (DriveNode{}).TableName() != "drive_nodes" {
		t.Error("unexpected drive_nodes table name")
	}
	if (AuditLog{}).TableName() != "audit_logs" {
		t.Error("unexpected audit_logs table name")
	}
}
