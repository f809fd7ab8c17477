package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogAsyncAndList(t *testing.T) {
	db := setupServiceDB(t)
	audit := NewAuditService(db, 16)
	user := createUser(t, db, "auditor")

	audit.LogAsync(AuditEntry{UserID: &user.ID, Action: "login", ResourceType: "user", ResourceID: user.ID.String(), IPAddress: "127.0.0.1"})
	audit.LogAsync(AuditEntry{UserID: &user.ID, Action: "qr_generate", ResourceType: "qr_code", ResourceID: "qr_x_1"})
	audit.LogAsync(AuditEntry{Action: "asset_upload", ResourceType: "asset", Details: map[string]interface{}{"count": 2}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, audit.Close(ctx))
	require.NoError(t, audit.Close(ctx), "closing twice is allowed")

	logs, total, err := audit.List(context.Background(), AuditFilter{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, logs, 3)

	logs, total, err = audit.List(context.Background(), AuditFilter{UserID: &user.ID, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, logs, 2)

	logs, total, err = audit.List(context.Background(), AuditFilter{Action: "qr_generate", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].ResourceID)
	assert.Equal(t, "qr_x_1", *logs[0].ResourceID)

	logs, _, err = audit.List(context.Background(), AuditFilter{Offset: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestAuditLogAsyncNilService(t *testing.T) {
	var audit *AuditService
	assert.NotPanics(t, func() {
		audit.LogAsync(AuditEntry{Action: "noop"})
	})
}
