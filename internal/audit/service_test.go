package audit

import (
	"errors"
	"testing"

	"istasyon-backend/internal/auth"
	"istasyon-backend/internal/models"
	"istasyon-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestWriteAndList(t *testing.T) {
	f := testutil.Seed(t)
	actor := auth.Actor{UserID: f.Admin.ID, StationID: f.Station.ID, Role: models.RoleAdmin, Name: f.Admin.Name, RequestID: "req-1"}

	require.NoError(t, Write(f.DB, actor, LogOptions{
		EntityType: EntityShift, EntityID: 5, Action: models.AuditActionUpdate,
		Description: "onaylandı", Before: map[string]string{"status": "pending_verification"},
		After: map[string]string{"status": "verified"},
	}))
	require.NoError(t, Write(f.DB, actor, LogOptions{EntityType: EntityPayment, EntityID: 9, Action: models.AuditActionCreate}))

	other := auth.Actor{UserID: f.Outsider.ID, StationID: f.Other.ID, Role: models.RoleAdmin}
	require.NoError(t, Write(f.DB, other, LogOptions{EntityType: EntityShift, EntityID: 5, Action: models.AuditActionDelete}))

	logs, err := List(f.DB, f.Station.ID, Filter{EntityType: EntityShift})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, `{"status":"pending_verification"}`, logs[0].BeforeData)
	assert.Equal(t, `{"status":"verified"}`, logs[0].AfterData)
	assert.Equal(t, "req-1", logs[0].RequestID)

	all, err := List(f.DB, f.Station.ID, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, l := range all {
		assert.Equal(t, f.Station.ID, l.StationID)
	}
}

func TestWrite_RolledBackWithTransaction(t *testing.T) {
	f := testutil.Seed(t)
	actor := auth.Actor{UserID: f.Admin.ID, StationID: f.Station.ID, Role: models.RoleAdmin}

	boom := errors.New("boom")
	err := f.DB.Transaction(func(tx *gorm.DB) error {
		if err := Write(tx, actor, LogOptions{EntityType: EntityShift, EntityID: 1, Action: models.AuditActionCreate}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	logs, err := List(f.DB, f.Station.ID, Filter{})
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestMarshal_Nil(t *testing.T) {
	assert.Equal(t, "null", marshal(nil))
	assert.Equal(t, `[1,2]`, marshal([]int{1, 2}))
}
