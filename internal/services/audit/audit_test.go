package audit

import (
	"context"
	"encoding/json"
	"testing"

	"parkeasy/internal/models"
	"parkeasy/internal/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityAndAdminAction(t *testing.T) {
	db := storetest.Open(t)
	admin := storetest.User(t, db, "root", models.RoleAdmin)
	cust := storetest.User(t, db, "asha", models.RoleCustomer)
	other := storetest.User(t, db, "ravi", models.RoleCustomer)
	o := Origin{IP: "10.0.0.1", UserAgent: "test"}

	require.NoError(t, Activity(db, cust.ID, models.ActivityLogin, "logged in", o))
	require.NoError(t, Activity(db, other.ID, models.ActivityLogin, "logged in", o))
	require.NoError(t, AdminAction(db, admin.ID, models.AdminUserSuspended, cust.ID, "suspended asha", o, map[string]string{"reason": "spam"}))
	require.NoError(t, AdminAction(db, admin.ID, models.AdminSystemSettingsChanged, "", "changed settings", o, nil))

	log := NewLog(db)
	acts, err := log.Activities(context.Background(), cust.ID, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, acts.Total)
	require.Len(t, acts.Items, 1)
	assert.Equal(t, "10.0.0.1", acts.Items[0].IPAddress)

	all, err := log.Activities(context.Background(), "", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.Total)
	assert.Equal(t, 1, all.Page)

	admins, err := log.AdminActions(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, admins.Items, 2)
	var withTarget models.AdminAction
	for _, a := range admins.Items {
		if a.Action == models.AdminUserSuspended {
			withTarget = a
		}
	}
	require.NotNil(t, withTarget.TargetUserID)
	assert.Equal(t, cust.ID, *withTarget.TargetUserID)
	var meta map[string]string
	require.NoError(t, json.Unmarshal(withTarget.Metadata, &meta))
	assert.Equal(t, "spam", meta["reason"])
}

func TestAdminActionsPaginate(t *testing.T) {
	db := storetest.Open(t)
	admin := storetest.User(t, db, "root", models.RoleAdmin)
	for i := 0; i < PageSize+3; i++ {
		require.NoError(t, AdminAction(db, admin.ID, models.AdminProfileUpdated, "", "edit", Origin{}, nil))
	}
	p2, err := NewLog(db).AdminActions(context.Background(), 2)
	require.NoError(t, err)
	assert.EqualValues(t, PageSize+3, p2.Total)
	assert.Len(t, p2.Items, 3)
}
