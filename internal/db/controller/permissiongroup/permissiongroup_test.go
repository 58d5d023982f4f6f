package permissiongroup

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/orangelab-kr/backoffice-api/internal/db/models"
	"github.com/orangelab-kr/backoffice-api/internal/web/opcode"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.User{},
		&models.Service{},
		&models.Permission{},
		&models.PermissionGroup{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func seedPermissions(t *testing.T, db *gorm.DB, ids ...string) {
	t.Helper()

	require.NoError(t, db.Create(&models.Service{
		ServiceID: "ride",
		Endpoint:  "https://ride.example.com",
		SecretKey: "super-secret-signing-key",
	}).Error)

	for _, id := range ids {
		require.NoError(t, db.Create(&models.Permission{
			PermissionID: id,
			ServiceID:    "ride",
			Name:         id,
		}).Error)
	}
}

func TestCreate(t *testing.T) {
	db := setupTestDB(t)
	seedPermissions(t, db, "ride.start", "ride.stop")

	created, err := Create(db, CreateInput{
		Name:          "operators",
		Description:   "ride operators",
		PermissionIDs: []string{"ride.start", "ride.stop"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.PermissionGroupID)
	assert.Len(t, created.Permissions, 2)
}

func TestCreateUnknownPermission(t *testing.T) {
	db := setupTestDB(t)
	seedPermissions(t, db, "ride.start")

	_, err := Create(db, CreateInput{
		Name:          "operators",
		PermissionIDs: []string{"ride.start", "ride.ghost"},
	})
	assert.ErrorIs(t, err, ErrPermissionNotFound)

	// The missing ids are named in the error details.
	var opErr *opcode.Error
	require.ErrorAs(t, err, &opErr)
	details, ok := opErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []string{"ride.ghost"}, details["permissionIds"])
}

func TestList(t *testing.T) {
	db := setupTestDB(t)

	for _, name := range []string{"admins", "operators", "viewers"} {
		_, err := Create(db, CreateInput{Name: name})
		require.NoError(t, err)
	}

	groups, total, err := List(db, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, groups, 3)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, "admins", groups[0].Name)

	groups, total, err = List(db, ListOptions{Search: "oper"})
	require.NoError(t, err)
	assert.Len(t, groups, 1)
	assert.EqualValues(t, 1, total)

	_, _, err = List(db, ListOptions{OrderBy: "description"})
	assert.ErrorIs(t, err, ErrInvalidOrderBy)
}

func TestUpdateReplacesPermissions(t *testing.T) {
	db := setupTestDB(t)
	seedPermissions(t, db, "ride.start", "ride.stop", "ride.audit")

	created, err := Create(db, CreateInput{
		Name:          "operators",
		PermissionIDs: []string{"ride.start"},
	})
	require.NoError(t, err)

	updated, err := Update(db, created, UpdateInput{
		PermissionIDs: []string{"ride.stop", "ride.audit"},
	})
	require.NoError(t, err)

	require.Len(t, updated.Permissions, 2)
	held := map[string]bool{}
	for _, permission := range updated.Permissions {
		held[permission.PermissionID] = true
	}
	assert.True(t, held["ride.stop"])
	assert.True(t, held["ride.audit"])
	assert.False(t, held["ride.start"])

	// A nil set leaves the associations alone.
	name := "renamed"
	updated, err = Update(db, created, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Len(t, updated.Permissions, 2)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	seedPermissions(t, db, "ride.start")

	created, err := Create(db, CreateInput{
		Name:          "operators",
		PermissionIDs: []string{"ride.start"},
	})
	require.NoError(t, err)

	require.NoError(t, Delete(db, created))

	_, err = Get(db, created.PermissionGroupID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The permission itself survives, only the association is removed.
	var count int64
	db.Model(&models.Permission{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestDeleteBlockedByUsers(t *testing.T) {
	db := setupTestDB(t)

	created, err := Create(db, CreateInput{Name: "operators"})
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.User{
		UserID:            "00000000-0000-0000-0000-000000000002",
		Username:          "tester",
		Email:             "tester@example.com",
		Phone:             "+821012345678",
		PermissionGroupID: created.PermissionGroupID,
	}).Error)

	err = Delete(db, created)
	assert.ErrorIs(t, err, ErrInUse)

	var opErr *opcode.Error
	require.ErrorAs(t, err, &opErr)
	details, ok := opErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, details["users"], 1)

	_, err = Get(db, created.PermissionGroupID)
	assert.NoError(t, err)
}
