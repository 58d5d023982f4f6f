package service

import (
	"fmt"
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

	err = db.AutoMigrate(&models.Service{}, &models.Permission{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestCreateAndGet(t *testing.T) {
	db := setupTestDB(t)

	created, err := Create(db, CreateInput{
		ServiceID: "ride",
		Endpoint:  "https://ride.example.com",
		SecretKey: "super-secret-signing-key",
	})
	require.NoError(t, err)

	// The default read path never carries the secret key.
	assert.Equal(t, "ride", created.ServiceID)
	assert.Empty(t, created.SecretKey)

	found, err := Get(db, "ride")
	require.NoError(t, err)
	assert.Empty(t, found.SecretKey)

	withSecret, err := GetWithSecretKey(db, "ride")
	require.NoError(t, err)
	assert.Equal(t, "super-secret-signing-key", withSecret.SecretKey)

	_, err = Create(db, CreateInput{ServiceID: "ride", Endpoint: "https://x", SecretKey: "k"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = Get(db, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	db := setupTestDB(t)

	for i := 0; i < 12; i++ {
		_, err := Create(db, CreateInput{
			ServiceID: fmt.Sprintf("svc%02d", i),
			Endpoint:  "https://example.com",
			SecretKey: "super-secret-signing-key",
		})
		require.NoError(t, err)
	}

	services, total, err := List(db, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, services, 10)
	assert.EqualValues(t, 12, total)

	for _, svc := range services {
		assert.Empty(t, svc.SecretKey)
	}

	services, total, err = List(db, ListOptions{Search: "svc03"})
	require.NoError(t, err)
	assert.Len(t, services, 1)
	assert.EqualValues(t, 1, total)

	_, _, err = List(db, ListOptions{OrderBy: "endpoint"})
	assert.ErrorIs(t, err, ErrInvalidOrderBy)
}

func TestUpdate(t *testing.T) {
	db := setupTestDB(t)

	created, err := Create(db, CreateInput{
		ServiceID: "ride",
		Endpoint:  "https://ride.example.com",
		SecretKey: "super-secret-signing-key",
	})
	require.NoError(t, err)

	endpoint := "https://ride2.example.com"
	updated, err := Update(db, created, UpdateInput{Endpoint: &endpoint})
	require.NoError(t, err)
	assert.Equal(t, endpoint, updated.Endpoint)

	// Rename moves the row under the new id.
	rename := "ride-v2"
	updated, err = Update(db, created, UpdateInput{ServiceID: &rename})
	require.NoError(t, err)
	assert.Equal(t, "ride-v2", updated.ServiceID)

	_, err = Get(db, "ride")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRenameCollision(t *testing.T) {
	db := setupTestDB(t)

	first, err := Create(db, CreateInput{
		ServiceID: "first",
		Endpoint:  "https://example.com",
		SecretKey: "super-secret-signing-key",
	})
	require.NoError(t, err)

	_, err = Create(db, CreateInput{
		ServiceID: "second",
		Endpoint:  "https://example.com",
		SecretKey: "super-secret-signing-key",
	})
	require.NoError(t, err)

	rename := "second"
	_, err = Update(db, first, UpdateInput{ServiceID: &rename})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)

	created, err := Create(db, CreateInput{
		ServiceID: "ride",
		Endpoint:  "https://ride.example.com",
		SecretKey: "super-secret-signing-key",
	})
	require.NoError(t, err)

	require.NoError(t, Delete(db, created))

	_, err = Get(db, "ride")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteBlockedByPermissions(t *testing.T) {
	db := setupTestDB(t)

	created, err := Create(db, CreateInput{
		ServiceID: "ride",
		Endpoint:  "https://ride.example.com",
		SecretKey: "super-secret-signing-key",
	})
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.Permission{
		PermissionID: "ride.start",
		ServiceID:    "ride",
		Name:         "Start",
	}).Error)

	err = Delete(db, created)
	assert.ErrorIs(t, err, ErrHasPermissions)

	// The blocking permissions ride along in the error details.
	var opErr *opcode.Error
	require.ErrorAs(t, err, &opErr)
	details, ok := opErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, details["permissions"], 1)

	_, err = Get(db, "ride")
	assert.NoError(t, err)
}
