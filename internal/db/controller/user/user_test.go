package user

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/orangelab-kr/backoffice-api/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.User{},
		&models.Method{},
		&models.Session{},
		&models.Permission{},
		&models.PermissionGroup{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func seedGroup(t *testing.T, db *gorm.DB) *models.PermissionGroup {
	t.Helper()

	group := models.PermissionGroup{
		PermissionGroupID: "00000000-0000-0000-0000-000000000001",
		Name:              "testers",
	}
	require.NoError(t, db.Create(&group).Error)

	return &group
}

func TestCreate(t *testing.T) {
	db := setupTestDB(t)
	group := seedGroup(t, db)

	created, err := Create(db, CreateInput{
		Username:          "tester",
		Email:             "tester@example.com",
		Phone:             "+821012345678",
		Password:          "correct horse battery",
		PermissionGroupID: group.PermissionGroupID,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.UserID)
	assert.Equal(t, "testers", created.PermissionGroup.Name)

	// The local method exists and verifies the password.
	var method models.Method
	require.NoError(t, db.Where("user_id = ?", created.UserID).First(&method).Error)
	assert.True(t, method.VerifyPassword("correct horse battery"))
}

func TestCreateConflicts(t *testing.T) {
	db := setupTestDB(t)
	group := seedGroup(t, db)

	base := CreateInput{
		Username:          "tester",
		Email:             "tester@example.com",
		Phone:             "+821012345678",
		Password:          "correct horse battery",
		PermissionGroupID: group.PermissionGroupID,
	}

	_, err := Create(db, base)
	require.NoError(t, err)

	testCases := []struct {
		name     string
		mutate   func(in CreateInput) CreateInput
		expected error
	}{
		{
			name: "duplicate email",
			mutate: func(in CreateInput) CreateInput {
				in.Phone = "+821087654321"
				return in
			},
			expected: ErrEmailTaken,
		},
		{
			name: "duplicate phone",
			mutate: func(in CreateInput) CreateInput {
				in.Email = "other@example.com"
				return in
			},
			expected: ErrPhoneTaken,
		},
		{
			name: "unknown permission group",
			mutate: func(in CreateInput) CreateInput {
				in.Email = "other@example.com"
				in.Phone = "+821087654321"
				in.PermissionGroupID = "00000000-0000-0000-0000-00000000dead"
				return in
			},
			expected: ErrPermissionGroupNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Create(db, tc.mutate(base))
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestList(t *testing.T) {
	db := setupTestDB(t)
	group := seedGroup(t, db)

	for i := 0; i < 15; i++ {
		_, err := Create(db, CreateInput{
			Username:          fmt.Sprintf("user%02d", i),
			Email:             fmt.Sprintf("user%02d@example.com", i),
			Phone:             fmt.Sprintf("+8210123456%02d", i),
			Password:          "correct horse battery",
			PermissionGroupID: group.PermissionGroupID,
		})
		require.NoError(t, err)
	}

	// Default page size is 10, the total counts every match.
	users, total, err := List(db, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, users, 10)
	assert.EqualValues(t, 15, total)
	assert.Equal(t, "user00", users[0].Username)

	users, total, err = List(db, ListOptions{Take: 10, Skip: 10})
	require.NoError(t, err)
	assert.Len(t, users, 5)
	assert.EqualValues(t, 15, total)

	users, total, err = List(db, ListOptions{Search: "user03"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "user03", users[0].Username)

	users, _, err = List(db, ListOptions{OrderBy: "username", OrderDir: "desc"})
	require.NoError(t, err)
	assert.Equal(t, "user14", users[0].Username)

	_, _, err = List(db, ListOptions{OrderBy: "email"})
	assert.ErrorIs(t, err, ErrInvalidOrderBy)

	_, _, err = List(db, ListOptions{OrderDir: "sideways"})
	assert.ErrorIs(t, err, ErrInvalidOrderBy)
}

func TestUpdate(t *testing.T) {
	db := setupTestDB(t)
	group := seedGroup(t, db)

	created, err := Create(db, CreateInput{
		Username:          "tester",
		Email:             "tester@example.com",
		Phone:             "+821012345678",
		Password:          "correct horse battery",
		PermissionGroupID: group.PermissionGroupID,
	})
	require.NoError(t, err)

	username := "renamed"
	updated, err := Update(db, created, UpdateInput{Username: &username})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Username)
	assert.Equal(t, created.Email, updated.Email)
}

func TestUpdatePasswordReplacesMethod(t *testing.T) {
	db := setupTestDB(t)
	group := seedGroup(t, db)

	created, err := Create(db, CreateInput{
		Username:          "tester",
		Email:             "tester@example.com",
		Phone:             "+821012345678",
		Password:          "correct horse battery",
		PermissionGroupID: group.PermissionGroupID,
	})
	require.NoError(t, err)

	password := "a brand new password"
	_, err = Update(db, created, UpdateInput{Password: &password})
	require.NoError(t, err)

	// Exactly one local method remains and it holds the new password.
	var methods []models.Method
	require.NoError(t, db.Where("user_id = ?", created.UserID).Find(&methods).Error)
	require.Len(t, methods, 1)
	assert.True(t, methods[0].VerifyPassword("a brand new password"))
	assert.False(t, methods[0].VerifyPassword("correct horse battery"))
}

func TestUpdateConflicts(t *testing.T) {
	db := setupTestDB(t)
	group := seedGroup(t, db)

	first, err := Create(db, CreateInput{
		Username:          "first",
		Email:             "first@example.com",
		Phone:             "+821011111111",
		Password:          "correct horse battery",
		PermissionGroupID: group.PermissionGroupID,
	})
	require.NoError(t, err)

	_, err = Create(db, CreateInput{
		Username:          "second",
		Email:             "second@example.com",
		Phone:             "+821022222222",
		Password:          "correct horse battery",
		PermissionGroupID: group.PermissionGroupID,
	})
	require.NoError(t, err)

	email := "second@example.com"
	_, err = Update(db, first, UpdateInput{Email: &email})
	assert.ErrorIs(t, err, ErrEmailTaken)

	phone := "+821022222222"
	_, err = Update(db, first, UpdateInput{Phone: &phone})
	assert.ErrorIs(t, err, ErrPhoneTaken)

	groupID := "00000000-0000-0000-0000-00000000dead"
	_, err = Update(db, first, UpdateInput{PermissionGroupID: &groupID})
	assert.ErrorIs(t, err, ErrPermissionGroupNotFound)

	// Writing back the user's own email is not a conflict.
	own := "first@example.com"
	_, err = Update(db, first, UpdateInput{Email: &own})
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	group := seedGroup(t, db)

	created, err := Create(db, CreateInput{
		Username:          "tester",
		Email:             "tester@example.com",
		Phone:             "+821012345678",
		Password:          "correct horse battery",
		PermissionGroupID: group.PermissionGroupID,
	})
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.Session{
		SessionID: "some-session-id",
		UserID:    created.UserID,
	}).Error)

	require.NoError(t, Delete(db, created))

	_, err = Get(db, created.UserID)
	assert.ErrorIs(t, err, ErrNotFound)

	var sessions, methods int64
	db.Model(&models.Session{}).Where("user_id = ?", created.UserID).Count(&sessions)
	db.Model(&models.Method{}).Where("user_id = ?", created.UserID).Count(&methods)
	assert.Zero(t, sessions)
	assert.Zero(t, methods)
}
