package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/orangelab-kr/backoffice-api/internal/db/models"
)

const testIssuer = "backoffice-test"

// seedTokenFixture creates a service with two indexed permissions and one
// administrative permission, all granted to the user's group.
func seedTokenFixture(t *testing.T, db *gorm.DB, user *models.User) *models.Service {
	t.Helper()

	svc := models.Service{
		ServiceID: "ride",
		Endpoint:  "https://ride.example.com",
		SecretKey: "super-secret-signing-key",
	}
	require.NoError(t, db.Create(&svc).Error)

	zero, one := 0, 1
	permissions := []models.Permission{
		{PermissionID: "ride.start", ServiceID: svc.ServiceID, Name: "Start", Index: &zero},
		{PermissionID: "ride.stop", ServiceID: svc.ServiceID, Name: "Stop", Index: &one},
		{PermissionID: "ride.admin", ServiceID: svc.ServiceID, Name: "Admin", Index: nil},
	}

	for i := range permissions {
		require.NoError(t, db.Create(&permissions[i]).Error)
		require.NoError(t, db.Exec(
			"INSERT INTO permission_group_permissions (permission_group_id, permission_id) VALUES (?, ?)",
			user.PermissionGroupID, permissions[i].PermissionID,
		).Error)
	}

	return &svc
}

func parseToken(t *testing.T, token, secret string) jwt.MapClaims {
	t.Helper()

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return NowTimeFunc() }))
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)

	return claims
}

func TestIssue(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "correct horse battery")
	svc := seedTokenFixture(t, db, user)

	frozen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	NowTimeFunc = func() time.Time { return frozen }
	defer func() { NowTimeFunc = time.Now }()

	issuer := NewTokenIssuer(db, testIssuer)

	token, err := issuer.Issue(user, svc)
	require.NoError(t, err)

	claims := parseToken(t, token, svc.SecretKey)

	assert.Equal(t, svc.ServiceID, claims["sub"])
	assert.Equal(t, testIssuer, claims["iss"])
	assert.Equal(t, user.Email, claims["aud"])
	assert.Equal(t, float64(frozen.Unix()), claims["iat"])
	assert.Equal(t, float64(frozen.Add(TokenExpiry).Unix()), claims["exp"])

	// Indices 0 and 1 set the two highest bits; the administrative
	// permission without an index never reaches the mask.
	indices, err := DecodePermissionMask(claims["prs"].(string))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, indices)
}

func TestIssueNoPermissions(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "correct horse battery")

	svc := models.Service{
		ServiceID: "empty",
		Endpoint:  "https://empty.example.com",
		SecretKey: "another-signing-key",
	}
	require.NoError(t, db.Create(&svc).Error)

	issuer := NewTokenIssuer(db, testIssuer)

	token, err := issuer.Issue(user, &svc)
	require.NoError(t, err)

	claims := parseToken(t, token, svc.SecretKey)
	assert.Equal(t, "0", claims["prs"])
}

// Permissions of other services must not leak into the mask.
func TestIssueScopedToService(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "correct horse battery")
	svc := seedTokenFixture(t, db, user)

	other := models.Service{
		ServiceID: "other",
		Endpoint:  "https://other.example.com",
		SecretKey: "other-signing-key",
	}
	require.NoError(t, db.Create(&other).Error)

	five := 5
	foreign := models.Permission{
		PermissionID: "other.use",
		ServiceID:    other.ServiceID,
		Name:         "Use",
		Index:        &five,
	}
	require.NoError(t, db.Create(&foreign).Error)
	require.NoError(t, db.Exec(
		"INSERT INTO permission_group_permissions (permission_group_id, permission_id) VALUES (?, ?)",
		user.PermissionGroupID, foreign.PermissionID,
	).Error)

	issuer := NewTokenIssuer(db, testIssuer)

	token, err := issuer.Issue(user, svc)
	require.NoError(t, err)

	claims := parseToken(t, token, svc.SecretKey)
	indices, err := DecodePermissionMask(claims["prs"].(string))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, indices)
}

func TestIssueMissingSecret(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "correct horse battery")

	issuer := NewTokenIssuer(db, testIssuer)

	_, err := issuer.Issue(user, &models.Service{ServiceID: "bare"})
	assert.ErrorIs(t, err, ErrServiceSecretMissing)
}
