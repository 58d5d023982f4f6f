package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/orangelab-kr/backoffice-api/internal/db/models"
)

// TokenExpiry is the fixed lifetime of issued access tokens.
const TokenExpiry = time.Hour

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// TokenIssuer builds signed access tokens for a (user, service) pair.
type TokenIssuer struct {
	db     *gorm.DB
	issuer string
}

// NewTokenIssuer creates a token issuer using the given issuer identity
// for the iss claim.
func NewTokenIssuer(db *gorm.DB, issuer string) *TokenIssuer {
	return &TokenIssuer{db: db, issuer: issuer}
}

// Issue creates an HS256 signed token embedding the user's encoded
// permission mask for the service. The service must have been loaded
// through the with-secret read path.
func (t *TokenIssuer) Issue(user *models.User, svc *models.Service) (string, error) {
	if svc.SecretKey == "" {
		return "", ErrServiceSecretMissing
	}

	permissions, err := t.servicePermissions(user, svc.ServiceID)
	if err != nil {
		return "", err
	}

	prs, err := EncodePermissions(permissions)
	if err != nil {
		return "", err
	}

	now := NowTimeFunc()
	claims := jwt.MapClaims{
		"sub": svc.ServiceID,
		"iss": t.issuer,
		"aud": user.Email,
		"prs": prs,
		"iat": now.Unix(),
		"exp": now.Add(TokenExpiry).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(svc.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return token, nil
}

// servicePermissions loads the permissions of the user's group scoped to
// one service, filtered to token permissions (non-null index).
func (t *TokenIssuer) servicePermissions(user *models.User, serviceID string) ([]models.Permission, error) {
	var permissions []models.Permission

	err := t.db.Model(&models.Permission{}).
		Joins("JOIN permission_group_permissions pgp ON pgp.permission_id = permissions.permission_id").
		Where("pgp.permission_group_id = ?", user.PermissionGroupID).
		Where("permissions.service_id = ?", serviceID).
		Where("permissions.bit_index IS NOT NULL").
		Find(&permissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query token permissions: %w", err)
	}

	return permissions, nil
}
