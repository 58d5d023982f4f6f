package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orangelab-kr/backoffice-api/internal/db/models"
	"github.com/orangelab-kr/backoffice-api/internal/web/opcode"
)

const (
	// sessionIDBytes is the entropy of a session identifier. The base64
	// encoding of 95 bytes is 128 characters.
	sessionIDBytes = 95

	// maxSessionIDAttempts bounds the collision retry loop. One draw
	// practically always suffices; the bound only guards against a
	// corrupted store handing back false collisions forever.
	maxSessionIDAttempts = 5
)

// Service provides authentication and session management.
type Service struct {
	db *gorm.DB

	// randRead is swappable for collision tests.
	randRead func(b []byte) (int, error)
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, randRead: rand.Read}
}

// AuthenticateByEmail authenticates a user by email and password.
func (s *Service) AuthenticateByEmail(email, password string) (*models.User, error) {
	return s.authenticate(func() (*models.User, error) {
		var user models.User
		err := s.db.Preload("PermissionGroup.Permissions").
			Where("email = ?", email).
			First(&user).Error

		return &user, err
	}, password)
}

// AuthenticateByPhone authenticates a user by phone number and password.
func (s *Service) AuthenticateByPhone(phone, password string) (*models.User, error) {
	return s.authenticate(func() (*models.User, error) {
		var user models.User
		err := s.db.Preload("PermissionGroup.Permissions").
			Where("phone = ?", phone).
			First(&user).Error

		return &user, err
	}, password)
}

// authenticate runs a user lookup and verifies the password of the local
// method. Every failure mode collapses into ErrInvalidCredentials.
func (s *Service) authenticate(lookup func() (*models.User, error), password string) (*models.User, error) {
	user, err := lookup()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	method, err := s.getMethod(user.UserID, models.MethodProviderLocal)
	if err != nil {
		return nil, err
	}

	if !method.VerifyPassword(password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// getMethod fetches one authentication method of a user. A missing
// method surfaces as ErrInvalidCredentials like every other auth failure.
func (s *Service) getMethod(userID string, provider models.MethodProvider) (*models.Method, error) {
	var method models.Method
	err := s.db.Where("user_id = ? AND provider = ?", userID, provider).
		First(&method).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to query method: %w", err)
	}

	return &method, nil
}

// CreateSession issues a new session for the user and returns its id.
func (s *Service) CreateSession(user *models.User, userAgent string) (string, error) {
	sessionID, err := s.generateSessionID()
	if err != nil {
		return "", err
	}

	session := models.Session{
		SessionID: sessionID,
		UserID:    user.UserID,
		UserAgent: userAgent,
	}

	if err := s.db.Create(&session).Error; err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	return sessionID, nil
}

// generateSessionID draws 95 random bytes, base64 encodes them and
// re-draws while the identifier already exists in the store.
func (s *Service) generateSessionID() (string, error) {
	buf := make([]byte, sessionIDBytes)

	for attempt := 0; attempt < maxSessionIDAttempts; attempt++ {
		if _, err := s.randRead(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}

		sessionID := base64.StdEncoding.EncodeToString(buf)

		var count int64
		if err := s.db.Model(&models.Session{}).
			Where("session_id = ?", sessionID).
			Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check session id: %w", err)
		}

		if count == 0 {
			return sessionID, nil
		}
	}

	return "", ErrSessionIDExhausted
}

// RevokeAll deletes every session of the user in one statement.
func (s *Service) RevokeAll(user *models.User) error {
	if err := s.db.Where("user_id = ?", user.UserID).
		Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	return nil
}

// ResolveSession fetches a session and hydrates the owning user with its
// permission group and full permission list in a single call.
func (s *Service) ResolveSession(sessionID string) (*models.Session, error) {
	var session models.Session
	err := s.db.Preload("User.PermissionGroup.Permissions").
		Where("session_id = ?", sessionID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return &session, nil
}

// HasPermissions checks that the hydrated user holds every required
// permission id, failing with AccessDenied naming the first missing one.
func (s *Service) HasPermissions(user *models.User, required ...string) error {
	held := make(map[string]bool, len(user.PermissionGroup.Permissions))
	for _, permission := range user.PermissionGroup.Permissions {
		held[permission.PermissionID] = true
	}

	for _, permissionID := range required {
		if !held[permissionID] {
			return opcode.New(opcode.AccessDenied,
				fmt.Sprintf("access denied (%s)", permissionID))
		}
	}

	return nil
}
