// Package user provides CRUD operations for user accounts and their
// authentication methods.
package user

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orangelab-kr/backoffice-api/internal/db/models"
	"github.com/orangelab-kr/backoffice-api/internal/web/opcode"
)

var (
	// ErrNotFound is returned when the user does not exist.
	ErrNotFound = opcode.New(opcode.NotFound, "user not found")
	// ErrEmailTaken is returned when the email is already in use.
	ErrEmailTaken = opcode.New(opcode.AlreadyExists, "email is already in use")
	// ErrPhoneTaken is returned when the phone number is already in use.
	ErrPhoneTaken = opcode.New(opcode.AlreadyExists, "phone number is already in use")
	// ErrPermissionGroupNotFound is returned when the referenced group does not exist.
	ErrPermissionGroupNotFound = opcode.New(opcode.NotFound, "permission group not found")
	// ErrInvalidOrderBy is returned for a field outside the order whitelist.
	ErrInvalidOrderBy = opcode.New(opcode.ValidationFailed, "invalid order field or direction")
)

// hydrate preloads the permission group together with its permissions so
// callers always receive the full permission set in one read.
func hydrate(db *gorm.DB) *gorm.DB {
	return db.Preload("PermissionGroup.Permissions")
}

// Get retrieves a user by id with its permission group fully hydrated.
func Get(db *gorm.DB, userID string) (*models.User, error) {
	var user models.User
	if err := hydrate(db).Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// GetByEmail retrieves a hydrated user by email.
func GetByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := hydrate(db).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// GetByPhone retrieves a hydrated user by phone number.
func GetByPhone(db *gorm.DB, phone string) (*models.User, error) {
	var user models.User
	if err := hydrate(db).Where("phone = ?", phone).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// ListOptions control pagination, search and ordering of List.
type ListOptions struct {
	Take     int
	Skip     int
	Search   string
	OrderBy  string // username or createdAt
	OrderDir string // asc or desc
}

var orderFields = map[string]string{
	"username":  "username",
	"createdAt": "created_at",
}

// List returns a page of users and the total count under the same filter.
// Count and page are read inside one transaction so they stay consistent
// with each other even under concurrent inserts.
func List(db *gorm.DB, opts ListOptions) ([]models.User, int64, error) {
	var (
		users []models.User
		total int64
	)

	if opts.Take == 0 {
		opts.Take = 10
	}
	if opts.OrderBy == "" {
		opts.OrderBy = "username"
	}
	if opts.OrderDir == "" {
		opts.OrderDir = "asc"
	}

	column, ok := orderFields[opts.OrderBy]
	if !ok || (opts.OrderDir != "asc" && opts.OrderDir != "desc") {
		return nil, 0, ErrInvalidOrderBy
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.User{})
		if opts.Search != "" {
			like := "%" + opts.Search + "%"
			query = query.Where("username LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like)
		}

		if err := query.Count(&total).Error; err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}

		return hydrate(query).
			Order(column + " " + opts.OrderDir).
			Limit(opts.Take).
			Offset(opts.Skip).
			Find(&users).Error
	})
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// CreateInput is the payload for Create.
type CreateInput struct {
	Username          string
	Email             string
	Phone             string
	Password          string
	PermissionGroupID string
}

// Create creates a user together with its local authentication method.
func Create(db *gorm.DB, in CreateInput) (*models.User, error) {
	if exists, err := existsEmail(db, in.Email); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrEmailTaken
	}

	if exists, err := existsPhone(db, in.Phone); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrPhoneTaken
	}

	if err := groupExists(db, in.PermissionGroupID); err != nil {
		return nil, err
	}

	user := models.User{
		UserID:            uuid.NewString(),
		Username:          in.Username,
		Email:             in.Email,
		Phone:             in.Phone,
		PermissionGroupID: in.PermissionGroupID,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		method := models.Method{
			UserID:   user.UserID,
			Provider: models.MethodProviderLocal,
			Identity: models.HashPassword(in.Password),
		}

		if err := tx.Create(&method).Error; err != nil {
			return fmt.Errorf("failed to create method: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return Get(db, user.UserID)
}

// UpdateInput is the payload for Update. Nil fields are left untouched.
type UpdateInput struct {
	Username          *string
	Email             *string
	Phone             *string
	Password          *string
	PermissionGroupID *string
}

// Update modifies a user. A password change replaces the local method row
// (delete then create) inside one transaction so no reader can observe a
// user without a valid credential.
func Update(db *gorm.DB, user *models.User, in UpdateInput) (*models.User, error) {
	if in.Email != nil && *in.Email != user.Email {
		if exists, err := existsEmail(db, *in.Email); err != nil {
			return nil, err
		} else if exists {
			return nil, ErrEmailTaken
		}
	}

	if in.Phone != nil && *in.Phone != user.Phone {
		if exists, err := existsPhone(db, *in.Phone); err != nil {
			return nil, err
		} else if exists {
			return nil, ErrPhoneTaken
		}
	}

	if in.PermissionGroupID != nil {
		if err := groupExists(db, *in.PermissionGroupID); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{}
	if in.Username != nil {
		updates["username"] = *in.Username
	}
	if in.Email != nil {
		updates["email"] = *in.Email
	}
	if in.Phone != nil {
		updates["phone"] = *in.Phone
	}
	if in.PermissionGroupID != nil {
		updates["permission_group_id"] = *in.PermissionGroupID
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.User{}).
				Where("user_id = ?", user.UserID).
				Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}
		}

		if in.Password != nil {
			provider := models.MethodProviderLocal
			if err := tx.Where("user_id = ? AND provider = ?", user.UserID, provider).
				Delete(&models.Method{}).Error; err != nil {
				return fmt.Errorf("failed to delete method: %w", err)
			}

			method := models.Method{
				UserID:   user.UserID,
				Provider: provider,
				Identity: models.HashPassword(*in.Password),
			}

			if err := tx.Create(&method).Error; err != nil {
				return fmt.Errorf("failed to create method: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return Get(db, user.UserID)
}

// Delete removes a user together with its sessions and methods.
func Delete(db *gorm.DB, user *models.User) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.UserID).
			Delete(&models.Session{}).Error; err != nil {
			return fmt.Errorf("failed to delete sessions: %w", err)
		}

		if err := tx.Where("user_id = ?", user.UserID).
			Delete(&models.Method{}).Error; err != nil {
			return fmt.Errorf("failed to delete methods: %w", err)
		}

		if err := tx.Where("user_id = ?", user.UserID).
			Delete(&models.User{}).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		return nil
	})
}

func existsEmail(db *gorm.DB, email string) (bool, error) {
	var count int64
	if err := db.Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}

	return count > 0, nil
}

func existsPhone(db *gorm.DB, phone string) (bool, error) {
	var count int64
	if err := db.Model(&models.User{}).
		Where("phone = ?", phone).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check phone: %w", err)
	}

	return count > 0, nil
}

func groupExists(db *gorm.DB, permissionGroupID string) error {
	var count int64
	if err := db.Model(&models.PermissionGroup{}).
		Where("permission_group_id = ?", permissionGroupID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check permission group: %w", err)
	}

	if count == 0 {
		return ErrPermissionGroupNotFound
	}

	return nil
}
