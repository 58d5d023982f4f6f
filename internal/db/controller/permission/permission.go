// Package permission provides CRUD operations for per-service permissions.
package permission

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orangelab-kr/backoffice-api/internal/db/models"
	"github.com/orangelab-kr/backoffice-api/internal/web/opcode"
)

// MaxIndex is the highest valid bit position of a token permission.
// The token bitmask is exactly 128 bits wide.
const MaxIndex = 127

var (
	// ErrNotFound is returned when the permission does not exist.
	ErrNotFound = opcode.New(opcode.NotFound, "permission not found")
	// ErrAlreadyExists is returned when the permission id is already registered.
	ErrAlreadyExists = opcode.New(opcode.AlreadyExists, "permission already exists")
	// ErrServiceNotFound is returned when the owning service does not exist.
	ErrServiceNotFound = opcode.New(opcode.NotFound, "service not found")
	// ErrIndexOutOfRange is returned for an index outside [0,127].
	ErrIndexOutOfRange = opcode.New(opcode.ValidationFailed, "permission index must be between 0 and 127")
	// ErrIndexTaken is returned when another permission of the same service
	// already occupies the index. Two permissions sharing a bit position
	// would collapse the token bitmask silently.
	ErrIndexTaken = opcode.New(opcode.AlreadyExists, "permission index is already in use for this service")
	// ErrInvalidOrderBy is returned for a field outside the order whitelist.
	ErrInvalidOrderBy = opcode.New(opcode.ValidationFailed, "invalid order field or direction")
)

// Get retrieves a permission by id.
func Get(db *gorm.DB, permissionID string) (*models.Permission, error) {
	var permission models.Permission
	if err := db.Where("permission_id = ?", permissionID).
		First(&permission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query permission: %w", err)
	}

	return &permission, nil
}

// ListOptions control pagination, search and ordering of List.
type ListOptions struct {
	Take     int
	Skip     int
	Search   string
	OrderBy  string // permissionId, name or createdAt
	OrderDir string // asc or desc
}

var orderFields = map[string]string{
	"permissionId": "permission_id",
	"name":         "name",
	"createdAt":    "created_at",
}

// List returns a page of permissions and the total count under the same
// filter, read inside one transaction.
func List(db *gorm.DB, opts ListOptions) ([]models.Permission, int64, error) {
	var (
		permissions []models.Permission
		total       int64
	)

	if opts.Take == 0 {
		opts.Take = 10
	}
	if opts.OrderBy == "" {
		opts.OrderBy = "name"
	}
	if opts.OrderDir == "" {
		opts.OrderDir = "asc"
	}

	column, ok := orderFields[opts.OrderBy]
	if !ok || (opts.OrderDir != "asc" && opts.OrderDir != "desc") {
		return nil, 0, ErrInvalidOrderBy
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.Permission{})
		if opts.Search != "" {
			like := "%" + opts.Search + "%"
			query = query.Where("permission_id LIKE ? OR name LIKE ?", like, like)
		}

		if err := query.Count(&total).Error; err != nil {
			return fmt.Errorf("failed to count permissions: %w", err)
		}

		return query.Order(column + " " + opts.OrderDir).
			Limit(opts.Take).
			Offset(opts.Skip).
			Find(&permissions).Error
	})
	if err != nil {
		return nil, 0, err
	}

	return permissions, total, nil
}

// CreateInput is the payload for Create.
type CreateInput struct {
	PermissionID string
	ServiceID    string
	Name         string
	Description  string
	Index        *int
}

// Create registers a new permission inside one service's namespace.
func Create(db *gorm.DB, in CreateInput) (*models.Permission, error) {
	if _, err := Get(db, in.PermissionID); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if err := serviceExists(db, in.ServiceID); err != nil {
		return nil, err
	}

	if err := checkIndex(db, in.ServiceID, "", in.Index); err != nil {
		return nil, err
	}

	permission := models.Permission{
		PermissionID: in.PermissionID,
		ServiceID:    in.ServiceID,
		Name:         in.Name,
		Description:  in.Description,
		Index:        in.Index,
	}

	if err := db.Create(&permission).Error; err != nil {
		return nil, fmt.Errorf("failed to create permission: %w", err)
	}

	return &permission, nil
}

// UpdateInput is the payload for Update. Nil fields are left untouched;
// SetIndex marks that Index should be written (including back to null).
type UpdateInput struct {
	Name        *string
	Description *string
	Index       *int
	SetIndex    bool
}

// Update modifies a permission.
func Update(db *gorm.DB, permission *models.Permission, in UpdateInput) (*models.Permission, error) {
	if in.SetIndex {
		if err := checkIndex(db, permission.ServiceID, permission.PermissionID, in.Index); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.SetIndex {
		updates["bit_index"] = in.Index
	}

	if len(updates) > 0 {
		if err := db.Model(&models.Permission{}).
			Where("permission_id = ?", permission.PermissionID).
			Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update permission: %w", err)
		}
	}

	return Get(db, permission.PermissionID)
}

// Delete removes a permission and its group associations.
func Delete(db *gorm.DB, permission *models.Permission) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM permission_group_permissions WHERE permission_id = ?",
			permission.PermissionID,
		).Error; err != nil {
			return fmt.Errorf("failed to delete group associations: %w", err)
		}

		if err := tx.Where("permission_id = ?", permission.PermissionID).
			Delete(&models.Permission{}).Error; err != nil {
			return fmt.Errorf("failed to delete permission: %w", err)
		}

		return nil
	})
}

// checkIndex validates the range and per-service uniqueness of an index.
func checkIndex(db *gorm.DB, serviceID, selfID string, index *int) error {
	if index == nil {
		return nil
	}

	if *index < 0 || *index > MaxIndex {
		return ErrIndexOutOfRange
	}

	query := db.Model(&models.Permission{}).
		Where("service_id = ? AND bit_index = ?", serviceID, *index)
	if selfID != "" {
		query = query.Where("permission_id <> ?", selfID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check permission index: %w", err)
	}

	if count > 0 {
		return ErrIndexTaken
	}

	return nil
}

func serviceExists(db *gorm.DB, serviceID string) error {
	var count int64
	if err := db.Model(&models.Service{}).
		Where("service_id = ?", serviceID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check service: %w", err)
	}

	if count == 0 {
		return ErrServiceNotFound
	}

	return nil
}
