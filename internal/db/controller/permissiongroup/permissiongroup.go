// Package permissiongroup provides CRUD operations for permission groups.
package permissiongroup

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orangelab-kr/backoffice-api/internal/db/models"
	"github.com/orangelab-kr/backoffice-api/internal/web/opcode"
)

var (
	// ErrNotFound is returned when the permission group does not exist.
	ErrNotFound = opcode.New(opcode.NotFound, "permission group not found")
	// ErrPermissionNotFound is returned when a referenced permission does not exist.
	ErrPermissionNotFound = opcode.New(opcode.NotFound, "permission not found")
	// ErrInUse is returned when deleting a group that users still reference.
	// The error details list the blocking users.
	ErrInUse = opcode.New(opcode.Err, "permission group is still referenced by users")
	// ErrInvalidOrderBy is returned for a field outside the order whitelist.
	ErrInvalidOrderBy = opcode.New(opcode.ValidationFailed, "invalid order field or direction")
)

// Get retrieves a group by id together with its permissions.
func Get(db *gorm.DB, permissionGroupID string) (*models.PermissionGroup, error) {
	var group models.PermissionGroup
	if err := db.Preload("Permissions").
		Where("permission_group_id = ?", permissionGroupID).
		First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query permission group: %w", err)
	}

	return &group, nil
}

// ListOptions control pagination, search and ordering of List.
type ListOptions struct {
	Take     int
	Skip     int
	Search   string
	OrderBy  string // permissionGroupId, name or createdAt
	OrderDir string // asc or desc
}

var orderFields = map[string]string{
	"permissionGroupId": "permission_group_id",
	"name":              "name",
	"createdAt":         "created_at",
}

// List returns a page of groups (with permissions) and the total count
// under the same filter, read inside one transaction.
func List(db *gorm.DB, opts ListOptions) ([]models.PermissionGroup, int64, error) {
	var (
		groups []models.PermissionGroup
		total  int64
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
		query := tx.Model(&models.PermissionGroup{})
		if opts.Search != "" {
			query = query.Where("name LIKE ?", "%"+opts.Search+"%")
		}

		if err := query.Count(&total).Error; err != nil {
			return fmt.Errorf("failed to count permission groups: %w", err)
		}

		return query.Preload("Permissions").
			Order(column + " " + opts.OrderDir).
			Limit(opts.Take).
			Offset(opts.Skip).
			Find(&groups).Error
	})
	if err != nil {
		return nil, 0, err
	}

	return groups, total, nil
}

// CreateInput is the payload for Create.
type CreateInput struct {
	Name          string
	Description   string
	PermissionIDs []string
}

// Create registers a new permission group connecting the given permissions.
func Create(db *gorm.DB, in CreateInput) (*models.PermissionGroup, error) {
	permissions, err := resolvePermissions(db, in.PermissionIDs)
	if err != nil {
		return nil, err
	}

	group := models.PermissionGroup{
		PermissionGroupID: uuid.NewString(),
		Name:              in.Name,
		Description:       in.Description,
		Permissions:       permissions,
	}

	if err := db.Create(&group).Error; err != nil {
		return nil, fmt.Errorf("failed to create permission group: %w", err)
	}

	return Get(db, group.PermissionGroupID)
}

// UpdateInput is the payload for Update. Nil fields are left untouched;
// a non-nil PermissionIDs replaces the association set.
type UpdateInput struct {
	Name          *string
	Description   *string
	PermissionIDs []string
}

// Update modifies a permission group.
func Update(db *gorm.DB, group *models.PermissionGroup, in UpdateInput) (*models.PermissionGroup, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.PermissionGroup{}).
				Where("permission_group_id = ?", group.PermissionGroupID).
				Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update permission group: %w", err)
			}
		}

		if in.PermissionIDs != nil {
			permissions, err := resolvePermissions(tx, in.PermissionIDs)
			if err != nil {
				return err
			}

			if err := tx.Model(group).
				Association("Permissions").
				Replace(permissions); err != nil {
				return fmt.Errorf("failed to replace permissions: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return Get(db, group.PermissionGroupID)
}

// Delete removes a permission group. It refuses to delete while any user
// references the group and lists the blocking users in the error details.
func Delete(db *gorm.DB, group *models.PermissionGroup) error {
	var users []models.User
	if err := db.Where("permission_group_id = ?", group.PermissionGroupID).
		Find(&users).Error; err != nil {
		return fmt.Errorf("failed to query referencing users: %w", err)
	}

	if len(users) > 0 {
		return ErrInUse.WithDetails(map[string]interface{}{"users": users})
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM permission_group_permissions WHERE permission_group_id = ?",
			group.PermissionGroupID,
		).Error; err != nil {
			return fmt.Errorf("failed to delete permission associations: %w", err)
		}

		if err := tx.Where("permission_group_id = ?", group.PermissionGroupID).
			Delete(&models.PermissionGroup{}).Error; err != nil {
			return fmt.Errorf("failed to delete permission group: %w", err)
		}

		return nil
	})
}

// resolvePermissions loads the given permission ids, failing when any of
// them is unknown (the missing ids end up in the error details).
func resolvePermissions(db *gorm.DB, permissionIDs []string) ([]models.Permission, error) {
	if len(permissionIDs) == 0 {
		return nil, nil
	}

	var permissions []models.Permission
	if err := db.Where("permission_id IN ?", permissionIDs).
		Find(&permissions).Error; err != nil {
		return nil, fmt.Errorf("failed to query permissions: %w", err)
	}

	if len(permissions) != len(permissionIDs) {
		found := make(map[string]bool, len(permissions))
		for _, p := range permissions {
			found[p.PermissionID] = true
		}

		var missing []string
		for _, id := range permissionIDs {
			if !found[id] {
				missing = append(missing, id)
			}
		}

		return nil, ErrPermissionNotFound.WithDetails(map[string]interface{}{
			"permissionIds": missing,
		})
	}

	return permissions, nil
}
