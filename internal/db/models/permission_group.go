package models

import "time"

// PermissionGroup is a named set of permissions assigned to users.
// A group cannot be deleted while any user references it.
type PermissionGroup struct {
	// PermissionGroupID is the unique identifier for the group (UUID).
	PermissionGroupID string `gorm:"primaryKey;size:36" json:"permissionGroupId"`
	// Name is the display name of the group.
	Name string `gorm:"size:32;not null" json:"name"`
	// Description explains the purpose of the group.
	Description string `gorm:"size:128" json:"description"`
	// Permissions are the permissions granted by this group.
	Permissions []Permission `gorm:"many2many:permission_group_permissions;foreignKey:PermissionGroupID;joinForeignKey:PermissionGroupID;references:PermissionID;joinReferences:PermissionID" json:"permissions"`
	// CreatedAt is the timestamp when the group was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the group was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the PermissionGroup model.
func (PermissionGroup) TableName() string {
	return "permission_groups"
}
