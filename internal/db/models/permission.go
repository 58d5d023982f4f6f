package models

import "time"

// Permission represents a single right inside one service's namespace.
// Permissions with a non-null Index take part in token bitmask encoding;
// a null Index marks a server-side-only permission that never appears in
// an access token.
type Permission struct {
	// PermissionID is the unique identifier for the permission (UUID).
	PermissionID string `gorm:"primaryKey;size:36" json:"permissionId"`
	// ServiceID references the owning service.
	ServiceID string `gorm:"size:64;index" json:"serviceId"`
	// Name is the display name of the permission.
	Name string `gorm:"size:32;not null" json:"name"`
	// Description explains what the permission grants.
	Description string `gorm:"size:128" json:"description"`
	// Index is the bit position in [0,127] used for token encoding, or
	// null for permissions that are checked server-side only. Unique
	// within one service (enforced at write time). Stored as bit_index
	// because index is a reserved word in MySQL.
	Index *int `gorm:"column:bit_index" json:"index"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}
