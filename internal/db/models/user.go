package models

import "time"

// User represents an identity record in the backoffice.
// Every user belongs to exactly one permission group which determines
// what the user may do, both for first-party API access and for access
// tokens issued towards external services.
type User struct {
	// UserID is the unique identifier for the user (UUID).
	UserID string `gorm:"primaryKey;size:36" json:"userId"`
	// Username is the display name of the user.
	Username string `gorm:"size:32;not null" json:"username"`
	// Email is the unique login email address.
	Email string `gorm:"unique;size:255;not null" json:"email"`
	// Phone is the unique login phone number in +<digits> form.
	Phone string `gorm:"unique;size:32;not null" json:"phone"`
	// PermissionGroupID references the permission group of this user.
	PermissionGroupID string `gorm:"size:36;not null" json:"permissionGroupId"`
	// PermissionGroup is the associated group (preload together with its
	// permissions to get a fully hydrated permission set).
	PermissionGroup PermissionGroup `gorm:"foreignKey:PermissionGroupID;references:PermissionGroupID" json:"permissionGroup,omitempty"`
	// Methods are the authentication methods of this user. Never serialized.
	Methods []Method `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE" json:"-"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}
