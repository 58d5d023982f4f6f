// Package models contains database model definitions.
package models

import "time"

// Service represents a tenant application consuming access tokens.
// Each service defines its own permission namespace and holds the secret
// key used to sign tokens issued for it.
type Service struct {
	// ServiceID is the unique tenant name.
	ServiceID string `gorm:"primaryKey;size:64" json:"serviceId"`
	// Endpoint is the base URI of the service.
	Endpoint string `gorm:"size:255;not null" json:"endpoint"`
	// SecretKey signs access tokens for this service. It is excluded from
	// JSON output and only loaded from the database on the explicit
	// with-secret read path.
	SecretKey string `gorm:"size:255;not null" json:"-"`
	// Permissions are the permissions owned by this service.
	Permissions []Permission `gorm:"foreignKey:ServiceID;references:ServiceID" json:"permissions,omitempty"`
	// CreatedAt is the timestamp when the service was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the service was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Service model.
func (Service) TableName() string {
	return "services"
}
