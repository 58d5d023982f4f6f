// Package service provides CRUD operations for tenant services.
//
// The secret key of a service signs access tokens issued for it. Normal
// reads never select the column; callers that really need it ask for it
// explicitly via GetWithSecretKey. The projection is a per-call choice,
// never shared state.
package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orangelab-kr/backoffice-api/internal/db/models"
	"github.com/orangelab-kr/backoffice-api/internal/web/opcode"
)

var (
	// ErrNotFound is returned when the service does not exist.
	ErrNotFound = opcode.New(opcode.NotFound, "service not found")
	// ErrAlreadyExists is returned when a service with the same name exists.
	ErrAlreadyExists = opcode.New(opcode.AlreadyExists, "a service with the same name already exists")
	// ErrHasPermissions is returned when deleting a service that still owns permissions.
	ErrHasPermissions = opcode.New(opcode.Err, "service still owns permissions")
	// ErrInvalidOrderBy is returned for a field outside the order whitelist.
	ErrInvalidOrderBy = opcode.New(opcode.ValidationFailed, "invalid order field or direction")
)

// publicColumns is the default projection; the secret key is excluded.
var publicColumns = []string{"service_id", "endpoint", "created_at", "updated_at"}

// Get retrieves a service by id without its secret key.
func Get(db *gorm.DB, serviceID string) (*models.Service, error) {
	return get(db, serviceID, false)
}

// GetWithSecretKey retrieves a service by id including its secret key.
// This is the only read path that loads the key; use it for token
// issuance and nothing else.
func GetWithSecretKey(db *gorm.DB, serviceID string) (*models.Service, error) {
	return get(db, serviceID, true)
}

func get(db *gorm.DB, serviceID string, withSecretKey bool) (*models.Service, error) {
	query := db.Where("service_id = ?", serviceID)
	if !withSecretKey {
		query = query.Select(publicColumns)
	}

	var service models.Service
	if err := query.First(&service).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query service: %w", err)
	}

	return &service, nil
}

// ListOptions control pagination, search and ordering of List.
type ListOptions struct {
	Take     int
	Skip     int
	Search   string
	OrderBy  string // createdAt
	OrderDir string // asc or desc
}

// List returns a page of services (without secret keys) and the total
// count under the same filter, read inside one transaction.
func List(db *gorm.DB, opts ListOptions) ([]models.Service, int64, error) {
	var (
		services []models.Service
		total    int64
	)

	if opts.Take == 0 {
		opts.Take = 10
	}
	if opts.OrderBy == "" {
		opts.OrderBy = "createdAt"
	}
	if opts.OrderDir == "" {
		opts.OrderDir = "desc"
	}

	if opts.OrderBy != "createdAt" || (opts.OrderDir != "asc" && opts.OrderDir != "desc") {
		return nil, 0, ErrInvalidOrderBy
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.Service{})
		if opts.Search != "" {
			query = query.Where("service_id LIKE ?", "%"+opts.Search+"%")
		}

		if err := query.Count(&total).Error; err != nil {
			return fmt.Errorf("failed to count services: %w", err)
		}

		return query.Select(publicColumns).
			Order("created_at " + opts.OrderDir).
			Limit(opts.Take).
			Offset(opts.Skip).
			Find(&services).Error
	})
	if err != nil {
		return nil, 0, err
	}

	return services, total, nil
}

// CreateInput is the payload for Create.
type CreateInput struct {
	ServiceID string
	Endpoint  string
	SecretKey string
}

// Create registers a new service.
func Create(db *gorm.DB, in CreateInput) (*models.Service, error) {
	if _, err := Get(db, in.ServiceID); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	service := models.Service{
		ServiceID: in.ServiceID,
		Endpoint:  in.Endpoint,
		SecretKey: in.SecretKey,
	}

	if err := db.Create(&service).Error; err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	return Get(db, in.ServiceID)
}

// UpdateInput is the payload for Update. Nil fields are left untouched.
type UpdateInput struct {
	ServiceID *string
	Endpoint  *string
	SecretKey *string
}

// Update modifies a service; renames are checked for collisions.
func Update(db *gorm.DB, svc *models.Service, in UpdateInput) (*models.Service, error) {
	serviceID := svc.ServiceID

	if in.ServiceID != nil && *in.ServiceID != svc.ServiceID {
		if _, err := Get(db, *in.ServiceID); err == nil {
			return nil, ErrAlreadyExists
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		serviceID = *in.ServiceID
	}

	updates := map[string]interface{}{}
	if in.ServiceID != nil {
		updates["service_id"] = *in.ServiceID
	}
	if in.Endpoint != nil {
		updates["endpoint"] = *in.Endpoint
	}
	if in.SecretKey != nil {
		updates["secret_key"] = *in.SecretKey
	}

	if len(updates) > 0 {
		if err := db.Model(&models.Service{}).
			Where("service_id = ?", svc.ServiceID).
			Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update service: %w", err)
		}
	}

	return Get(db, serviceID)
}

// Delete removes a service. It refuses to delete while the service still
// owns permissions and lists them in the error details instead of
// cascading.
func Delete(db *gorm.DB, svc *models.Service) error {
	var permissions []models.Permission
	if err := db.Where("service_id = ?", svc.ServiceID).
		Find(&permissions).Error; err != nil {
		return fmt.Errorf("failed to query permissions: %w", err)
	}

	if len(permissions) > 0 {
		return ErrHasPermissions.WithDetails(map[string]interface{}{
			"permissions": permissions,
		})
	}

	if err := db.Where("service_id = ?", svc.ServiceID).
		Delete(&models.Service{}).Error; err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}

	return nil
}
