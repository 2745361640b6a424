package roles

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pixcheckout/pkg/db"
	"github.com/angelmondragon/pixcheckout/pkg/db/models"
	"github.com/angelmondragon/pixcheckout/pkg/enums"
	pkgerrors "github.com/angelmondragon/pixcheckout/pkg/errors"
)

// Repository exposes user_roles persistence operations.
type Repository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewRepository binds the repo to the provided GORM connection. A positive
// timeout bounds every query.
func NewRepository(conn *gorm.DB, timeout time.Duration) *Repository {
	return &Repository{db: conn, timeout: timeout}
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// CountRoles returns how many user_roles rows match the user and role.
func (r *Repository) CountRoles(ctx context.Context, userID uuid.UUID, role enums.AppRole) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count user roles")
	}
	return count, nil
}

// ListRoles returns the roles held by the user.
func (r *Repository) ListRoles(ctx context.Context, userID uuid.UUID) ([]enums.AppRole, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var raw []string
	err := r.db.WithContext(ctx).
		Model(&models.UserRole{}).
		Where("user_id = ?", userID).
		Order("role").
		Pluck("role", &raw).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user roles")
	}

	roles := make([]enums.AppRole, 0, len(raw))
	for _, value := range raw {
		role, err := enums.ParseAppRole(value)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode user role")
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// Grant adds a role to the user. Granting an existing role is a no-op.
func (r *Repository) Grant(ctx context.Context, userID uuid.UUID, role enums.AppRole) error {
	if !role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid app role %q", role))
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	record := &models.UserRole{
		ID:     uuid.New(),
		UserID: userID,
		Role:   role,
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grant user role")
	}
	return nil
}

// Revoke removes a role from the user.
func (r *Repository) Revoke(ctx context.Context, userID uuid.UUID, role enums.AppRole) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND role = ?", userID, role).
		Delete(&models.UserRole{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke user role")
	}
	return nil
}
