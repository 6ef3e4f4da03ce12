// File: internal/user/repository.go
package user

import (
	"context"
	"errors"
	"strings"

	"afyaclinic_backend/internal/common"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repository defines the interface for account data operations.
type Repository interface {
	// Create persists the account and its role-specific profile record in a
	// single transaction. A unique-constraint violation at commit time is
	// reported as the same conflict error the pre-check produces.
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// ExistsByEmailOrPhone runs the combined uniqueness query: a hit on either
	// column counts, undifferentiated.
	ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM account repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// pgUniqueViolation is the Postgres error code for unique-constraint violations.
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	// Fallback for drivers that do not translate (sqlite in tests).
	msg := err.Error()
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "UNIQUE constraint failed")
}

func profileForRole(u *User) interface{} {
	switch u.Role {
	case common.RoleDoctor:
		return &DoctorProfile{UserID: u.ID}
	case common.RoleNurse:
		return &NurseProfile{UserID: u.ID}
	case common.RoleReceptionist:
		return &ReceptionistProfile{UserID: u.ID}
	case common.RolePatient:
		return &PatientProfile{UserID: u.ID}
	}
	return nil
}

func (r *gormRepository) Create(ctx context.Context, user *User) error {
	if user.Email != nil {
		*user.Email = strings.ToLower(strings.TrimSpace(*user.Email))
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if profile := profileForRole(user); profile != nil {
			if err := tx.Create(profile).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict
		}
		return err
	}
	return nil
}

// FindByEmail retrieves an account by its email address.
func (r *gormRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var userModel User
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	err := r.db.WithContext(ctx).Where("email = ?", normalizedEmail).First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("No account found with this email.")
		}
		return nil, err
	}
	return &userModel, nil
}

// FindByID retrieves an account by its ID.
func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var userModel User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("No account found with this ID.")
		}
		return nil, err
	}
	return &userModel, nil
}

func (r *gormRepository) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error) {
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	var count int64
	err := r.db.WithContext(ctx).Model(&User{}).
		Where("email = ? OR phone_number = ?", normalizedEmail, phone).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result := r.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("No account found with this ID.")
	}
	return nil
}
