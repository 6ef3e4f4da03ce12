// File: internal/user/model.go
package user

import (
	"time"

	"afyaclinic_backend/internal/common"
	"afyaclinic_backend/internal/shared"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account in the database. Email and phone carry unique
// indexes; both are pointers so federated accounts can exist without a phone
// or password while uniqueness still holds for present values.
type User struct {
	common.BaseModel
	FullNames    string     `gorm:"type:varchar(100);not null"`
	Email        *string    `gorm:"type:varchar(100);uniqueIndex"`
	PhoneNumber  *string    `gorm:"type:varchar(20);uniqueIndex"`
	PasswordHash *string    `gorm:"type:varchar(255)"`
	Role         string     `gorm:"type:varchar(20);not null"`
	Gender       *string    `gorm:"type:varchar(10)"`
	DateOfBirth  *time.Time `gorm:"type:date"`
	Address      *string    `gorm:"type:text"`
	AuthProvider string     `gorm:"type:varchar(50);not null;default:'email'"`
	ProviderID   *string    `gorm:"type:varchar(255)"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

func (u *User) GetID() uuid.UUID {
	return u.ID
}

func (u *User) GetEmail() *string {
	return u.Email
}

func (u *User) GetRole() string {
	return u.Role
}

// Role-specific satellite records keyed by account id. One Account row carries
// the role discriminant; per-role extra attributes live here.

type DoctorProfile struct {
	common.BaseModel
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Specialization *string   `gorm:"type:varchar(100)"`
	LicenseNumber  *string   `gorm:"type:varchar(50)"`
}

func (DoctorProfile) TableName() string { return "doctor_profiles" }

type NurseProfile struct {
	common.BaseModel
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Ward   *string   `gorm:"type:varchar(100)"`
}

func (NurseProfile) TableName() string { return "nurse_profiles" }

type ReceptionistProfile struct {
	common.BaseModel
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Desk   *string   `gorm:"type:varchar(100)"`
}

func (ReceptionistProfile) TableName() string { return "receptionist_profiles" }

type PatientProfile struct {
	common.BaseModel
	UserID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	EmergencyContact *string   `gorm:"type:varchar(100)"`
}

func (PatientProfile) TableName() string { return "patient_profiles" }

// AutoMigrate creates the account and profile tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&DoctorProfile{},
		&NurseProfile{},
		&ReceptionistProfile{},
		&PatientProfile{},
	)
}

// --- DTOs (Data Transfer Objects) for API requests/responses ---

// RegisterRequest defines the structure for registering an account.
// Deeper validation (carrier phone, password strength) happens in the service
// so failures short-circuit in the documented order.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Phone       string `json:"phone" binding:"required"`
	Password    string `json:"password" binding:"required"`
	FullNames   string `json:"userfullnames" binding:"required"`
	Gender      string `json:"gender,omitempty" binding:"omitempty,oneof=Male Female Other"`
	DateOfBirth string `json:"date_of_birth,omitempty" binding:"omitempty,datetime=2006-01-02"`
	Address     string `json:"address,omitempty"`
}

// UserResponse defines the structure for account data sent in API responses.
type UserResponse struct {
	ID           uuid.UUID  `json:"id"`
	FullNames    string     `json:"userfullnames"`
	Email        *string    `json:"email,omitempty"`
	PhoneNumber  *string    `json:"phone_number,omitempty"`
	Role         string     `json:"role"`
	Gender       *string    `json:"gender,omitempty"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	Address      *string    `json:"address,omitempty"`
	AuthProvider string     `json:"auth_provider"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ToUserResponse converts a shared.User to a UserResponse DTO.
func ToUserResponse(u *shared.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		FullNames:    u.FullNames,
		Email:        u.Email,
		PhoneNumber:  u.Phone,
		Role:         u.Role,
		Gender:       u.Gender,
		DateOfBirth:  u.DateOfBirth,
		Address:      u.Address,
		AuthProvider: u.AuthProvider,
		CreatedAt:    u.CreatedAt,
	}
}

// DBToShared converts a GORM User model to the cross-package shared.User.
func DBToShared(u *User) *shared.User {
	return &shared.User{
		ID:           u.ID,
		FullNames:    u.FullNames,
		Email:        u.Email,
		Phone:        u.PhoneNumber,
		Role:         u.Role,
		Gender:       u.Gender,
		DateOfBirth:  u.DateOfBirth,
		Address:      u.Address,
		AuthProvider: u.AuthProvider,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
