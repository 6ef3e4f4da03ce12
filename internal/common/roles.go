// File: internal/common/roles.go
package common

// Role values form a closed, non-hierarchical set. Each protected route names
// exactly one required role.
const (
	RoleAdmin        = "ADMIN"
	RoleDoctor       = "DOCTOR"
	RoleNurse        = "NURSE"
	RolePatient      = "PATIENT"
	RoleReceptionist = "RECEPTIONIST"
)

// ValidRoles lists every role accepted by the registration workflows.
var ValidRoles = []string{RoleAdmin, RoleDoctor, RoleNurse, RolePatient, RoleReceptionist}

// IsValidRole reports whether s is one of the known roles.
func IsValidRole(s string) bool {
	for _, r := range ValidRoles {
		if s == r {
			return true
		}
	}
	return false
}
