package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
)

// IsValidRole indica si role es uno de los roles conocidos.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleBodeguero, RoleVendedor:
		return true
	}
	return false
}

// User representa un usuario del sistema.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt
	Name         string
	Role         string // admin, bodeguero, vendedor
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
