package enums

import "fmt"

// Role is the acting user's pricing/permission tier.
type Role string

const (
	RoleUser     Role = "user"
	RoleRetailer Role = "retailer"
	RoleAdmin    Role = "admin"
)

var validRoles = []Role{
	RoleUser,
	RoleRetailer,
	RoleAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsRetailer reports whether the role unlocks the retailer price tier and direct-purchase caps.
func (r Role) IsRetailer() bool {
	return r == RoleRetailer
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
