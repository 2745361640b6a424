package enums

import "fmt"

// AppRole represents an application-wide authorization tier stored in user_roles.
type AppRole string

const (
	AppRoleAdmin     AppRole = "admin"
	AppRoleModerator AppRole = "moderator"
	AppRoleUser      AppRole = "user"
)

var validAppRoles = []AppRole{
	AppRoleAdmin,
	AppRoleModerator,
	AppRoleUser,
}

// AppRoles lists every known role.
func AppRoles() []AppRole {
	out := make([]AppRole, len(validAppRoles))
	copy(out, validAppRoles)
	return out
}

// String implements fmt.Stringer.
func (r AppRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known AppRole.
func (r AppRole) IsValid() bool {
	for _, candidate := range validAppRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseAppRole converts raw input into an AppRole.
func ParseAppRole(value string) (AppRole, error) {
	for _, candidate := range validAppRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid app role %q", value)
}
