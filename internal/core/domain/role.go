package domain

import "fmt"

// Role is the closed set of account privileges. The zero value is RoleJustUser.
type Role uint8

const (
	RoleJustUser Role = iota
	RoleAdmin
)

// roleNames is the persisted encoding of every role, shared by the SQL status
// column and the JSON status field.
var roleNames = map[Role]string{
	RoleJustUser: "just_user",
	RoleAdmin:    "admin",
}

// ParseRole decodes the persisted form of a role.
func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

func (r Role) MarshalText() ([]byte, error) {
	name, ok := roleNames[r]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, uint8(r))
	}
	return []byte(name), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
