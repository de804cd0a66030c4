package domain

// User models an account holder. Name is the storage identity; equality is
// decided by name and password only.
type User struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     Role   `json:"status"`
}

// NewUser returns a plain user with the default role.
func NewUser(name, password string) User {
	return User{Name: name, Password: password, Role: RoleJustUser}
}

// Equal reports whether u and other carry the same credentials. Role is ignored.
func (u User) Equal(other User) bool {
	return u.Name == other.Name && u.Password == other.Password
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u User) IsJustUser() bool {
	return u.Role == RoleJustUser
}

// Validate rejects users that cannot be stored.
func (u User) Validate() error {
	if u.Name == "" || u.Password == "" {
		return ErrInvalidUser
	}
	if !u.Role.Valid() {
		return ErrUnknownRole
	}
	return nil
}
