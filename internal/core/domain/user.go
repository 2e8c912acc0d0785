package domain

import "time"

// User models a staff member able to authenticate against the system.
// PasswordHash is at-rest only and never serialized outward.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	PhoneNumber  string     `json:"phoneNumber,omitempty"`
	EmployeeID   string     `json:"employeeId,omitempty"`
	Enabled      bool       `json:"enabled"`
	Roles        []RoleName `json:"roles"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// FullName joins first and last name for display.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(name RoleName) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the user carries at least one of the given roles.
func (u *User) HasAnyRole(names ...RoleName) bool {
	for _, n := range names {
		if u.HasRole(n) {
			return true
		}
	}
	return false
}

// RoleStrings returns the user's role names as plain strings, the shape
// embedded in token claims.
func (u *User) RoleStrings() []string {
	out := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		out[i] = string(r)
	}
	return out
}

// UserView is the public-safe projection of a User returned by the API.
type UserView struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	FullName    string     `json:"fullName"`
	PhoneNumber string     `json:"phoneNumber,omitempty"`
	EmployeeID  string     `json:"employeeId,omitempty"`
	Enabled     bool       `json:"enabled"`
	Roles       []string   `json:"roles"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
}

// View builds the public projection of the user.
func (u *User) View() *UserView {
	return &UserView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		PhoneNumber: u.PhoneNumber,
		EmployeeID:  u.EmployeeID,
		Enabled:     u.Enabled,
		Roles:       u.RoleStrings(),
		LastLogin:   u.LastLogin,
	}
}
