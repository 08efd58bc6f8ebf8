package model

// User is an account as listed on the admin users tab and returned by the
// identity endpoint.
type User struct {
	ID          ID     `json:"id" db:"id"`
	Email       string `json:"email" db:"email"`
	Username    string `json:"username" db:"username"`
	Name        string `json:"name" db:"name"`
	IsStaff     bool   `json:"is_staff" db:"is_staff"`
	IsSuperuser bool   `json:"is_superuser" db:"is_superuser"`
}

// DisplayName falls back to the username when no full name is set.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// Identity is the authenticated principal held by a session.
type Identity struct {
	UserID      ID
	DisplayName string
	Email       string
	IsStaff     bool
}

// IdentityOf projects a user record onto a session identity.
func IdentityOf(u User) Identity {
	return Identity{
		UserID:      u.ID,
		DisplayName: u.DisplayName(),
		Email:       u.Email,
		IsStaff:     u.IsStaff,
	}
}
