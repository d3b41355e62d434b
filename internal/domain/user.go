package domain

import "time"

// Fullname is the structured display name captured at registration.
type Fullname struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// User is the internal account record. PasswordHash never crosses the HTTP
// boundary; responses carry the PublicUser projection instead.
type User struct {
	ID           string
	Fullname     Fullname
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// PublicUser is the credential-free projection of a User. It is built
// without the hash ever being present, so there is nothing to strip.
type PublicUser struct {
	ID        string    `json:"id"`
	Fullname  Fullname  `json:"fullname"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Public returns the safe projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Fullname:  u.Fullname,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// RevokedToken is a blacklist entry. ExpiresAt mirrors the exp claim of the
// revoked token so entries can be pruned once the token would be rejected by
// the expiry check alone.
type RevokedToken struct {
	Token     string
	RevokedAt time.Time
	ExpiresAt time.Time
}
