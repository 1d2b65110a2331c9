package model

import "time"

// User is the identity record. Password and token balances are managed by the
// auth service; this backend only reads them.
type User struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"-"`
	PasswordHash  *string   `db:"password_hash" json:"-"`
	ProfileURL    string    `db:"profile_url" json:"profileUrl"`
	HandleID      *int64    `db:"handle_id" json:"-"`
	Handle        *string   `db:"handle" json:"handle,omitempty"`
	PushToken     *string   `db:"push_token" json:"-"`
	FreeTokens    int       `db:"free_tokens" json:"freeTokens"`
	PremiumTokens int       `db:"premium_tokens" json:"premiumTokens"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// UserSummary is the public projection embedded in feed rows, comments and
// search results.
type UserSummary struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Handle     *string   `db:"handle" json:"handle,omitempty"`
	ProfileURL string    `db:"profile_url" json:"profileUrl"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Handle:     u.Handle,
		ProfileURL: u.ProfileURL,
		CreatedAt:  u.CreatedAt,
	}
}
