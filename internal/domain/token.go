package domain

import "time"

// TikTokToken holds persisted OAuth credentials for the connected account.
type TikTokToken struct {
	ID           int64
	OpenID       string
	AccessToken  string
	RefreshToken string
	Scope        string
	ExpiresAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the access token needs a refresh at t.
func (tk *TikTokToken) Expired(t time.Time) bool {
	return tk.ExpiresAt != nil && !tk.ExpiresAt.After(t)
}
