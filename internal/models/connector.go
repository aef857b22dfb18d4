package models

import "time"

// Credentials holds the OAuth tokens for one provider connection. Extra
// carries provider-specific fields that the engine treats as opaque.
type Credentials struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
	ExpiresAt    time.Time         `json:"expiresAt"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// Expired reports whether the access token is past its recorded expiry. A
// zero ExpiresAt means the provider did not report one.
func (c Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// SyncResult is what a connector returns from one full fetch cycle. Errors
// holds soft per-account failures that did not abort the sync.
type SyncResult struct {
	Accounts     []Account
	Transactions []Transaction
	Investments  []Investment
	Errors       []string
}
