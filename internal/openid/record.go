package openid

import "time"

const (
	RoleRegistered = "registered"
	// SexNotSpecified and CurrencyUSD are row ids of the host schema.
	SexNotSpecified = 14
	CurrencyUSD     = 1

	createdAtLayout = "2006-01-02 15:04:05"
)

// Record is the user row a provider proposes for a new account.
type Record struct {
	Password       string
	Email          string
	Role           string
	Balance        int64
	SexID          int
	CurrencyID     int
	LanguageCode   string
	CreatedAt      time.Time
	Username       string
	Name           string
	OpenIDIdentity string
}

// NewRecord fills the defaults every provider shares.
func NewRecord(rc RequestContext, password string, now time.Time) *Record {
	return &Record{
		Password:     password,
		Role:         RoleRegistered,
		SexID:        SexNotSpecified,
		CurrencyID:   CurrencyUSD,
		LanguageCode: rc.LanguageCode(),
		CreatedAt:    now,
	}
}

// Map renders the record as a result identity payload. The password is left
// out; it only travels by mail.
func (r *Record) Map() map[string]any {
	return map[string]any{
		"email":           r.Email,
		"role":            r.Role,
		"balance":         r.Balance,
		"sex_id":          r.SexID,
		"currency_id":     r.CurrencyID,
		"language_code":   r.LanguageCode,
		"created_at":      r.CreatedAt.Format(createdAtLayout),
		"username":        r.Username,
		"name":            r.Name,
		"openid_identity": r.OpenIDIdentity,
	}
}
