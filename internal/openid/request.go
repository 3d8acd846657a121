package openid

// RequestContext carries the request-scoped values providers need while
// building a user record. It replaces ambient request/session lookups.
type RequestContext struct {
	// AcceptLanguage is the raw Accept-Language header of the end user.
	AcceptLanguage string
	// UserID is the freshly persisted user id, zero before persistence.
	UserID int64
}

// LanguageCode is the two-letter locale derived from AcceptLanguage.
func (rc RequestContext) LanguageCode() string {
	if len(rc.AcceptLanguage) < 2 {
		return rc.AcceptLanguage
	}
	return rc.AcceptLanguage[:2]
}
