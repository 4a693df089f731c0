package auth

// Session is the authenticated principal attached to a request. RoleClaim is
// kept raw so guards can tell a missing or unknown role apart from a valid one.
type Session struct {
	UserID       string
	Email        string
	Name         string
	RoleClaim    string
	Tenant       string
	BackendToken string
}

func SessionFromClaims(claims *Claims) Session {
	return Session{
		UserID:       claims.UserID,
		Email:        claims.Email,
		Name:         claims.Name,
		RoleClaim:    claims.Role,
		Tenant:       claims.Tenant,
		BackendToken: claims.BackendToken,
	}
}

func (s Session) Role() (Role, bool) {
	return ParseRole(s.RoleClaim)
}

func (s Session) Claims() Claims {
	return Claims{
		UserID:       s.UserID,
		Email:        s.Email,
		Name:         s.Name,
		Role:         s.RoleClaim,
		Tenant:       s.Tenant,
		BackendToken: s.BackendToken,
	}
}
