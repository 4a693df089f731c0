package access

import (
	"strings"

	"hrify/internal/domain/auth"
)

const (
	ReasonAllowed      = "allowed"
	ReasonNoSession    = "no_session"
	ReasonUnknownRole  = "unknown_role"
	ReasonRoleMismatch = "role_mismatch"
)

// Decision is the outcome of a guard check. Redirect is empty when Allow is set.
type Decision struct {
	Allow    bool
	Redirect string
	Reason   string
}

func allow() Decision {
	return Decision{Allow: true, Reason: ReasonAllowed}
}

func SignInPath(locale string) string {
	return "/" + locale + "/sign-in"
}

// LandingPath is the overview page for a role.
func LandingPath(locale string, role auth.Role) string {
	return "/" + locale + "/dashboard/" + role.String() + "/overview"
}

// ProtectRoute gates a page subtree. A nil session or an unrecognized role
// goes to sign-in; a valid role outside allowed goes to its own overview.
func ProtectRoute(session *auth.Session, locale string, allowed []auth.Role) Decision {
	if session == nil {
		return Decision{Redirect: SignInPath(locale), Reason: ReasonNoSession}
	}
	role, ok := session.Role()
	if !ok {
		return Decision{Redirect: SignInPath(locale), Reason: ReasonUnknownRole}
	}
	if !role.In(allowed) {
		return Decision{Redirect: LandingPath(locale, role), Reason: ReasonRoleMismatch}
	}
	return allow()
}

// SplitLocale strips a leading locale segment. Paths without a known locale
// keep their full value and report the fallback.
func SplitLocale(path string, locales []string, fallback string) (string, string) {
	trimmed := strings.TrimPrefix(path, "/")
	first, rest, _ := strings.Cut(trimmed, "/")
	first = strings.ToLower(first)
	for _, locale := range locales {
		if first == locale {
			return locale, "/" + rest
		}
	}
	if path == "" {
		path = "/"
	}
	return fallback, path
}
