package access

import (
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"hrify/internal/domain/auth"
)

const routeModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch(r.obj, p.obj)
`

const dashboardPrefix = "/dashboard"

// Guard applies the dashboard role matrix to full request paths.
type Guard struct {
	enforcer      *casbin.Enforcer
	locales       []string
	defaultLocale string
}

func NewGuard(locales []string, defaultLocale string) (*Guard, error) {
	m, err := model.NewModelFromString(routeModel)
	if err != nil {
		return nil, fmt.Errorf("route model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	for _, role := range auth.Roles {
		subtree := dashboardPrefix + "/" + role.String()
		for _, obj := range []string{subtree, subtree + "/*"} {
			if _, err := enforcer.AddPolicy(Subject(role), obj); err != nil {
				return nil, err
			}
		}
	}
	if defaultLocale == "" {
		defaultLocale = "en"
	}
	return &Guard{enforcer: enforcer, locales: locales, defaultLocale: defaultLocale}, nil
}

func Subject(role auth.Role) string {
	return "role:" + role.String()
}

// IsProtected reports whether a locale-stripped path sits under the dashboard.
func IsProtected(path string) bool {
	return path == dashboardPrefix || strings.HasPrefix(path, dashboardPrefix+"/")
}

func (g *Guard) Locale(path string) string {
	locale, _ := SplitLocale(path, g.locales, g.defaultLocale)
	return locale
}

// CheckPath decides whether session may view path. Non-dashboard paths are public.
// Enforcer errors deny.
func (g *Guard) CheckPath(session *auth.Session, path string) Decision {
	locale, rest := SplitLocale(path, g.locales, g.defaultLocale)
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" {
		rest = "/"
	}
	if !IsProtected(rest) {
		return allow()
	}
	if session == nil {
		return Decision{Redirect: SignInPath(locale), Reason: ReasonNoSession}
	}
	role, ok := session.Role()
	if !ok {
		return Decision{Redirect: SignInPath(locale), Reason: ReasonUnknownRole}
	}
	allowed, err := g.enforcer.Enforce(Subject(role), rest)
	if err != nil || !allowed {
		return Decision{Redirect: LandingPath(locale, role), Reason: ReasonRoleMismatch}
	}
	return allow()
}
