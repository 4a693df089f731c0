package tenant

import (
	"net"
	"net/http"
	"strings"
)

const (
	HeaderTenant     = "x-tenant"
	HeaderTenantType = "x-tenant-type"

	// BaseLabel is the tenant label used for the apex domain and local hosts.
	BaseLabel = "base"
)

type Type string

const (
	TypeBase    Type = "base"
	TypeCompany Type = "company"
)

type Tenant struct {
	Label string `json:"tenant"`
	Type  Type   `json:"tenantType"`
}

var Base = Tenant{Label: BaseLabel, Type: TypeBase}

func (t Tenant) IsCompany() bool {
	return t.Type == TypeCompany
}

// Apply writes the tenant header contract consumed by the backend.
func (t Tenant) Apply(h http.Header) {
	h.Set(HeaderTenant, t.Label)
	h.Set(HeaderTenantType, string(t.Type))
}

// FromLabel rebuilds a tenant from its label alone, as carried in session claims.
func FromLabel(label string) Tenant {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" || label == BaseLabel {
		return Base
	}
	return Tenant{Label: label, Type: TypeCompany}
}

// Resolve derives the tenant from a request hostname. "{sub}.{baseDomain}" and
// "{sub}.localhost" are company tenants; the apex, "www", localhost, IP
// literals and foreign domains are the base tenant.
func Resolve(host, baseDomain string) Tenant {
	host = NormalizeHostname(host)
	baseDomain = NormalizeHostname(baseDomain)
	if host == "" || host == "localhost" || net.ParseIP(host) != nil {
		return Base
	}

	var rest string
	switch {
	case baseDomain != "" && host == baseDomain:
		return Base
	case baseDomain != "" && strings.HasSuffix(host, "."+baseDomain):
		rest = strings.TrimSuffix(host, "."+baseDomain)
	case strings.HasSuffix(host, ".localhost"):
		rest = strings.TrimSuffix(host, ".localhost")
	default:
		return Base
	}

	label, _, _ := strings.Cut(rest, ".")
	if label == "" || label == "www" || label == BaseLabel {
		return Base
	}
	return Tenant{Label: label, Type: TypeCompany}
}

func NormalizeHostname(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	return strings.ToLower(strings.Trim(host, "[]"))
}
