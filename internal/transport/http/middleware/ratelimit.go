package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"hrify/internal/transport/http/api"
)

type rateKeyFunc func(r *http.Request) string

type rateBucket struct {
	count int
	reset time.Time
}

// windowLimiter is a fixed-window counter keyed per client.
type windowLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	key     rateKeyFunc
	buckets map[string]*rateBucket
}

func newWindowLimiter(limit int, window time.Duration, key rateKeyFunc) *windowLimiter {
	return &windowLimiter{limit: limit, window: window, key: key, buckets: map[string]*rateBucket{}}
}

// SensitiveMutationRateLimit throttles sign-in, final submission, prefill,
// loan and salary writes and the mounted proxies. Sign-in is limited per
// client address and per email at a quarter of baseLimit; the rest per
// actor at half of it. Forwarded addresses count only when trustProxy is set.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration, trustProxy bool) func(http.Handler) http.Handler {
	ip := clientIP(trustProxy)
	signInLimit := max(baseLimit/4, 1)
	signInByIP := newWindowLimiter(signInLimit, window, ip)
	signInByEmail := newWindowLimiter(signInLimit, window, signInEmailKey(ip))
	byActor := newWindowLimiter(max(baseLimit/2, 1), window, actorKey(ip))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch sensitiveRateScope(r) {
			case sensitiveScopeAuth:
				if !signInByIP.allow(w, r) || !signInByEmail.allow(w, r) {
					return
				}
			case sensitiveScopeActor:
				if !byActor.allow(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP keys on the first X-Forwarded-For hop behind a trusted proxy and
// on the socket address otherwise.
func clientIP(trustProxy bool) rateKeyFunc {
	return func(r *http.Request) string {
		if trustProxy {
			first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
			if first = strings.TrimSpace(first); first != "" {
				return "ip:" + first
			}
		}
		addr := strings.TrimSpace(r.RemoteAddr)
		if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
			addr = host
		}
		return "ip:" + addr
	}
}

func actorKey(fallback rateKeyFunc) rateKeyFunc {
	return func(r *http.Request) string {
		if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
			return "user:" + user.Tenant + ":" + user.UserID
		}
		return fallback(r)
	}
}

func signInEmailKey(fallback rateKeyFunc) rateKeyFunc {
	return func(r *http.Request) string {
		if email := peekJSONString(r, "email"); email != "" {
			return "tenant:" + GetTenant(r.Context()).Label + ":email:" + strings.ToLower(email)
		}
		return fallback(r)
	}
}

func (l *windowLimiter) allow(w http.ResponseWriter, r *http.Request) bool {
	key := l.key(r)
	now := time.Now()

	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok || now.After(bucket.reset) {
		bucket = &rateBucket{reset: now.Add(l.window)}
		l.buckets[key] = bucket
	}
	bucket.count++
	count, reset := bucket.count, bucket.reset
	l.mu.Unlock()

	resetIn := int(reset.Sub(now).Round(time.Second).Seconds())
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(l.limit-count, 0)))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(max(resetIn, 0)))
	if count <= l.limit {
		return true
	}

	w.Header().Set("Retry-After", strconv.Itoa(max(resetIn, 1)))
	slog.Warn("rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path, "limit", l.limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

// peekJSONString reads one string field from a JSON body and restores the
// body for the handler.
func peekJSONString(r *http.Request, field string) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var payload map[string]any
	if json.Unmarshal(raw, &payload) != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}

type sensitiveScope string

const (
	sensitiveScopeNone  sensitiveScope = ""
	sensitiveScopeAuth  sensitiveScope = "auth"
	sensitiveScopeActor sensitiveScope = "actor"
)

// sensitiveRoutes match API paths with the /api prefix removed. A trailing
// slash marks a prefix match.
var sensitiveRoutes = []struct {
	path  string
	scope sensitiveScope
}{
	{"/auth/sign-in", sensitiveScopeAuth},
	{"/employee-wizard/submit", sensitiveScopeActor},
	{"/employee-wizard/prefill/", sensitiveScopeActor},
	{"/loans", sensitiveScopeActor},
	{"/loans/", sensitiveScopeActor},
	{"/salary-increments", sensitiveScopeActor},
	{"/excel-payroll/", sensitiveScopeActor},
	{"/lambda-payroll/", sensitiveScopeActor},
	{"/migration/", sensitiveScopeActor},
	{"/company/subdomain/", sensitiveScopeActor},
}

func sensitiveRateScope(r *http.Request) sensitiveScope {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return sensitiveScopeNone
	}

	path, ok := strings.CutPrefix(r.URL.Path, "/api")
	if !ok || (path != "" && path[0] != '/') {
		return sensitiveScopeNone
	}
	for _, route := range sensitiveRoutes {
		if strings.HasSuffix(route.path, "/") {
			if strings.HasPrefix(path, route.path) {
				return route.scope
			}
		} else if path == route.path {
			return route.scope
		}
	}
	return sensitiveScopeNone
}
