package middleware

import (
	"net/http"
	"strings"
)

// uploadPrefixes carry payroll spreadsheets and get a larger body allowance.
var uploadPrefixes = []string{"/api/excel-payroll/", "/api/lambda-payroll/", "/api/migration/"}

const uploadMultiplier = 16

func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
				r.Body = http.MaxBytesReader(w, r.Body, bodyLimitFor(r.URL.Path, maxBytes))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bodyLimitFor(path string, maxBytes int64) int64 {
	for _, prefix := range uploadPrefixes {
		if strings.HasPrefix(path, prefix) {
			return maxBytes * uploadMultiplier
		}
	}
	return maxBytes
}
