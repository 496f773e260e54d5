// Package device derives a human-readable device description from the
// User-Agent and adds it to the request context. Data-access events record
// this description instead of the raw header, which can be arbitrarily long
// and is a fingerprinting vector.
package device

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"ledgerline/pkg/requestcontext"
)

// Describe must run after the metadata middleware, which puts the raw
// User-Agent into the context.
func Describe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if ua := requestcontext.UserAgent(ctx); ua != "" {
			ctx = requestcontext.WithDevice(ctx, ParseUserAgent(ua))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ParseUserAgent extracts a device display name from a User-Agent string.
// Returns format: "Browser on OS" (e.g. "Chrome on macOS", "Safari on iOS").
func ParseUserAgent(userAgentString string) string {
	if userAgentString == "" {
		return "Unknown Device"
	}

	ua := useragent.New(userAgentString)

	browser, _ := ua.Browser()
	os := ua.OS()

	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return strings.TrimSpace(browser + " on " + platform)
		}
	}

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
