package httpmiddleware

import (
	"net/http"
	"strings"
)

// UnknownIP is recorded when no forwarding header identifies the client.
const UnknownIP = "unknown"

// ClientIP returns the first X-Forwarded-For entry, else X-Real-IP, else "unknown".
// The socket address is ignored: the app always sits behind a proxy.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return UnknownIP
}
