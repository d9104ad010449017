package ratelimit

import (
	"net"
	"net/http"
	"strings"

	rl "storefront/modules/ratelimit"
)

// RemoteIpKeyFunc trusts the last X-Forwarded-For hop, the one appended by our
// own proxy, and otherwise uses the connection's remote host.
func RemoteIpKeyFunc(r *http.Request) rl.Key {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		last := xff[strings.LastIndexByte(xff, ',')+1:]
		if ip := strings.TrimSpace(last); ip != "" {
			return rl.Key(ip)
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return rl.Key(host)
	}
	return rl.Key(r.RemoteAddr)
}

// SubjectKeyFunc keys signed-in requests by subject and anonymous ones by ip.
func SubjectKeyFunc(subject func(*http.Request) (string, bool)) KeyFunc {
	return func(r *http.Request) rl.Key {
		sub, ok := subject(r)
		if !ok || sub == "" {
			return RemoteIpKeyFunc(r)
		}
		return rl.Key("user:" + sub)
	}
}

// ServeMuxRouteInfo asks mux for the pattern r would match. Global middlewares
// run before the mux fills r.Pattern.
func ServeMuxRouteInfo(mux *http.ServeMux) RouteInfoFunc {
	return func(r *http.Request) RouteInfo {
		_, pattern := mux.Handler(r)
		// "GET /v1/orders/{ref}" -> "/v1/orders/{ref}"
		if i := strings.IndexByte(pattern, ' '); i >= 0 {
			pattern = pattern[i+1:]
		}
		if pattern == "" {
			pattern = r.URL.Path
		}
		return RouteInfo{ID: Pattern(pattern), Method: r.Method, Path: r.URL.Path}
	}
}
