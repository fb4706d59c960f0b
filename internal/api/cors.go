package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
)

// The agent only ever talks to UI surfaces running on the same machine:
// the desktop webview and a dev server on localhost. Anything else gets
// no CORS headers at all.
func isAllowedOrigin(origin string) bool {
	if origin == "tauri://localhost" {
		return true
	}

	scheme, rest, ok := strings.Cut(origin, "://")
	if !ok || (scheme != "http" && scheme != "https") {
		return false
	}
	if strings.ContainsAny(rest, "/?#") {
		return false
	}

	host := rest
	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end < 0 {
			return false
		}
		host = rest[:end+1]
		if tail := rest[end+1:]; tail != "" {
			port, ok := strings.CutPrefix(tail, ":")
			if !ok {
				return false
			}
			if _, err := strconv.Atoi(port); err != nil {
				return false
			}
		}
	} else if h, port, ok := strings.Cut(rest, ":"); ok {
		if _, err := strconv.Atoi(port); err != nil {
			return false
		}
		host = h
	}

	return host == "localhost" || host == "127.0.0.1" || host == "[::1]"
}

func isLoopbackRemoteAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = strings.Trim(addr, "[]")
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// CORSAllowlist handles preflight and response headers for local UI origins.
// Range and Content-Range must be listed explicitly or the webview's video
// element cannot issue partial requests against /playback/file.
func CORSAllowlist() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !isAllowedOrigin(origin) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, HEAD, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Range")
			h.Set("Access-Control-Expose-Headers", "Content-Range, Accept-Ranges, Content-Length, Content-Type, X-Request-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoopbackGuard rejects requests that did not originate on this machine.
// The server binds to 127.0.0.1 already; this is the backstop for the
// media-serving route if the bind address ever changes.
func LoopbackGuard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemoteAddr(r.RemoteAddr) {
				WriteError(w, http.StatusForbidden, "playback is local-only", "FORBIDDEN")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
