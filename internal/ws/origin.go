package ws

import (
	"net/http"
	"net/url"
	"strings"
)

// originPolicy decides which browser origins may call the API and open a
// websocket. With no rules configured only same-host and loopback origins
// pass.
type originPolicy struct {
	origins    map[string]bool
	hosts      map[string]bool
	suffixes   []string
	substrings []string
}

func newOriginPolicy(origins, suffixes, substrings []string) *originPolicy {
	p := &originPolicy{
		origins: make(map[string]bool),
		hosts:   make(map[string]bool),
	}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		p.origins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			p.hosts[parsed.Host] = true
		}
	}
	for _, s := range suffixes {
		if s = strings.TrimSpace(s); s != "" {
			p.suffixes = append(p.suffixes, strings.ToLower(s))
		}
	}
	for _, s := range substrings {
		if s = strings.TrimSpace(s); s != "" {
			p.substrings = append(p.substrings, strings.ToLower(s))
		}
	}
	return p
}

func (p *originPolicy) empty() bool {
	return len(p.origins) == 0 && len(p.suffixes) == 0 && len(p.substrings) == 0
}

// allowed reports whether a request carrying origin may proceed. Requests
// without an Origin header (curl, the rig itself) are always allowed.
func (p *originPolicy) allowed(origin, requestHost string) bool {
	if origin == "" {
		return true
	}
	if p.origins[origin] {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := strings.ToLower(parsed.Host)

	if p.empty() {
		return host == requestHost || isLoopback(parsed.Hostname())
	}
	if p.hosts[parsed.Host] {
		return true
	}
	hostname := strings.ToLower(parsed.Hostname())
	for _, s := range p.suffixes {
		if strings.HasSuffix(hostname, s) {
			return true
		}
	}
	lower := strings.ToLower(origin)
	for _, s := range p.substrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func isLoopback(hostname string) bool {
	return hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1"
}

func (p *originPolicy) checkOrigin(r *http.Request) bool {
	return p.allowed(r.Header.Get("Origin"), r.Host)
}

// cors answers preflight requests and sets the allow headers for permitted
// origins. Disallowed origins get 403.
func (p *originPolicy) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if !p.allowed(origin, r.Host) {
			writeJSON(w, http.StatusForbidden, UpdateResponse{OK: false, Msg: "origin not allowed"})
			return
		}
		if origin != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			h := w.Header()
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
