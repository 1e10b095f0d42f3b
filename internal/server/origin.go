package server

import "net/http"

// OriginChecker gates websocket upgrades by Origin header. An empty
// allowlist accepts every origin, which suits same-host dashboards and
// native clients that send no Origin at all.
type OriginChecker struct {
	allowed map[string]struct{}
}

func NewOriginChecker(origins []string) *OriginChecker {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		allowed[origin] = struct{}{}
	}

	return &OriginChecker{
		allowed: allowed,
	}
}

func (c *OriginChecker) Check(r *http.Request) bool {
	if len(c.allowed) == 0 {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	_, ok := c.allowed[origin]

	return ok
}
