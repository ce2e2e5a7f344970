package ratelimit

import (
	"path"
	"strings"
)

// MatchEndpoint finds the configuration for a request. Config paths are
// path.Match patterns ("/sessions/*/letter"); a pattern ending in "/" also
// matches everything below it. Exact patterns win over prefixes. GET /health
// is never limited. Returns nil when nothing matches.
func MatchEndpoint(requestPath, method string, configs []EndpointConfig) *EndpointConfig {
	if requestPath == "/health" && method == "GET" {
		return &EndpointConfig{Path: "/health", Method: method}
	}

	for i := range configs {
		c := &configs[i]
		if c.Method != method || strings.HasSuffix(c.Path, "/") {
			continue
		}
		if ok, err := path.Match(c.Path, requestPath); err == nil && ok {
			return c
		}
	}

	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(requestPath, c.Path) {
			return c
		}
	}

	return nil
}
