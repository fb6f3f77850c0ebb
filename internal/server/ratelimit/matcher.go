package ratelimit

import "strings"

var unlimited = &EndpointConfig{}

// MatchEndpoint returns the config for a request, or nil when only the default
// limit applies. Health checks and page loads are unlimited. Exact paths win
// over prefixes.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if method == "GET" && (path == "/health" || path == "/" || path == "/chat") {
		return unlimited
	}

	for i := range configs {
		if configs[i].Path == path && configs[i].Method == method {
			return &configs[i]
		}
	}
	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			return c
		}
	}
	return nil
}
