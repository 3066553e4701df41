package config

import (
	"fmt"
	"strings"
)

// Environment is the deployment mode the bootstrap layer resolved.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// loopbackHostname selects the development API regardless of APP_ENV.
const loopbackHostname = "localhost"

// ParseEnvironment maps an APP_ENV value onto an Environment. Local profiles
// (empty, dev, test, local) count as development; everything else is production.
func ParseEnvironment(raw string) Environment {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "development", "dev", "test", "local":
		return EnvDevelopment
	default:
		return EnvProduction
	}
}

// ResolveBaseURL picks the API base URL. Development mode or a loopback
// hostname selects devURL; anything else falls back to prodURL.
func ResolveBaseURL(env Environment, hostname, devURL, prodURL string) string {
	if env == EnvDevelopment || strings.EqualFold(strings.TrimSpace(hostname), loopbackHostname) {
		return devURL
	}
	return prodURL
}

// Endpoint is the versioned path of one API resource.
type Endpoint struct {
	Path    string
	Version string
}

// URL joins the endpoint onto base, e.g. http://localhost:4460/v1/posts.
func (e Endpoint) URL(base string) string {
	return strings.TrimRight(base, "/") + e.Version + e.Path
}

// Resource names in the endpoint table.
const (
	ResourcePosts = "posts"
	ResourceUsers = "users"
)

// DefaultEndpoints returns a fresh copy of the static resource table.
func DefaultEndpoints() map[string]Endpoint {
	return map[string]Endpoint{
		ResourcePosts: {Path: "/posts", Version: "/v1"},
		ResourceUsers: {Path: "/users", Version: "/v1"},
	}
}

// APIConfig is the resolved view of the remote API handed to service clients.
type APIConfig struct {
	Environment Environment
	BaseURL     string
	Endpoints   map[string]Endpoint
}

// EndpointURL returns the absolute URL for resource.
func (a APIConfig) EndpointURL(resource string) (string, error) {
	ep, ok := a.Endpoints[resource]
	if !ok {
		return "", fmt.Errorf("no endpoint configured for resource %q", resource)
	}
	return ep.URL(a.BaseURL), nil
}
