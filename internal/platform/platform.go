// Package platform is the client for the managed backend platform that owns
// identity, row storage, and object storage. Everything behind this package
// is a black box reached over REST.
//
// Access is split into two explicit tiers:
//
//   - AsUser: verifies end-user credentials only. Carries the public anon key.
//   - AsService: record and storage reads/writes with the privileged
//     service-role key, which bypasses the platform's row-level access
//     policies. Entitlement checks and URL signing must run on this tier,
//     because the end user's own credential may not be allowed to see the
//     subscription or content row at all.
//
// Handlers receive the tier they need, never the raw keys, so the privilege
// boundary is visible at every call site.
package platform

import (
	"net/http"
	"strings"
	"time"
)

// Client holds the platform endpoint and both credential tiers.
// Construct once at startup; safe for concurrent use. Per-request state
// (the caller's bearer token) is passed as an argument, never stored, so
// overlapping requests cannot leak credentials into each other's calls.
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	jwtSecret  []byte
	httpc      *http.Client
}

// Options configures a platform Client.
type Options struct {
	// BaseURL is the platform project URL, e.g. "https://abc.supabase.co".
	BaseURL string
	// AnonKey is the public API key used when acting as the end user.
	AnonKey string
	// ServiceRoleKey is the privileged key used when acting as the service.
	ServiceRoleKey string
	// JWTSecret, when set, enables local HS256 verification of identity
	// tokens as a fast path that skips the remote user lookup.
	JWTSecret string
	// HTTPClient overrides the default client (10s timeout).
	HTTPClient *http.Client
}

// New creates a platform Client.
func New(opts Options) *Client {
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	var secret []byte
	if opts.JWTSecret != "" {
		secret = []byte(opts.JWTSecret)
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		anonKey:    opts.AnonKey,
		serviceKey: opts.ServiceRoleKey,
		jwtSecret:  secret,
		httpc:      httpc,
	}
}

// BaseURL returns the platform project URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AsUser returns the identity-verification tier.
func (c *Client) AsUser() UserAccess {
	return UserAccess{c: c}
}

// AsService returns the privileged record/storage tier.
func (c *Client) AsService() ServiceAccess {
	return ServiceAccess{c: c}
}

// UserAccess is the narrow "as the end user" capability: it can verify a
// bearer credential and nothing else.
type UserAccess struct {
	c *Client
}

// ServiceAccess is the broad "as the service" capability: record reads and
// writes, object existence probes, and signed URL creation, all with the
// service-role key.
type ServiceAccess struct {
	c *Client
}

// serviceHeaders sets the privileged auth headers on a request.
func (s ServiceAccess) serviceHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.c.serviceKey)
	req.Header.Set("apikey", s.c.serviceKey)
}
