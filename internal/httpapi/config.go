package httpapi

import "context"

// serverBaseCtx is canceled on process shutdown; Background until set.
var serverBaseCtx = context.Background()

// SetBaseContext ties in-flight device lookups to the process lifetime.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serverBaseCtx = ctx
}

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 64 << 10

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 64 << 10
		return
	}
	maxBodyBytes = n
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// authSecret enables bearer-token checks on mutating routes when non-empty.
var authSecret []byte

// SetAuthSecret installs the HS256 secret used to verify bearer tokens.
// An empty secret disables authentication.
func SetAuthSecret(secret string) {
	if secret == "" {
		authSecret = nil
		return
	}
	authSecret = []byte(secret)
}
