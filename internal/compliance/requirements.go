package compliance

import "trustguard/internal/config"

// Requirements is the security posture an environment tier must meet
type Requirements struct {
	// HardenedStoreRequired demands a healthy hardened secret store
	HardenedStoreRequired bool

	// ForbidFallbackStore forbids the env-var fallback store entirely
	ForbidFallbackStore bool

	// CSRFRequired demands active CSRF protection
	CSRFRequired bool

	// SecurityHeadersRequired demands the security headers middleware
	SecurityHeadersRequired bool

	// RateLimitRequired demands active rate limiting
	RateLimitRequired bool

	// TLSRequired demands TLS termination in front of the service
	TLSRequired bool

	// ForbidDebugMode forbids running with debug enabled
	ForbidDebugMode bool
}

// requirementTable holds the static per-environment posture, strictest
// in Production and most permissive in Development.
var requirementTable = map[config.Environment]Requirements{
	config.EnvDevelopment: {
		CSRFRequired: true,
	},
	config.EnvTesting: {
		CSRFRequired: true,
	},
	config.EnvStaging: {
		HardenedStoreRequired:   true,
		CSRFRequired:            true,
		SecurityHeadersRequired: true,
		RateLimitRequired:       true,
		TLSRequired:             true,
	},
	config.EnvProduction: {
		HardenedStoreRequired:   true,
		ForbidFallbackStore:     true,
		CSRFRequired:            true,
		SecurityHeadersRequired: true,
		RateLimitRequired:       true,
		TLSRequired:             true,
		ForbidDebugMode:         true,
	},
}

// RequirementsFor returns the posture required of an environment
func RequirementsFor(env config.Environment) Requirements {
	return requirementTable[env]
}
