package secrets

import "fmt"

// SecretType classifies a secret for policy purposes. The set is closed:
// adding a type means extending the policy table below, and the exhaustive
// switch in String keeps the two in sync at review time.
type SecretType int

const (
	// SecretTypeJWT is a JWT signing secret
	SecretTypeJWT SecretType = iota

	// SecretTypeDatabaseCredential is a database password
	SecretTypeDatabaseCredential

	// SecretTypeAPIKey is an API key for an external service
	SecretTypeAPIKey

	// SecretTypeEncryptionKey is a data encryption key
	SecretTypeEncryptionKey

	// SecretTypeOAuthSecret is an OAuth client secret
	SecretTypeOAuthSecret

	// SecretTypeWebhookSecret is a webhook signing secret
	SecretTypeWebhookSecret
)

// String returns the canonical name of the secret type
func (t SecretType) String() string {
	switch t {
	case SecretTypeJWT:
		return "jwt_secret"
	case SecretTypeDatabaseCredential:
		return "database_credential"
	case SecretTypeAPIKey:
		return "api_key"
	case SecretTypeEncryptionKey:
		return "encryption_key"
	case SecretTypeOAuthSecret:
		return "oauth_secret"
	case SecretTypeWebhookSecret:
		return "webhook_secret"
	default:
		return fmt.Sprintf("secret_type(%d)", int(t))
	}
}

// Policy defines per-type handling rules. Policies are static
// configuration: loaded once, never mutated at runtime.
type Policy struct {
	// RequiresHardenedStoreInProduction forbids any other source in Production
	RequiresHardenedStoreInProduction bool

	// AllowsLocalFallbackInDev permits env-var fallback reads outside Production
	AllowsLocalFallbackInDev bool

	// RotationIntervalDays is the recommended rotation cadence
	RotationIntervalDays uint32

	// MinLength is the minimum accepted value length
	MinLength uint32

	// ComplexityRequired demands mixed character classes in the value
	ComplexityRequired bool
}

// policyTable maps every SecretType to its policy. All six types must be
// present; PolicyFor treats a missing entry as a configuration defect.
var policyTable = map[SecretType]Policy{
	SecretTypeJWT: {
		RequiresHardenedStoreInProduction: true,
		AllowsLocalFallbackInDev:          true,
		RotationIntervalDays:              90,
		MinLength:                         32,
		ComplexityRequired:                false,
	},
	SecretTypeDatabaseCredential: {
		RequiresHardenedStoreInProduction: true,
		AllowsLocalFallbackInDev:          true,
		RotationIntervalDays:              30,
		MinLength:                         16,
		ComplexityRequired:                true,
	},
	SecretTypeAPIKey: {
		RequiresHardenedStoreInProduction: true,
		AllowsLocalFallbackInDev:          true,
		RotationIntervalDays:              90,
		MinLength:                         20,
		ComplexityRequired:                false,
	},
	SecretTypeEncryptionKey: {
		RequiresHardenedStoreInProduction: true,
		AllowsLocalFallbackInDev:          false,
		RotationIntervalDays:              180,
		MinLength:                         32,
		ComplexityRequired:                false,
	},
	SecretTypeOAuthSecret: {
		RequiresHardenedStoreInProduction: true,
		AllowsLocalFallbackInDev:          true,
		RotationIntervalDays:              90,
		MinLength:                         24,
		ComplexityRequired:                false,
	},
	SecretTypeWebhookSecret: {
		RequiresHardenedStoreInProduction: true,
		AllowsLocalFallbackInDev:          true,
		RotationIntervalDays:              90,
		MinLength:                         24,
		ComplexityRequired:                false,
	},
}

// PolicyFor resolves the policy for a secret type
func PolicyFor(t SecretType) (Policy, bool) {
	p, ok := policyTable[t]
	return p, ok
}
