// ABOUTME: FeatureEntitlementModel: read-only projection of server-computed feature flags
// ABOUTME: The capability list is fixed; unknown keys are ignored and absent keys are off

package entitlements

// Capability is a platform feature a client may be entitled to
type Capability struct {
	Key         string
	Label       string
	Description string
}

// Capabilities is the fixed display list, in display order
var Capabilities = []Capability{
	{Key: "idVerification", Label: "ID Verification", Description: "Document scanning and OCR"},
	{Key: "livenessCheck", Label: "Liveness Check", Description: "Facial liveness detection"},
	{Key: "proofOfAddress", Label: "Proof of Address", Description: "Address document verification"},
	{Key: "fraudChecks", Label: "Fraud Checks", Description: "Risk scoring and fraud detection"},
	{Key: "amlScreening", Label: "AML Screening", Description: "Anti-money laundering checks"},
	{Key: "sanctionsScreening", Label: "Sanctions Screening", Description: "Global sanctions screening"},
	{Key: "biometricMatching", Label: "Biometric Matching", Description: "Face match ID vs selfie"},
	{Key: "webhooks", Label: "Webhooks", Description: "Real-time notifications"},
	{Key: "apiAccess", Label: "API Access", Description: "REST API and SDK access"},
	{Key: "batchProcessing", Label: "Batch Processing", Description: "Bulk applicant processing"},
}

// Entitlement is one capability rendered on or off for a client
type Entitlement struct {
	Capability
	Enabled bool
}

// Project renders every capability against the server's feature map.
// A nil map yields every capability off.
func Project(features map[string]bool) []Entitlement {
	out := make([]Entitlement, len(Capabilities))
	for i, c := range Capabilities {
		out[i] = Entitlement{Capability: c, Enabled: features[c.Key]}
	}
	return out
}

// EnabledCount returns how many entitlements are on
func EnabledCount(es []Entitlement) int {
	n := 0
	for _, e := range es {
		if e.Enabled {
			n++
		}
	}
	return n
}

// Lookup returns the capability with the given key
func Lookup(key string) (Capability, bool) {
	for _, c := range Capabilities {
		if c.Key == key {
			return c, true
		}
	}
	return Capability{}, false
}
