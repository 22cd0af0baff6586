// Package signal defines the risk-signal contract used to deter duplicate
// votes. The signals are best-effort and spoofable: the fingerprint is a
// client-generated browser-install token and the IP is whatever the resolver
// could see. Stronger signals (TLS fingerprinting, ASN reputation) can be
// swapped in behind Provider without touching the verification state machine.
package signal

import "context"

// IPUnknown is the degraded-but-allowed value used when no public IP could
// be resolved. The verification service treats it as a weak-but-present
// signal rather than a hard failure, because IP resolution legitimately
// fails behind some networks.
const IPUnknown = "unknown"

// Signals carries the fraud signature for one submission attempt.
type Signals struct {
	DeviceFingerprint string
	IPAddress         string
}

// Collect gathers the full fraud signature from a provider. A zero
// DeviceFingerprint means the client-side precheck has not completed.
func Collect(ctx context.Context, p Provider) Signals {
	return Signals{
		DeviceFingerprint: p.DeviceFingerprint(),
		IPAddress:         p.PublicIP(ctx),
	}
}

// Provider produces the risk signals for the current submitter.
type Provider interface {
	// DeviceFingerprint returns the client device token, or "" when the
	// client-side resolution has not completed yet.
	DeviceFingerprint() string

	// PublicIP resolves the submitter's public IP, returning IPUnknown on
	// failure. Never returns an error: a missing IP is a policy decision
	// for the caller, not a fault.
	PublicIP(ctx context.Context) string
}
