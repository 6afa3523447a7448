package internaldefs

import "github.com/MrEthical07/jwtauth"

// CounterDef maps a counter ID to its exported name.
type CounterDef struct {
	ID   jwtauth.MetricID
	Name string
	Help string
}

// HistogramDef maps a histogram ID to its exported name.
type HistogramDef struct {
	ID   jwtauth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to a full dispatcher buffer.
const (
	AuditDroppedName = "jwtauth_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped due to dispatcher backpressure."
)

var CounterDefs = []CounterDef{
	{ID: jwtauth.MetricTokenIssuedAccess, Name: "jwtauth_token_issued_access_total", Help: "Access tokens issued."},
	{ID: jwtauth.MetricTokenIssuedRefresh, Name: "jwtauth_token_issued_refresh_total", Help: "Refresh tokens issued."},
	{ID: jwtauth.MetricTokenIssueFailure, Name: "jwtauth_token_issue_failure_total", Help: "Token issuance failures."},
	{ID: jwtauth.MetricVerifySuccess, Name: "jwtauth_verify_success_total", Help: "Successful token verifications."},
	{ID: jwtauth.MetricVerifyFailure, Name: "jwtauth_verify_failure_total", Help: "Failed token verifications."},
	{ID: jwtauth.MetricVerifyExpired, Name: "jwtauth_verify_expired_total", Help: "Verifications rejected as expired."},
	{ID: jwtauth.MetricVerifySignatureInvalid, Name: "jwtauth_verify_signature_invalid_total", Help: "Verifications rejected for a bad signature."},
	{ID: jwtauth.MetricVerifyMalformed, Name: "jwtauth_verify_malformed_total", Help: "Verifications rejected as malformed."},
	{ID: jwtauth.MetricRefreshSuccess, Name: "jwtauth_refresh_success_total", Help: "Successful refresh exchanges."},
	{ID: jwtauth.MetricRefreshFailure, Name: "jwtauth_refresh_failure_total", Help: "Failed refresh exchanges."},
	{ID: jwtauth.MetricRefreshWrongType, Name: "jwtauth_refresh_wrong_type_total", Help: "Refresh attempts with a non-refresh token."},
	{ID: jwtauth.MetricReplayDetected, Name: "jwtauth_replay_detected_total", Help: "Refresh tokens presented after consumption."},
	{ID: jwtauth.MetricStorageUnavailable, Name: "jwtauth_storage_unavailable_total", Help: "Used-token or throttle store failures."},
	{ID: jwtauth.MetricRefreshRateLimited, Name: "jwtauth_refresh_rate_limited_total", Help: "Throttled refresh attempts."},
}

var HistogramDefs = []HistogramDef{
	{ID: jwtauth.MetricVerifyLatency, Name: "jwtauth_verify_latency_seconds", Help: "Token verification latency."},
}

// BucketCount matches the in-process histogram layout.
const BucketCount = 8

// HistogramBounds are the finite upper bounds in seconds; the last bucket is +Inf.
var HistogramBounds = [BucketCount - 1]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters that flatten
// histograms into gauges.
var HistogramBoundSuffix = [BucketCount]string{
	"0_005", "0_01", "0_025", "0_05", "0_1", "0_25", "0_5", "inf",
}

// NormalizeBuckets copies raw into a fixed array, zero-filling or truncating as needed.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals. The last element is the
// sample count.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
