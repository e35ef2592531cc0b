package internaldefs

import (
	"github.com/qplayer/tokenauth"
)

// Label names used across exported series.
const (
	OutcomeLabel = "outcome"
	ReasonLabel  = "reason"
	BucketLabel  = "le"
)

// Label is a single name/value pair. The zero Label means an unlabelled
// series.
type Label struct {
	Name  string
	Value string
}

// CounterSeries binds one engine counter to a series of its family.
type CounterSeries struct {
	ID    tokenauth.MetricID
	Label Label
}

// CounterFamily is one exported counter name and the series under it.
type CounterFamily struct {
	Name   string
	Help   string
	Series []CounterSeries
}

// FailureReasons are the reason values of tokenauth_authenticate_failures_total
// in render order. Each maps to its counter through tokenauth.FailureMetric.
var FailureReasons = []string{
	tokenauth.ReasonNoCredentials,
	tokenauth.ReasonUnsupportedScheme,
	tokenauth.ReasonMalformedToken,
	tokenauth.ReasonSignatureInvalid,
	tokenauth.ReasonExpired,
	tokenauth.ReasonMissingSubject,
	tokenauth.ReasonMalformedClaim,
}

var CounterFamilies = []CounterFamily{
	{
		Name: "tokenauth_issue_total",
		Help: "Token issue attempts by outcome.",
		Series: []CounterSeries{
			{ID: tokenauth.MetricIssueSuccess, Label: Label{OutcomeLabel, "issued"}},
			{ID: tokenauth.MetricIssueFailure, Label: Label{OutcomeLabel, "failed"}},
			{ID: tokenauth.MetricIssueUnknownAuthority, Label: Label{OutcomeLabel, "unknown_authority"}},
		},
	},
	{
		Name:   "tokenauth_authenticate_success_total",
		Help:   "Requests and bare tokens that yielded a principal.",
		Series: []CounterSeries{{ID: tokenauth.MetricAuthenticateSuccess}},
	},
	{
		Name:   "tokenauth_authenticate_failures_total",
		Help:   "Rejected credentials by reason.",
		Series: reasonSeries(FailureReasons),
	},
	{
		Name:   "tokenauth_logout_total",
		Help:   "Auth cookie clear operations.",
		Series: []CounterSeries{{ID: tokenauth.MetricLogout}},
	},
}

func reasonSeries(reasons []string) []CounterSeries {
	out := make([]CounterSeries, len(reasons))
	for i, reason := range reasons {
		out[i] = CounterSeries{
			ID:    tokenauth.FailureMetric(reason),
			Label: Label{ReasonLabel, reason},
		}
	}
	return out
}

const (
	AuditDroppedName = "tokenauth_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped under dispatcher backpressure."
)

// Sample is one series value read from a snapshot.
type Sample struct {
	Label Label
	Value uint64
}

type FamilySamples struct {
	Name    string
	Help    string
	Samples []Sample
}

// Counters resolves every counter family against snapshot, followed by the
// audit drop counter. The order is fixed, so exporters may index the result.
func Counters(snapshot tokenauth.MetricsSnapshot, auditDropped uint64) []FamilySamples {
	out := make([]FamilySamples, 0, len(CounterFamilies)+1)
	for _, fam := range CounterFamilies {
		samples := make([]Sample, len(fam.Series))
		for i, s := range fam.Series {
			samples[i] = Sample{Label: s.Label, Value: snapshot.Counters[s.ID]}
		}
		out = append(out, FamilySamples{Name: fam.Name, Help: fam.Help, Samples: samples})
	}
	return append(out, FamilySamples{
		Name:    AuditDroppedName,
		Help:    AuditDroppedHelp,
		Samples: []Sample{{Value: auditDropped}},
	})
}

type HistogramDef struct {
	ID   tokenauth.MetricID
	Name string
	Help string
}

var HistogramDefs = []HistogramDef{
	{ID: tokenauth.MetricDecodeLatency, Name: "tokenauth_decode_latency_seconds", Help: "Token signature and claim verification latency."},
}

// HistogramBounds are the upper bounds of the decode latency buckets in
// seconds, matching the engine's microsecond buckets.
var HistogramBounds = []string{
	"0.00005",
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.005",
	"0.025",
	"+Inf",
}

// LatencyBuckets returns the cumulative counts of histogram id, one per
// HistogramBounds entry.
func LatencyBuckets(snapshot tokenauth.MetricsSnapshot, id tokenauth.MetricID) [8]uint64 {
	return CumulativeBuckets(NormalizeBuckets(snapshot.Histograms[id]))
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, padding with
// zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
