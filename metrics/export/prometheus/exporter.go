package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/qplayer/tokenauth"
	"github.com/qplayer/tokenauth/metrics/export/internaldefs"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

type metricsSource interface {
	MetricsSnapshot() tokenauth.MetricsSnapshot
	AuditDropped() uint64
}

// PrometheusExporter renders engine metrics in Prometheus text exposition format.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter reads from engine on every scrape.
func NewPrometheusExporter(engine *tokenauth.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		body := p.Render()
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = w.Write([]byte(body))
	})
}

// Render returns the current metrics, or "" when metrics are disabled and
// nothing was dropped.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(2048)

	for _, fam := range internaldefs.Counters(snapshot, dropped) {
		writeFamilyHeader(&b, fam.Name, fam.Help, "counter")
		for _, s := range fam.Samples {
			writeSample(&b, fam.Name, s.Label, s.Value)
		}
	}

	for _, def := range internaldefs.HistogramDefs {
		if _, ok := snapshot.Histograms[def.ID]; !ok {
			continue
		}
		buckets := internaldefs.LatencyBuckets(snapshot, def.ID)
		writeFamilyHeader(&b, def.Name, def.Help, "histogram")
		for i, le := range internaldefs.HistogramBounds {
			writeSample(&b, def.Name+"_bucket", internaldefs.Label{Name: internaldefs.BucketLabel, Value: le}, buckets[i])
		}
		// The engine keeps bucket counts only; _sum is always zero.
		writeSample(&b, def.Name+"_sum", internaldefs.Label{}, 0)
		writeSample(&b, def.Name+"_count", internaldefs.Label{}, buckets[len(buckets)-1])
	}

	return b.String()
}

func writeFamilyHeader(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteString("\n# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

func writeSample(b *strings.Builder, name string, label internaldefs.Label, value uint64) {
	b.WriteString(name)
	if label.Name != "" {
		b.WriteByte('{')
		b.WriteString(label.Name)
		b.WriteString(`="`)
		b.WriteString(escapeLabelValue(label.Value))
		b.WriteString(`"}`)
	}
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

var (
	helpEscaper  = strings.NewReplacer(`\`, `\\`, "\n", `\n`)
	labelEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, `"`, `\"`)
)

func escapeHelp(help string) string {
	return helpEscaper.Replace(help)
}

func escapeLabelValue(v string) string {
	return labelEscaper.Replace(v)
}
