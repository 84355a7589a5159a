// Package metrics exposes decoder counters to prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dbehnke/p25cai/internal/framer"
	"github.com/dbehnke/p25cai/internal/lookup"
	"github.com/dbehnke/p25cai/internal/sink"
	"github.com/dbehnke/p25cai/internal/trunking"
)

const namespace = "p25"

// Sources are the snapshots read at scrape time. Nil sources are skipped.
type Sources struct {
	Framer     func() framer.Stats
	Dispatcher func() sink.Stats
	System     func() trunking.SystemStats
	Lookup     lookup.AliasLookup
}

// Collector turns the decoder snapshots into metrics.
type Collector struct {
	src Sources

	syncs        *prometheus.Desc
	nidFailures  *prometheus.Desc
	unrecognized *prometheus.Desc
	nacFiltered  *prometheus.Desc
	logicErrors  *prometheus.Desc
	frames       *prometheus.Desc
	fecFailures  *prometheus.Desc
	fecCorrected *prometheus.Desc

	submitted *prometheus.Desc
	dropped   *prometheus.Desc
	delivered *prometheus.Desc
	errors    *prometheus.Desc

	tsbks     *prometheus.Desc
	crcErrors *prometheus.Desc
	ambts     *prometheus.Desc

	aliases *prometheus.Desc
}

func desc(name, help string, labels ...string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
}

// NewCollector creates a collector over src.
func NewCollector(src Sources) *Collector {
	return &Collector{
		src:          src,
		syncs:        desc("syncs_total", "Frame sync patterns found."),
		nidFailures:  desc("nid_failures_total", "Network identifiers that could not be corrected."),
		unrecognized: desc("unrecognized_duid_total", "Network identifiers with an unknown data unit id."),
		nacFiltered:  desc("nac_filtered_total", "Frames dropped by the NAC filter."),
		logicErrors:  desc("logic_errors_total", "Framer logic errors."),
		frames:       desc("frames_total", "Frames decoded, by data unit type.", "type"),
		fecFailures:  desc("fec_failures_total", "Frames with an unrecoverable field or degraded voice."),
		fecCorrected: desc("fec_corrected_total", "Bits or symbols corrected by error correction."),

		submitted: desc("sink_submitted_total", "Frames submitted to the sink dispatcher."),
		dropped:   desc("sink_dropped_total", "Frames dropped because the sink queue was full."),
		delivered: desc("sink_delivered_total", "Frames delivered, by sink.", "sink"),
		errors:    desc("sink_errors_total", "Frames a sink failed to deliver, by sink.", "sink"),

		tsbks:     desc("tsbks_total", "Trunking signaling blocks received."),
		crcErrors: desc("control_crc_errors_total", "Control channel messages that failed their CRC."),
		ambts:     desc("ambts_total", "Alternate multiple block trunking packets received."),

		aliases: desc("aliases", "Aliases loaded."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.syncs, c.nidFailures, c.unrecognized, c.nacFiltered, c.logicErrors,
		c.frames, c.fecFailures, c.fecCorrected,
		c.submitted, c.dropped, c.delivered, c.errors,
		c.tsbks, c.crcErrors, c.ambts, c.aliases,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	if c.src.Framer != nil {
		st := c.src.Framer()
		counter(c.syncs, st.Syncs)
		counter(c.nidFailures, st.NIDFailures)
		counter(c.unrecognized, st.Unrecognized)
		counter(c.nacFiltered, st.NACFiltered)
		counter(c.logicErrors, st.LogicErrors)
		counter(c.fecFailures, st.FECFailures)
		counter(c.fecCorrected, st.FECCorrected)
		for duid, n := range st.Frames {
			counter(c.frames, n, duid.String())
		}
	}

	if c.src.Dispatcher != nil {
		st := c.src.Dispatcher()
		counter(c.submitted, st.Submitted)
		counter(c.dropped, st.Dropped)
		for name, n := range st.Delivered {
			counter(c.delivered, n, name)
		}
		for name, n := range st.Errors {
			counter(c.errors, n, name)
		}
	}

	if c.src.System != nil {
		st := c.src.System()
		counter(c.tsbks, st.TSBKs)
		counter(c.crcErrors, st.CRCErrors)
		counter(c.ambts, st.AMBTs)
	}

	if c.src.Lookup != nil {
		ch <- prometheus.MustNewConstMetric(c.aliases, prometheus.GaugeValue, float64(c.src.Lookup.GetEntryCount()))
	}
}

// Metrics owns the registry served on /metrics.
type Metrics struct {
	Registry *prometheus.Registry

	// Symbols counts the dibits read from the input.
	Symbols prometheus.Counter
}

// New registers the decoder collector, the input counter and the Go
// runtime collectors on a fresh registry.
func New(src Sources) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewCollector(src),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		Registry: reg,
		Symbols: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "symbols_total",
			Help:      "Dibit symbols read from the input.",
		}),
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
