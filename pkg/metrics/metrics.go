package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mcbun",
		Name:      "dispatch_total",
		Help:      "Sub-file and struct file operations by operation and dispatch class.",
	}, []string{"op", "class"})

	SubFileErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mcbun",
		Name:      "subfile_errors_total",
		Help:      "Failed sub-file operations by operation.",
	}, []string{"op"})

	BundlesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mcbun",
		Name:      "bundles_written_total",
		Help:      "Bundle archives written and registered.",
	})

	MembersBundled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mcbun",
		Name:      "members_bundled_total",
		Help:      "Data objects given a bundle replica.",
	})

	BundleBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mcbun",
		Name:      "bundle_bytes",
		Help:      "Payload size of written bundles.",
		Buckets:   prometheus.ExponentialBuckets(1024, 8, 10),
	})

	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mcbun",
		Name:      "extract_registrations_total",
		Help:      "Extracted entries by registration outcome.",
	}, []string{"outcome"})
)
