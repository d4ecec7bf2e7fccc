package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(vendorCallSeconds) }

var vendorCallSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "vendor_call_duration_seconds",
		Help:    "Latency of outbound vendor calls.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"vendor", "op", "success"},
)

// ObserveVendorCall records one outbound call started at start.
func ObserveVendorCall(vendor, op string, start time.Time, err error) {
	vendorCallSeconds.WithLabelValues(norm(vendor), norm(op), strconv.FormatBool(err == nil)).
		Observe(time.Since(start).Seconds())
}
