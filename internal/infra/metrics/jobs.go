package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(pptPollsTotal, pptJobsFinishedTotal, pptTicksTotal) }

var (
	pptPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ppt_polls_total",
			Help: "Slide job status polls, labeled by caller and outcome.",
		},
		[]string{"caller", "outcome"}, // caller: reconciler|waiter; outcome: ok|vendor_error
	)

	pptJobsFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ppt_jobs_finished_total",
			Help: "Slide jobs that reached a terminal status.",
		},
		[]string{"status"}, // done|failed
	)

	pptTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ppt_reconciler_ticks_total",
			Help: "Reconciler ticks, labeled by result.",
		},
		[]string{"result"}, // polled|idle|no_credential|error
	)
)

func IncPPTPoll(caller, outcome string) {
	pptPollsTotal.WithLabelValues(norm(caller), norm(outcome)).Inc()
}

func IncPPTJobFinished(status string) {
	pptJobsFinishedTotal.WithLabelValues(norm(status)).Inc()
}

func IncPPTTick(result string) {
	pptTicksTotal.WithLabelValues(norm(result)).Inc()
}
