package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Observational only: none of these gate control flow.
var (
	metricJobsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_jobs_started_total",
		Help: "Number of jobs accepted by Run.",
	})
	metricJobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_jobs_completed_total",
		Help: "Number of jobs that ran to an aggregate status, split by status.",
	}, []string{"status"})
	metricRemaps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_remaps_total",
		Help: "Number of failed functors reassigned to an idle device.",
	})
	metricDevicesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_devices_failed_total",
		Help: "Number of device failures observed, including allocation failures.",
	})
	metricFunctorsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_functors_failed_total",
		Help: "Number of functors that permanently failed (no idle device or retry budget spent).",
	})
	metricMonitorsAbandoned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_monitors_abandoned_total",
		Help: "Number of aux functors still running after the grace period and abandoned.",
	})
)
