package campaign

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// TrialsTotal counts finished trials by outcome.
	TrialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispersion_trials_total",
			Help: "Total number of trials finished",
		},
		[]string{"campaign", "outcome"},
	)

	// TrialsRequested is the trial count a campaign was started with.
	TrialsRequested = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispersion_trials_requested",
			Help: "Number of trials requested for a campaign",
		},
		[]string{"campaign"},
	)

	// TrialCPUSeconds tracks per-trial CPU time of successful trials.
	TrialCPUSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispersion_trial_cpu_seconds",
			Help:    "CPU time spent simulating one successful trial",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"campaign"},
	)

	// CampaignWallSeconds is the wall time of the last finished campaign run.
	CampaignWallSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispersion_campaign_wall_seconds",
			Help: "Wall time of a finished campaign",
		},
		[]string{"campaign"},
	)
)

func init() {
	prometheus.MustRegister(TrialsTotal)
	prometheus.MustRegister(TrialsRequested)
	prometheus.MustRegister(TrialCPUSeconds)
	prometheus.MustRegister(CampaignWallSeconds)
}
