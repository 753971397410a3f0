package main

import (
	"log"

	"retailetl/internal/metrics"
	"retailetl/internal/metrics/datadog"
	"retailetl/internal/metrics/prompush"
)

type metricsOptions struct {
	backend    string
	gatewayURL string
	agentAddr  string
	job        string
	runID      string
	verbose    bool
}

// setupMetrics installs the selected backend and returns a flush func that
// is safe to call when metrics are disabled.
func setupMetrics(o metricsOptions) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch o.backend {
	case "pushgateway":
		b, err = prompush.NewBackend(prompush.Config{GatewayURL: o.gatewayURL, Job: o.job, RunID: o.runID})
		if err == nil {
			log.Printf("metrics: backend=pushgateway url=%s job=%s run_id=%s", o.gatewayURL, o.job, o.runID)
		}
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       o.agentAddr,
			Namespace:  "retail.",
			GlobalTags: []string{"job:" + o.job, "run_id:" + o.runID},
		})
		if err == nil {
			log.Printf("metrics: backend=datadog addr=%s job=%s run_id=%s", o.agentAddr, o.job, o.runID)
		}
	case "", "none":
		if o.verbose {
			log.Printf("metrics: disabled (backend=%q)", o.backend)
		}
		return func() {}
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", o.backend)
		return func() {}
	}

	if err != nil {
		log.Printf("metrics: failed to init %s backend: %v; using nop", o.backend, err)
		return func() {}
	}
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}
