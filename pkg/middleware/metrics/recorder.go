package metrics

import "github.com/joeydtaylor/steeze-social/pkg/apperr"

// Dispatched counts one dispatcher outcome. An empty kind is a success.
func (c *Collector) Dispatched(route string, kind apperr.Kind) {
	k := string(kind)
	if k == "" {
		k = "ok"
	}
	c.dispatchResults.WithLabelValues(route, k).Inc()
}

// StepFailed counts a failed synchronization step.
func (c *Collector) StepFailed(handler, module, operation string) {
	c.syncStepFailures.WithLabelValues(handler, module, operation).Inc()
}
