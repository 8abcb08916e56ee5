package metrics

import (
	"time"

	"github.com/conductionnl/commonground-gateway/internal/core"
)

// NoopMetrics is a no-operation implementation of MetricsRecorder
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements MetricsRecorder interface at compile time
var _ core.MetricsRecorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() core.MetricsRecorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordLogin(success bool)                                 {}
func (n *NoopMetrics) RecordCodeExchange(success bool, duration time.Duration)  {}
func (n *NoopMetrics) RecordCompanyLookup(success bool)                         {}
func (n *NoopMetrics) RecordNewUser()                                           {}
func (n *NoopMetrics) RecordLoginLogDropped()                                   {}
func (n *NoopMetrics) RecordResourceCall(
	component, operation string,
	success bool,
	duration time.Duration,
) {
}
