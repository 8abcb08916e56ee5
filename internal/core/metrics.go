package core

import "time"

// MetricsRecorder abstracts metric recording so that business code does not
// depend on a concrete backend. A noop implementation is used when metrics
// are disabled.
type MetricsRecorder interface {
	// RecordLogin records the outcome of a full login attempt.
	RecordLogin(success bool)

	// RecordCodeExchange records the outcome and duration of an external
	// authorization-code exchange (token endpoint + userinfo).
	RecordCodeExchange(success bool, duration time.Duration)

	// RecordResourceCall records one outbound CommonGround microservice call.
	RecordResourceCall(component, operation string, success bool, duration time.Duration)

	// RecordCompanyLookup records a company-registry search.
	RecordCompanyLookup(success bool)

	// RecordNewUser records that a login attempt created a new user record.
	RecordNewUser()

	// RecordLoginLogDropped records a login-log entry dropped because the
	// async buffer was full.
	RecordLoginLogDropped()
}
