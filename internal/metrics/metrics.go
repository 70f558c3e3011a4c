package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	metrics "github.com/soulteary/metrics-kit"
)

var (
	// Registry is the Prometheus registry for warden-mfa metrics
	Registry *metrics.Registry

	// LoginTotal counts password-step attempts by result
	LoginTotal *prometheus.CounterVec

	// VerifyTotal counts TOTP-step attempts by result and reason
	VerifyTotal *prometheus.CounterVec

	// EnrollStartTotal counts enroll/start calls
	EnrollStartTotal prometheus.Counter

	// EnrollConfirmTotal counts enroll/confirm by result
	EnrollConfirmTotal *prometheus.CounterVec
)

func init() {
	Init()
}

// Init initializes warden-mfa metrics
func Init() {
	Registry = metrics.NewRegistry("warden_mfa")
	LoginTotal = Registry.Counter("login_total").
		Help("Total password-step attempts").
		Labels("result").
		BuildVec()
	VerifyTotal = Registry.Counter("verify_total").
		Help("Total TOTP verify attempts").
		Labels("result", "reason").
		BuildVec()
	EnrollStartTotal = Registry.Counter("enroll_start_total").
		Help("Total enroll/start calls").
		Build()
	EnrollConfirmTotal = Registry.Counter("enroll_confirm_total").
		Help("Total enroll/confirm by result").
		Labels("result").
		BuildVec()
}

// RecordLogin records a password-step attempt (result: "success" or "failure")
func RecordLogin(result string) {
	if LoginTotal != nil {
		LoginTotal.WithLabelValues(result).Inc()
	}
}

// RecordVerify records a TOTP attempt (result: "success" or "failure", reason: e.g. "invalid", "replay")
func RecordVerify(result, reason string) {
	if VerifyTotal != nil {
		VerifyTotal.WithLabelValues(result, reason).Inc()
	}
}

// RecordEnrollStart records an enroll/start call
func RecordEnrollStart() {
	if EnrollStartTotal != nil {
		EnrollStartTotal.Inc()
	}
}

// RecordEnrollConfirm records an enroll/confirm (result: "success" or "failure")
func RecordEnrollConfirm(result string) {
	if EnrollConfirmTotal != nil {
		EnrollConfirmTotal.WithLabelValues(result).Inc()
	}
}
