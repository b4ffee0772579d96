package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login outcomes recorded by LoginsTotal.
const (
	LoginOutcomeSuccess     = "success"
	LoginOutcomeInvalid     = "invalid_credentials"
	LoginOutcomeSuspended   = "sessions_suspended"
	LoginOutcomeServerError = "server_error"
)

// Validation outcomes recorded by ValidationsTotal.
const (
	ValidationOutcomeValid     = "valid"
	ValidationOutcomeMalformed = "malformed"
	ValidationOutcomeExpired   = "expired"
	ValidationOutcomeRevoked   = "revoked"
	ValidationOutcomeError     = "error"
)

var (
	// LoginsTotal counts login attempts by outcome.
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authn_logins_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})

	// ValidationsTotal counts bearer token validations by outcome.
	ValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authn_token_validations_total",
		Help: "Bearer token validations by outcome.",
	}, []string{"outcome"})

	// RevocationsTotal counts token revocations by kind (logout, logout_all, tracked).
	RevocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authn_token_revocations_total",
		Help: "Token revocations by kind.",
	}, []string{"kind"})

	// SweptRecordsTotal counts expired revocation records removed by the retention sweep.
	SweptRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authn_revocation_records_swept_total",
		Help: "Expired revocation records deleted by the retention sweep.",
	})
)
