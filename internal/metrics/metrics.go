// Package metrics holds the Prometheus collectors of the marketplace.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Claim outcomes recorded by ObserveClaim.
const (
	OutcomeClaimed        = "claimed"
	OutcomeNotActive      = "not_active"
	OutcomeOutOfWindow    = "out_of_window"
	OutcomeLimitReached   = "limit_reached"
	OutcomeAlreadyClaimed = "already_claimed"
	OutcomeError          = "error"
)

var (
	ClaimAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_claim_attempts_total",
		Help: "Offer claim attempts by outcome",
	}, []string{"outcome"})

	ClaimCASMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_claim_cas_misses_total",
		Help: "Claims rejected by the conditional counter update after passing the pre-check",
	})

	Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_redemptions_total",
		Help: "Redemption attempts by resulting status",
	}, []string{"result"})

	ExpiredClaims = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_claims_expired_total",
		Help: "Claims persisted as expired by source",
	}, []string{"source"})

	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_expiry_sweep_runs_total",
		Help: "Expiry sweep runs by result",
	}, []string{"result"})

	OfferActivations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_offer_activation_changes_total",
		Help: "Offer activation toggles by target state",
	}, []string{"active"})
)

func label(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}

// ObserveClaim counts one claim attempt.
func ObserveClaim(outcome string) {
	ClaimAttempts.WithLabelValues(label(outcome)).Inc()
}

// ObserveRedemption counts one redemption attempt.
func ObserveRedemption(result string) {
	Redemptions.WithLabelValues(label(result)).Inc()
}

// AddExpired counts claims persisted as expired. Source is "sweep", "redeem" or "read".
func AddExpired(source string, n int64) {
	if n <= 0 {
		return
	}
	ExpiredClaims.WithLabelValues(label(source)).Add(float64(n))
}

// ObserveSweep counts one sweep run.
func ObserveSweep(ok bool) {
	if ok {
		SweepRuns.WithLabelValues("ok").Inc()
		return
	}
	SweepRuns.WithLabelValues("error").Inc()
}

// ObserveActivation counts one activation toggle.
func ObserveActivation(active bool) {
	if active {
		OfferActivations.WithLabelValues("true").Inc()
		return
	}
	OfferActivations.WithLabelValues("false").Inc()
}
