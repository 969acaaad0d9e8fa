package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var rentalsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pawatasty",
	Name:      "rentals_started_total",
	Help:      "Rentals opened, by start station.",
}, []string{"station_id"})

var rentalsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pawatasty",
	Name:      "rentals_closed_total",
	Help:      "Rentals closed, by terminal status.",
}, []string{"status"})

var startRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pawatasty",
	Name:      "rental_start_rejected_total",
	Help:      "Rental start attempts rejected, by error code.",
}, []string{"code"})

var charges = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pawatasty",
	Name:      "charges_total",
	Help:      "Payment gateway charges, by purpose and result.",
}, []string{"purpose", "result"})

var chargedCents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pawatasty",
	Name:      "charged_cents_total",
	Help:      "Successfully charged amount in minor units.",
}, []string{"purpose"})

var inventoryClamped = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pawatasty",
	Name:      "inventory_release_clamped_total",
	Help:      "Slot releases ignored because the station was already at capacity.",
}, []string{"station_id"})

var pointsAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pawatasty",
	Name:      "points_awarded_total",
	Help:      "Loyalty points awarded, by event.",
}, []string{"event"})

func CountRentalStarted(stationID string) {
	if len(stationID) == 0 {
		return
	}
	rentalsStarted.With(prometheus.Labels{"station_id": stationID}).Inc()
}

func CountRentalClosed(status string) {
	rentalsClosed.With(prometheus.Labels{"status": status}).Inc()
}

func CountStartRejected(code string) {
	if len(code) == 0 {
		return
	}
	startRejected.With(prometheus.Labels{"code": code}).Inc()
}

func CountCharge(purpose, result string, amountCents int64) {
	charges.With(prometheus.Labels{"purpose": purpose, "result": result}).Inc()
	if result == "succeeded" && amountCents > 0 {
		chargedCents.With(prometheus.Labels{"purpose": purpose}).Add(float64(amountCents))
	}
}

func CountInventoryClamped(stationID string) {
	inventoryClamped.With(prometheus.Labels{"station_id": stationID}).Inc()
}

func CountPointsAwarded(event string, points int) {
	if points <= 0 {
		return
	}
	pointsAwarded.With(prometheus.Labels{"event": event}).Add(float64(points))
}

// Handler exposes the default registry on a gin route.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
