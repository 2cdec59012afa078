package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the /metrics scrape endpoint. It reads from the default
// Prometheus registry, which go.opentelemetry.io/otel/exporters/prometheus
// registers its collector against.
func Handler() http.Handler {
	return promhttp.Handler()
}
