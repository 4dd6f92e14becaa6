package observe

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/campusql/campusql-go/internal/config"
)

// HTTPTransport wraps the outgoing transport with OpenTelemetry
// instrumentation when enabled, so API calls appear as client spans.
func HTTPTransport(wrapped http.RoundTripper, cfg config.ObserveConfig) http.RoundTripper {
	if !cfg.Enabled || !cfg.HTTPTransportEnabled {
		return wrapped
	}
	return otelhttp.NewTransport(wrapped)
}
