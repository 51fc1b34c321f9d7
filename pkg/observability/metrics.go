package observability

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// AgentMetrics holds the counters the agent records.
type AgentMetrics struct {
	GatewayRequests metric.Int64Counter
	PollTicks       metric.Int64Counter
}

// NewAgentMetrics creates the agent's instruments on the given provider.
func NewAgentMetrics(provider *sdkmetric.MeterProvider) (*AgentMetrics, error) {
	meter := provider.Meter("trialconnect-agent")

	requests, err := meter.Int64Counter("gateway_requests_total",
		metric.WithDescription("Requests issued to the TrialConnect backend"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway requests counter: %w", err)
	}

	ticks, err := meter.Int64Counter("poll_ticks_total",
		metric.WithDescription("Inbox polling ticks that issued fetches"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create poll ticks counter: %w", err)
	}

	return &AgentMetrics{
		GatewayRequests: requests,
		PollTicks:       ticks,
	}, nil
}

// PrometheusHandler returns a Gin handler for Prometheus metrics
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handler != nil {
			handler.ServeHTTP(c.Writer, c.Request)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "metrics handler not initialized",
			})
		}
	}
}
