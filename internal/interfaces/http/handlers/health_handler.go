package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

// checkTimeout bounds each dependency ping during readiness.
const checkTimeout = 2 * time.Second

// HealthCheck pings one dependency.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	checks []HealthCheck
}

// NewHealthHandler builds the handler over the given dependency checks.
func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Liveness reports the process is up.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": common.HealthUp})
}

// Readiness pings every dependency and reports per-component health. Any
// failing component yields 503.
func (h *HealthHandler) Readiness(c *gin.Context) {
	components := make([]common.ComponentHealth, 0, len(h.checks))
	status := common.HealthUp

	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		start := time.Now()
		err := check.Ping(ctx)
		cancel()

		ch := common.ComponentHealth{
			Name:    check.Name,
			Status:  common.HealthUp,
			Latency: time.Since(start),
		}
		if err != nil {
			ch.Status = common.HealthDown
			ch.Message = err.Error()
			status = common.HealthDegraded
		}
		components = append(components, ch)
	}

	code := http.StatusOK
	if status != common.HealthUp {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "components": components})
}
