package observability

import "context"

// HealthStatus represents the availability of an external tool.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes whether one tool can be invoked.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ToolchainHealth aggregates the health of every tool a host depends on.
type ToolchainHealth struct {
	Status HealthStatus `json:"status"`
	Tools  []Health     `json:"tools,omitempty"`
}

// HealthChecker is implemented by tools that can report their availability.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// NewToolchainHealth creates a ToolchainHealth with status up.
func NewToolchainHealth() *ToolchainHealth {
	return &ToolchainHealth{Status: HealthStatusUp}
}

// Add appends a tool result and degrades overall status if needed.
func (th *ToolchainHealth) Add(h Health) {
	th.Tools = append(th.Tools, h)

	switch h.Status {
	case HealthStatusDown:
		th.Status = HealthStatusDown
	case HealthStatusDegraded:
		if th.Status != HealthStatusDown {
			th.Status = HealthStatusDegraded
		}
	}
}

// Check runs every checker and aggregates the results.
func Check(ctx context.Context, checkers ...HealthChecker) *ToolchainHealth {
	th := NewToolchainHealth()
	for _, c := range checkers {
		th.Add(c.CheckHealth(ctx))
	}
	return th
}
