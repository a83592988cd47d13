package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	httpclient "VoiceCalendarAI/backend/go/pkg/http"
)

// ComponentCheck probes one dependency of the service.
type ComponentCheck func(ctx context.Context) error

// HealthReport maps component names to "ok" or the failure message.
type HealthReport map[string]string

// Healthy reports whether every component check passed.
func (r HealthReport) Healthy() bool {
	for _, status := range r {
		if status != "ok" {
			return false
		}
	}
	return true
}

// HealthChecker aggregates component checks into a single report.
type HealthChecker struct {
	checks map[string]ComponentCheck
}

// NewHealthChecker creates a HealthChecker over the given component checks.
func NewHealthChecker(checks map[string]ComponentCheck) *HealthChecker {
	return &HealthChecker{checks: checks}
}

// Check probes every component with a shared deadline.
func (h *HealthChecker) Check(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	report := make(HealthReport, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			report[name] = err.Error()
		} else {
			report[name] = "ok"
		}
	}
	return report
}

// OllamaCheck probes the Ollama HTTP endpoint through the circuit-broken
// client and verifies the configured model is actually pulled, so a running
// server without the model still reports as degraded.
func OllamaCheck(client *httpclient.Client, host, model string) ComponentCheck {
	url := strings.TrimRight(host, "/") + "/api/tags"
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var tags struct {
			Models []struct {
				Name string `json:"name"`
			} `json:"models"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
			return fmt.Errorf("unreadable model list: %w", err)
		}
		for _, m := range tags.Models {
			// Tags carry a ":latest" style suffix when none was configured.
			if m.Name == model || strings.HasPrefix(m.Name, model+":") {
				return nil
			}
		}
		return fmt.Errorf("model %q is not available", model)
	}
}
