package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gebeta-app/gebeta/pkg/ctx"
)

// HealthController reports whether the backing services answer.
type HealthController struct {
	checks map[string]func(context.Context) error
}

func NewHealthController(checks map[string]func(context.Context) error) *HealthController {
	return &HealthController{checks: checks}
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Show answers 200 when every check passes and 503 otherwise.
func (hc *HealthController) Show(c *ctx.Context) {
	cctx, cancel := context.WithTimeout(c.R.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	report := healthReport{Status: "ok", Checks: map[string]string{}}
	for _, name := range names {
		if err := hc.checks[name](cctx); err != nil {
			report.Status = "degraded"
			report.Checks[name] = err.Error()
			continue
		}
		report.Checks[name] = "ok"
	}

	code := http.StatusOK
	if report.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, report)
}
